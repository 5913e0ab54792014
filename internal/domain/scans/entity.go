package scans

import (
	"encoding/json"
	"time"
)

// ScanID identifier type
type ScanID string

// Aggregate Root: Scan
//
// One row per completed label analysis. Result holds the full raw model
// response (choices + citations) exactly as the provider returned it.
// Records are append-only; nothing updates or deletes them.
type Scan struct {
	ID        ScanID          `json:"id"`
	UserID    string          `json:"user_id"`
	Result    json.RawMessage `json:"analysis_result"`
	ImageURL  string          `json:"image_url,omitempty"`
	CreatedAt time.Time       `json:"timestamp"`
}
