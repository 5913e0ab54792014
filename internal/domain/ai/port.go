package ai

import (
	"context"
	"encoding/json"

	"github.com/labelly/labelly-server/internal/domain/scans"
)

// Completion is one model answer: the first choice's message content, any
// citations the provider attached, and the raw response body for archiving.
type Completion struct {
	Content   string
	Citations []string
	Raw       json.RawMessage
}

// Client is the port to the external model API.
type Client interface {
	// AnalyzeLabel runs the ingredient-safety analysis on a base64 image data URI.
	AnalyzeLabel(ctx context.Context, imageDataURI string) (*Completion, error)
	// SuggestAlternatives asks for healthier products based on a prior analysis.
	SuggestAlternatives(ctx context.Context, analysis scans.AnalysisResult) (*Completion, error)
}
