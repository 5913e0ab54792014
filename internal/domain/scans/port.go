package scans

import "context"

// Repository port (interface for persistence)
type Repository interface {
	Save(ctx context.Context, s *Scan) error
	Get(ctx context.Context, userID string, id ScanID) (*Scan, error)
	// ListByUser returns all scans for one user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*Scan, error)
}

// ImageStore port (interface for archiving uploaded label images)
type ImageStore interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
