package scans

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labelly/labelly-server/internal/application"
	"github.com/labelly/labelly-server/internal/domain/ai"
	domain "github.com/labelly/labelly-server/internal/domain/scans"
)

// Service implements the analyze/list/get use-cases for label scans.
// Safe for concurrent use; every request is independent.
type Service struct {
	Repo   domain.Repository
	AI     ai.Client
	Images domain.ImageStore // optional; nil disables image archiving
	Clock  application.Clock
	Log    *zap.Logger
}

// Analyze encodes the uploaded label image, runs the model analysis and
// appends one scan record for the user. Nothing is written on any failure
// path: the record is saved only after the model call fully succeeds.
func (s *Service) Analyze(ctx context.Context, userID string, image []byte) (*ai.Completion, error) {
	dataURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	completion, err := s.AI.AnalyzeLabel(ctx, dataURI)
	if err != nil {
		return nil, err
	}

	id := domain.ScanID(uuid.New().String())

	// Archiving is best-effort: a storage hiccup must not fail the scan.
	var imageURL string
	if s.Images != nil {
		key := fmt.Sprintf("%s/%s.jpg", userID, id)
		imageURL, err = s.Images.UploadBytes(ctx, key, image, "image/jpeg")
		if err != nil {
			s.Log.Warn("label image archive failed", zap.String("key", key), zap.Error(err))
			imageURL = ""
		}
	}

	scan := &domain.Scan{
		ID:        id,
		UserID:    userID,
		Result:    completion.Raw,
		ImageURL:  imageURL,
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, scan); err != nil {
		return nil, fmt.Errorf("save scan: %w", err)
	}

	s.Log.Info("scan recorded",
		zap.String("scan_id", string(id)),
		zap.String("user_id", userID),
		zap.Int("image_bytes", len(image)),
	)
	return completion, nil
}

// List returns the user's scan history, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*domain.Scan, error) {
	return s.Repo.ListByUser(ctx, userID)
}

// Get fetches one scan by id, scoped to the owning user.
func (s *Service) Get(ctx context.Context, userID string, id domain.ScanID) (*domain.Scan, error) {
	return s.Repo.Get(ctx, userID, id)
}
