package alternatives

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labelly/labelly-server/internal/application"
	"github.com/labelly/labelly-server/internal/domain/ai"
	domain "github.com/labelly/labelly-server/internal/domain/alternatives"
	"github.com/labelly/labelly-server/internal/domain/scans"
)

// Service implements the healthier-alternatives use-case: a second model call
// chained off a previously returned analysis.
type Service struct {
	Repo  domain.Repository
	AI    ai.Client
	Clock application.Clock
	Log   *zap.Logger
}

// Suggest asks the model for alternative products, parses the (possibly
// fenced) JSON answer and appends one request record. Parse failures are
// logged with the raw payload for offline diagnosis and are never retried
// or repaired; nothing is persisted on any failure path.
func (s *Service) Suggest(ctx context.Context, userID string, analysis scans.AnalysisResult, source json.RawMessage) (*domain.Result, []string, error) {
	completion, err := s.AI.SuggestAlternatives(ctx, analysis)
	if err != nil {
		return nil, nil, err
	}

	payload, err := ai.ExtractJSON(completion.Content)
	if err != nil {
		s.Log.Error("alternatives response is not valid JSON",
			zap.String("user_id", userID),
			zap.String("raw_content", completion.Content),
		)
		return nil, nil, err
	}

	var result domain.Result
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		s.Log.Error("alternatives response has unexpected JSON shape",
			zap.String("user_id", userID),
			zap.String("raw_content", completion.Content),
		)
		return nil, nil, fmt.Errorf("%w: %v", ai.ErrNotJSON, err)
	}

	req := &domain.Request{
		ID:             domain.RequestID(uuid.New().String()),
		UserID:         userID,
		ProductName:    analysis.ProductName,
		Alternatives:   json.RawMessage(payload),
		SourceAnalysis: source,
		CreatedAt:      s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, req); err != nil {
		return nil, nil, fmt.Errorf("save alternatives request: %w", err)
	}

	s.Log.Info("alternatives recorded",
		zap.String("request_id", string(req.ID)),
		zap.String("user_id", userID),
		zap.Int("count", len(result.Alternatives)),
	)
	return &result, completion.Citations, nil
}
