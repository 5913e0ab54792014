package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	domain "github.com/labelly/labelly-server/internal/domain/alternatives"
)

type AlternativesRepository struct{ db *sql.DB }

func NewAlternativesRepository(db *sql.DB) *AlternativesRepository {
	return &AlternativesRepository{db: db}
}

// Save appends one alternatives request record.
func (r *AlternativesRepository) Save(ctx context.Context, a *domain.Request) error {
	const q = `
INSERT INTO alternatives_requests
  (id, user_id, product_name, alternatives, original_analysis, created_at)
VALUES (?,?,?,?,?,?);`

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		a.ID, a.UserID, a.ProductName,
		jsonOrEmpty(a.Alternatives), jsonOrEmpty(a.SourceAnalysis), createdAt,
	)
	return err
}

// ListByUser returns every alternatives request for one user, newest first.
func (r *AlternativesRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Request, error) {
	const q = `
SELECT id, user_id, product_name, alternatives, original_analysis, created_at
FROM alternatives_requests
WHERE user_id=?
ORDER BY created_at DESC, id DESC;`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Request
	for rows.Next() {
		var a domain.Request
		var alts, src []byte
		if err := rows.Scan(&a.ID, &a.UserID, &a.ProductName, &alts, &src, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Alternatives = json.RawMessage(alts)
		a.SourceAnalysis = json.RawMessage(src)
		out = append(out, &a)
	}
	return out, rows.Err()
}

// jsonOrEmpty keeps the stored payload valid JSON even when empty
func jsonOrEmpty(b json.RawMessage) string {
	if len(b) == 0 || strings.TrimSpace(string(b)) == "" {
		return "{}"
	}
	return string(b)
}
