package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/labelly/labelly-server/internal/domain/scans"
)

type ScanRepository struct{ db *sql.DB }

func NewScanRepository(db *sql.DB) *ScanRepository { return &ScanRepository{db: db} }

// Save appends one scan record (append-only table, fresh id per call).
func (r *ScanRepository) Save(ctx context.Context, s *domain.Scan) error {
	const q = `
INSERT INTO scans (id, user_id, analysis_result, image_url, created_at)
VALUES (?,?,?,?,?);`

	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, s.ID, s.UserID, jsonOrEmpty(s.Result), s.ImageURL, createdAt)
	return err
}

// Get fetches one scan by id, scoped to the owning user.
func (r *ScanRepository) Get(ctx context.Context, userID string, id domain.ScanID) (*domain.Scan, error) {
	const q = `
SELECT id, user_id, analysis_result, image_url, created_at
FROM scans
WHERE user_id=? AND id=?
LIMIT 1;`
	row := r.db.QueryRowContext(ctx, q, userID, id)
	var s domain.Scan
	var result []byte
	if err := row.Scan(&s.ID, &s.UserID, &result, &s.ImageURL, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Result = json.RawMessage(result)
	return &s, nil
}

// ListByUser returns every scan for one user, newest first.
func (r *ScanRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Scan, error) {
	const q = `
SELECT id, user_id, analysis_result, image_url, created_at
FROM scans
WHERE user_id=?
ORDER BY created_at DESC, id DESC;`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Scan
	for rows.Next() {
		var s domain.Scan
		var result []byte
		if err := rows.Scan(&s.ID, &s.UserID, &result, &s.ImageURL, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Result = json.RawMessage(result)
		out = append(out, &s)
	}
	return out, rows.Err()
}
