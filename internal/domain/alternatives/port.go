package alternatives

import "context"

// Repository port for persisting alternatives lookups
type Repository interface {
	Save(ctx context.Context, r *Request) error
	// ListByUser returns all requests for one user, newest first.
	ListByUser(ctx context.Context, userID string) ([]*Request, error)
}
