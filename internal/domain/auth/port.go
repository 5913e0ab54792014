package auth

import "context"

// Verifier resolves a bearer token to a user identifier.
type Verifier interface {
	Verify(ctx context.Context, token string) (UserID, error)
}

// UserID identifier type
type UserID string
