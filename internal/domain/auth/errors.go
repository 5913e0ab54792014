package auth

import "errors"

// ErrInvalidToken indicates the identity provider rejected the bearer token
// (missing, malformed, expired, or revoked).
var ErrInvalidToken = errors.New("invalid token")
