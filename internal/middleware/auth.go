package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labelly/labelly-server/internal/domain/auth"
)

type contextKey string

const userIDKey contextKey = "user_id"

// BearerAuth validates the Authorization header against the identity
// verifier and stores the resolved user id in the request context. The user
// id never comes from client-supplied data, only from a verified token.
func BearerAuth(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				writeAuthError(w, "Unauthorized")
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token == "" {
				writeAuthError(w, "Unauthorized")
				return
			}

			userID, err := verifier.Verify(r.Context(), token)
			if err != nil {
				writeAuthError(w, "Authentication error: "+err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, string(userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID extracts the verified user id from the request context
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
