package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labelly/labelly-server/internal/domain/auth"
)

// Verifier resolves bearer tokens by calling the identity provider's
// user endpoint, the same check the original service delegated to.
type Verifier struct {
	HTTPClient *http.Client
	baseURL    string
	apiKey     string
}

func NewVerifier(baseURL, apiKey string) *Verifier {
	return &Verifier{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.UserID, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", v.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", auth.ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("identity provider status %d", resp.StatusCode)
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return "", fmt.Errorf("decode identity response: %w", err)
	}
	if user.ID == "" {
		return "", auth.ErrInvalidToken
	}
	return auth.UserID(user.ID), nil
}
