package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labelly/labelly-server/internal/domain/ai"
	"github.com/labelly/labelly-server/internal/domain/scans"
	"github.com/labelly/labelly-server/internal/infra/ai/prompt"
)

const (
	defaultEndpoint = "https://api.perplexity.ai/chat/completions"
	defaultModel    = "sonar"
	defaultTimeout  = 60 * time.Second
)

// Client talks to the Perplexity chat-completions API. go-openai cannot serve
// here: the wire contract needs web_search_options on the request and the
// citations array on the response, neither of which its types carry.
type Client struct {
	HTTPClient *http.Client
	Endpoint   string
	Model      string
	// Timeout bounds each outbound call; the model does image analysis plus
	// web search, so this is generous by default. No retry on expiry.
	Timeout           time.Duration
	SearchContextSize string

	apiKey string
}

func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = defaultModel
	}
	return &Client{
		HTTPClient:        &http.Client{},
		Endpoint:          defaultEndpoint,
		Model:             model,
		Timeout:           defaultTimeout,
		SearchContextSize: "medium",
		apiKey:            apiKey,
	}
}

type chatRequest struct {
	Model            string            `json:"model"`
	Messages         []message         `json:"messages"`
	WebSearchOptions *webSearchOptions `json:"web_search_options,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type webSearchOptions struct {
	SearchContextSize string `json:"search_context_size"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

// AnalyzeLabel sends the fixed analysis prompt together with the label image.
func (c *Client) AnalyzeLabel(ctx context.Context, imageDataURI string) (*ai.Completion, error) {
	req := chatRequest{
		Model: c.Model,
		Messages: []message{
			{Role: "system", Content: prompt.System()},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: prompt.AnalyzeLabel()},
				{Type: "image_url", ImageURL: &imageURL{URL: imageDataURI}},
			}},
		},
		WebSearchOptions: &webSearchOptions{SearchContextSize: c.SearchContextSize},
	}
	return c.complete(ctx, req)
}

// SuggestAlternatives sends the interpolated alternatives prompt.
func (c *Client) SuggestAlternatives(ctx context.Context, analysis scans.AnalysisResult) (*ai.Completion, error) {
	req := chatRequest{
		Model: c.Model,
		Messages: []message{
			{Role: "system", Content: prompt.System()},
			{Role: "user", Content: prompt.Alternatives(analysis)},
		},
		WebSearchOptions: &webSearchOptions{SearchContextSize: c.SearchContextSize},
	}
	return c.complete(ctx, req)
}

func (c *Client) complete(ctx context.Context, req chatRequest) (*ai.Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("model api request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read model api response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: %s", ai.ErrQuotaExceeded, bytes.TrimSpace(raw))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("model api status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode model api response: %w", err)
	}

	out := &ai.Completion{Citations: parsed.Citations, Raw: raw}
	if len(parsed.Choices) > 0 {
		out.Content = parsed.Choices[0].Message.Content
	}
	return out, nil
}
