package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/labelly/labelly-server/internal/domain/ai"
	"github.com/labelly/labelly-server/internal/domain/scans"
	"github.com/labelly/labelly-server/internal/infra/ai/prompt"
)

const maxTokens = 2048

// Client is the fallback provider for deployments without a Perplexity key.
// OpenAI chat completions carry no citations, so Citations is always empty.
type Client struct {
	*openai.Client
	Model   string
	Timeout time.Duration
}

func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = "gpt-4o"
	}
	return &Client{Client: openai.NewClient(apiKey), Model: model, Timeout: 60 * time.Second}
}

func (c *Client) AnalyzeLabel(ctx context.Context, imageDataURI string) (*ai.Completion, error) {
	req := c.newRequest()
	req.Messages = []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompt.System()},
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt.AnalyzeLabel()},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: imageDataURI}},
			},
		},
	}
	return c.complete(ctx, req)
}

func (c *Client) SuggestAlternatives(ctx context.Context, analysis scans.AnalysisResult) (*ai.Completion, error) {
	req := c.newRequest()
	req.Messages = []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompt.System()},
		{Role: openai.ChatMessageRoleUser, Content: prompt.Alternatives(analysis)},
	}
	return c.complete(ctx, req)
}

func (c *Client) newRequest() openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model: c.Model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(c.Model, "o1") || strings.HasPrefix(c.Model, "o3") || strings.HasPrefix(c.Model, "o4") || strings.HasPrefix(c.Model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}
	return req
}

func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (*ai.Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode chat completion: %w", err)
	}

	out := &ai.Completion{Raw: raw}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
	}
	return out, nil
}
