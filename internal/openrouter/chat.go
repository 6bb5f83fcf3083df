package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ChatRequest holds the parameters for one completion invocation.
type ChatRequest struct {
	Model        string
	SystemPrompt string // omitted from the wire entirely when blank
	UserPrompt   string
	Temperature  float64
	TopP         float64
	TopK         int
	MaxTokens    int
	Reasoning    bool
}

// Clamp bounds the sampling parameters to their valid ranges. Out-of-range
// values are clamped silently, never rejected.
func (r *ChatRequest) Clamp() {
	r.Temperature = clampFloat(r.Temperature, 0, 2)
	r.TopP = clampFloat(r.TopP, 0, 1)
	if r.TopK < 1 {
		r.TopK = 1
	}
	if r.MaxTokens < 1 {
		r.MaxTokens = 1
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ChatResult is the consumed portion of one completion response.
type ChatResult struct {
	Content string
	Usage   Usage
}

// Chat sends one completion request and returns the first choice's content
// plus the provider's usage accounting. One invocation is one request: no
// streaming, no automatic retry. Uses the long timeout since generation can
// legitimately take tens of seconds.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (ChatResult, error) {
	req.Clamp()

	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.UserPrompt})

	wire := chatWireRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		TopK:        req.TopK,
		MaxTokens:   req.MaxTokens,
		Usage:       usageInclude{Include: true},
	}
	if req.Reasoning {
		wire.Reasoning = &reasoningOpt{Enabled: true}
	}

	payload, err := json.Marshal(wire)
	if err != nil {
		return ChatResult{}, fmt.Errorf("openrouter: encoding request: %w", err)
	}

	body, err := c.post(ctx, "/chat/completions", payload, c.chatTimeout)
	if err != nil {
		return ChatResult{}, err
	}

	var resp chatWireResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ChatResult{}, fmt.Errorf("%w: parsing completion: %v", ErrMalformedResponse, err)
	}
	if len(resp.Choices) == 0 {
		return ChatResult{}, ErrEmptyResponse
	}

	result := ChatResult{Content: resp.Choices[0].Message.Content}
	if resp.Usage != nil {
		result.Usage = *resp.Usage
	}
	return result, nil
}
