package openrouter

import "encoding/json"

// modelsResponse is the wire shape of GET /models.
type modelsResponse struct {
	Data []modelDescriptor `json:"data"`
}

// modelDescriptor is one raw catalog entry. Only the consumed fields are
// mapped; the rest of the payload is ignored.
type modelDescriptor struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	ContextLength int           `json:"context_length"`
	Architecture  *architecture `json:"architecture"`
	Pricing       *pricing      `json:"pricing"`
}

type architecture struct {
	Modality string `json:"modality"`
}

// pricing carries per-token prices as decimal strings.
type pricing struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
	Image      string `json:"image"`
}

// chatWireRequest is the body of POST /chat/completions.
type chatWireRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	TopK        int           `json:"top_k"`
	MaxTokens   int           `json:"max_tokens"`
	Usage       usageInclude  `json:"usage"`
	Reasoning   *reasoningOpt `json:"reasoning,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type usageInclude struct {
	Include bool `json:"include"`
}

type reasoningOpt struct {
	Enabled bool `json:"enabled"`
}

// chatWireResponse is the consumed subset of the completion response.
type chatWireResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   *Usage       `json:"usage"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

// Usage is the provider-reported accounting payload for one request. Any
// field may be absent. Monetary fields stay raw here: exact decimal parsing
// happens in the usage package so cost never passes through a float64.
type Usage struct {
	PromptTokens     int             `json:"prompt_tokens"`
	CompletionTokens int             `json:"completion_tokens"`
	TotalTokens      int             `json:"total_tokens"`
	Cost             json.RawMessage `json:"cost"`
	CostDetails      *CostDetails    `json:"cost_details"`
}

// CostDetails splits the charge into upstream prompt/completion components.
type CostDetails struct {
	PromptCost     json.RawMessage `json:"upstream_inference_prompt_cost"`
	CompletionCost json.RawMessage `json:"upstream_inference_completions_cost"`
}

// keyResponse is the wire shape of GET /key and /auth/key.
type keyResponse struct {
	Data keyData `json:"data"`
}

// keyData reports credit limit and spend. Limit is null for keys without a
// hard cap.
type keyData struct {
	Limit *json.Number `json:"limit"`
	Usage json.Number  `json:"usage"`
}
