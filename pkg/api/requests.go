package api

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=system user assistant"`
	Content string `json:"content" binding:"required"`
	Name    string `json:"name,omitempty"`
}

// ChatRequest is the inbound payload for chat completion.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" binding:"required,min=1,dive"`

	// Optional pinned targets. When either is set the request is attempted
	// once against the named target with no fallback.
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// DrawRequest is the inbound payload for image generation.
type DrawRequest struct {
	Prompt string `json:"prompt" binding:"required"`

	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
	N       int    `json:"n,omitempty"`
}

// SpeakRequest is the inbound payload for speech synthesis.
type SpeakRequest struct {
	Text string `json:"text" binding:"required"`

	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	Voice           string  `json:"voice,omitempty"`
	Stability       float64 `json:"stability,omitempty"`
	SimilarityBoost float64 `json:"similarity_boost,omitempty"`
}

// Options carries the per-request knobs the router passes through to the
// selected provider. The zero value is valid.
type Options struct {
	// Pinned targets. Validated against the registry, never silently dropped.
	Provider string
	Model    string

	Voice string

	MaxTokens   int
	Temperature float64

	Size    string
	Quality string
	N       int

	Stability       float64
	SimilarityBoost float64
}

// Pinned reports whether the caller named a specific provider or model.
func (o Options) Pinned() bool {
	return o.Provider != "" || o.Model != ""
}
