package api

// Usage reports whatever resource counters the vendor returned.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
	Characters       int `json:"characters,omitempty"`
}

// Response is the uniform envelope every provider operation resolves to.
// Invariant: Success implies Error == "" and Data != nil; failure implies
// Data == nil.
type Response struct {
	Success  bool   `json:"success"`
	Data     any    `json:"data,omitempty"`
	Error    string `json:"error,omitempty"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Usage    *Usage `json:"usage,omitempty"`
}

// Failure builds a failed envelope attributed to the given provider/model.
// Either may be empty when selection never reached a provider.
func Failure(provider, model, msg string) *Response {
	return &Response{
		Success:  false,
		Error:    msg,
		Provider: provider,
		Model:    model,
	}
}

// ProviderHealth describes one registered provider in the health report.
type ProviderHealth struct {
	Enabled      bool     `json:"enabled"`
	Capabilities []string `json:"capabilities"`
}

// Health is the gateway health report.
type Health struct {
	Status       string                    `json:"status"`
	Providers    map[string]ProviderHealth `json:"providers"`
	Capabilities map[string][]string       `json:"capabilities"`
}
