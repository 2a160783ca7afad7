package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nocturne-ai/aria/internal/capability"
	"github.com/nocturne-ai/aria/internal/config"
	"github.com/nocturne-ai/aria/internal/httpclient"
	"github.com/nocturne-ai/aria/internal/provider"
	"github.com/nocturne-ai/aria/pkg/api"
)

func init() {
	provider.Register("anthropic", NewAdapter)
}

type Adapter struct {
	provider.Base
	config config.ProviderConfig
	client *http.Client
}

func NewAdapter(cfg config.ProviderConfig) (provider.Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com/v1"
	}

	base, _ := provider.NewBase(cfg)

	return &Adapter{
		Base:   base,
		config: cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (a *Adapter) Type() string { return "anthropic" }

func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

func (a *Adapter) headers() map[string]string {
	version := a.config.Extra["version"]
	if version == "" {
		version = "2023-06-01"
	}
	return map[string]string{
		"x-api-key":         a.config.APIKey,
		"anthropic-version": version,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	System    string    `json:"system,omitempty"`
	MaxTokens int       `json:"max_tokens"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type response struct {
	ID         string         `json:"id"`
	Content    []contentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type upstreamErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorMessage(err error) string {
	var upstreamErr *httpclient.UpstreamError
	if !errors.As(err, &upstreamErr) {
		return err.Error()
	}

	var apiErr upstreamErrorResponse
	if jsonErr := json.Unmarshal(upstreamErr.Body, &apiErr); jsonErr == nil && apiErr.Error.Message != "" {
		return fmt.Sprintf("upstream error (%d): %s", upstreamErr.StatusCode, apiErr.Error.Message)
	}

	return upstreamErr.Error()
}

// toAnthropicReq folds system turns into the top-level system field; the
// messages API rejects role "system" entries.
func toAnthropicReq(messages []api.ChatMessage, model string, opts api.Options) request {
	req := request{
		Model:     model,
		MaxTokens: opts.MaxTokens,
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = 4096
	}

	var system []string
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		req.Messages = append(req.Messages, message{Role: m.Role, Content: m.Content})
	}
	req.System = strings.Join(system, "\n")

	return req
}

func (a *Adapter) Chat(ctx context.Context, messages []api.ChatMessage, model string, opts api.Options) *api.Response {
	if !a.Supports(capability.Chat) {
		return a.Unsupported(capability.Chat, model)
	}

	url := strings.TrimRight(a.config.BaseURL, "/") + "/messages"

	var resp response
	if err := httpclient.SendRequest(ctx, a.client, "POST", url, a.headers(), toAnthropicReq(messages, model, opts), &resp); err != nil {
		return api.Failure(a.Name(), model, errorMessage(err))
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &api.Response{
		Success:  true,
		Provider: a.Name(),
		Model:    model,
		Data: map[string]any{
			"content":       text.String(),
			"role":          "assistant",
			"finish_reason": resp.StopReason,
		},
		Usage: &api.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
}

func (a *Adapter) Draw(ctx context.Context, prompt, model string, opts api.Options) *api.Response {
	return a.Unsupported(capability.Draw, model)
}

func (a *Adapter) Speak(ctx context.Context, text, model, voice string, opts api.Options) *api.Response {
	return a.Unsupported(capability.Speak, model)
}
