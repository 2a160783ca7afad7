package openai

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
	provider.Register("openai", NewAdapter)
}

// Adapter speaks the OpenAI wire protocol. It also serves any
// OpenAI-compatible vendor (DeepSeek, local gateways) configured with
// type "openai" and a different base_url.
type Adapter struct {
	provider.Base
	config config.ProviderConfig
	client *http.Client
}

func NewAdapter(cfg config.ProviderConfig) (provider.Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}

	base, _ := provider.NewBase(cfg)

	return &Adapter{
		Base:   base,
		config: cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (a *Adapter) Type() string { return "openai" }

func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

func (a *Adapter) headers() map[string]string {
	h := map[string]string{
		"Authorization": "Bearer " + a.config.APIKey,
	}
	if org, ok := a.config.Extra["organization"]; ok {
		h["OpenAI-Organization"] = org
	}
	return h
}

func (a *Adapter) url(path string) string {
	return strings.TrimRight(a.config.BaseURL, "/") + path
}

// upstreamErrorResponse mirrors the standard OpenAI error shape.
type upstreamErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// errorMessage flattens any upstream failure into a single message for the
// envelope.
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

type chatRequest struct {
	Model       string            `json:"model"`
	Messages    []api.ChatMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (a *Adapter) Chat(ctx context.Context, messages []api.ChatMessage, model string, opts api.Options) *api.Response {
	if !a.Supports(capability.Chat) {
		return a.Unsupported(capability.Chat, model)
	}

	req := chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	var resp chatResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", a.url("/chat/completions"), a.headers(), req, &resp); err != nil {
		return api.Failure(a.Name(), model, errorMessage(err))
	}

	if len(resp.Choices) == 0 {
		return api.Failure(a.Name(), model, "upstream returned no choices")
	}

	return &api.Response{
		Success:  true,
		Provider: a.Name(),
		Model:    model,
		Data: map[string]any{
			"content":       resp.Choices[0].Message.Content,
			"role":          resp.Choices[0].Message.Role,
			"finish_reason": resp.Choices[0].FinishReason,
		},
		Usage: &api.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
}

type imageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
	N       int    `json:"n,omitempty"`
}

type imageResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url,omitempty"`
		B64JSON       string `json:"b64_json,omitempty"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
}

func (a *Adapter) Draw(ctx context.Context, prompt, model string, opts api.Options) *api.Response {
	if !a.Supports(capability.Draw) {
		return a.Unsupported(capability.Draw, model)
	}

	req := imageRequest{
		Model:   model,
		Prompt:  prompt,
		Size:    opts.Size,
		Quality: opts.Quality,
		N:       opts.N,
	}
	if req.N == 0 {
		req.N = 1
	}

	var resp imageResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", a.url("/images/generations"), a.headers(), req, &resp); err != nil {
		return api.Failure(a.Name(), model, errorMessage(err))
	}

	if len(resp.Data) == 0 {
		return api.Failure(a.Name(), model, "upstream returned no images")
	}

	images := make([]map[string]string, 0, len(resp.Data))
	for _, d := range resp.Data {
		img := map[string]string{}
		if d.URL != "" {
			img["url"] = d.URL
		}
		if d.B64JSON != "" {
			img["b64_json"] = d.B64JSON
		}
		if d.RevisedPrompt != "" {
			img["revised_prompt"] = d.RevisedPrompt
		}
		images = append(images, img)
	}

	return &api.Response{
		Success:  true,
		Provider: a.Name(),
		Model:    model,
		Data:     map[string]any{"images": images},
	}
}

func (a *Adapter) Speak(ctx context.Context, text, model, voice string, opts api.Options) *api.Response {
	return a.Unsupported(capability.Speak, model)
}
