package elevenlabs

import (
	"context"
	"encoding/base64"
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
	provider.Register("elevenlabs", NewAdapter)
}

// defaultVoiceID is used when the caller does not name a voice.
const defaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

type Adapter struct {
	provider.Base
	config config.ProviderConfig
	client *http.Client
}

func NewAdapter(cfg config.ProviderConfig) (provider.Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.elevenlabs.io/v1"
	}

	base, _ := provider.NewBase(cfg)

	return &Adapter{
		Base:   base,
		config: cfg,
		// Synthesis is slow for long inputs.
		client: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (a *Adapter) Type() string { return "elevenlabs" }

func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type speakRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type upstreamErrorResponse struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}

func errorMessage(err error) string {
	var upstreamErr *httpclient.UpstreamError
	if !errors.As(err, &upstreamErr) {
		return err.Error()
	}

	var apiErr upstreamErrorResponse
	if jsonErr := json.Unmarshal(upstreamErr.Body, &apiErr); jsonErr == nil && apiErr.Detail.Message != "" {
		return fmt.Sprintf("upstream error (%d): %s", upstreamErr.StatusCode, apiErr.Detail.Message)
	}

	return upstreamErr.Error()
}

func (a *Adapter) Speak(ctx context.Context, text, model, voice string, opts api.Options) *api.Response {
	if !a.Supports(capability.Speak) {
		return a.Unsupported(capability.Speak, model)
	}

	voiceID := voice
	if voiceID == "" {
		voiceID = defaultVoiceID
	}

	req := speakRequest{
		Text:    text,
		ModelID: model,
		VoiceSettings: voiceSettings{
			Stability:       opts.Stability,
			SimilarityBoost: opts.SimilarityBoost,
		},
	}
	if req.VoiceSettings.Stability == 0 {
		req.VoiceSettings.Stability = 0.5
	}
	if req.VoiceSettings.SimilarityBoost == 0 {
		req.VoiceSettings.SimilarityBoost = 0.5
	}

	url := strings.TrimRight(a.config.BaseURL, "/") + "/text-to-speech/" + voiceID
	headers := map[string]string{
		"xi-api-key": a.config.APIKey,
		"Accept":     "audio/mpeg",
	}

	audio, err := httpclient.SendRequestRaw(ctx, a.client, "POST", url, headers, req)
	if err != nil {
		return api.Failure(a.Name(), model, errorMessage(err))
	}

	return &api.Response{
		Success:  true,
		Provider: a.Name(),
		Model:    model,
		Data: map[string]any{
			"audio_base64": base64.StdEncoding.EncodeToString(audio),
			"content_type": "audio/mpeg",
			"voice_id":     voiceID,
		},
		Usage: &api.Usage{Characters: len(text)},
	}
}

func (a *Adapter) Chat(ctx context.Context, messages []api.ChatMessage, model string, opts api.Options) *api.Response {
	return a.Unsupported(capability.Chat, model)
}

func (a *Adapter) Draw(ctx context.Context, prompt, model string, opts api.Options) *api.Response {
	return a.Unsupported(capability.Draw, model)
}
