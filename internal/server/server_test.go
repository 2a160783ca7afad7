package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nocturne-ai/aria/internal/capability"
	"github.com/nocturne-ai/aria/internal/config"
	"github.com/nocturne-ai/aria/internal/provider"
	"github.com/nocturne-ai/aria/internal/router"
	"github.com/nocturne-ai/aria/pkg/api"
)

type stubProvider struct {
	provider.Base
}

func (s *stubProvider) Type() string { return "stub" }
func (s *stubProvider) Close() error { return nil }

func (s *stubProvider) Chat(ctx context.Context, messages []api.ChatMessage, model string, opts api.Options) *api.Response {
	return &api.Response{
		Success:  true,
		Provider: s.Name(),
		Model:    model,
		Data:     map[string]any{"content": "stubbed"},
	}
}

func (s *stubProvider) Draw(ctx context.Context, prompt, model string, opts api.Options) *api.Response {
	return s.Unsupported(capability.Draw, model)
}

func (s *stubProvider) Speak(ctx context.Context, text, model, voice string, opts api.Options) *api.Response {
	return s.Unsupported(capability.Speak, model)
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	base, _ := provider.NewBase(config.ProviderConfig{
		Name:   "stub",
		Weight: 1,
		Models: map[string][]capability.ModelSpec{
			"chat": {{Name: "stub-1", Weight: 1}},
		},
	})
	stub := &stubProvider{Base: base}

	r := router.New([]provider.Provider{stub}, nil, nil, time.Second, zap.NewNop())
	t.Cleanup(func() { r.Close() })

	return New(cfg, zap.NewNop(), r, nil, nil)
}

func doJSON(t *testing.T, s *Server, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, &config.Config{})

	w := doJSON(t, s, http.MethodGet, "/health", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var health api.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Contains(t, health.Providers, "stub")
}

func TestChatEndpoint(t *testing.T) {
	s := newTestServer(t, &config.Config{})

	w := doJSON(t, s, http.MethodPost, "/v1/chat", api.ChatRequest{
		Messages: []api.ChatMessage{{Role: "user", Content: "hello"}},
	}, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "stub", resp.Provider)
	assert.Equal(t, "stub-1", resp.Model)
}

func TestChatEndpoint_ValidationFailure(t *testing.T) {
	s := newTestServer(t, &config.Config{})

	w := doJSON(t, s, http.MethodPost, "/v1/chat", api.ChatRequest{
		Messages: []api.ChatMessage{{Role: "wizard", Content: "hello"}},
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "must be one of")
}

func TestDrawEndpoint_NoProvider(t *testing.T) {
	s := newTestServer(t, &config.Config{})

	w := doJSON(t, s, http.MethodPost, "/v1/draw", api.DrawRequest{
		Prompt: "a lighthouse",
	}, nil)

	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp api.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "no provider available")
}

func TestAuth_RequiredWhenKeysConfigured(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.APIKeys = []string{"sk-test"}
	s := newTestServer(t, cfg)

	body := api.ChatRequest{Messages: []api.ChatMessage{{Role: "user", Content: "hi"}}}

	w := doJSON(t, s, http.MethodPost, "/v1/chat", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodPost, "/v1/chat", body, map[string]string{
		"Authorization": "Bearer wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, s, http.MethodPost, "/v1/chat", body, map[string]string{
		"Authorization": "Bearer sk-test",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth_PublicWithoutAuth(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.APIKeys = []string{"sk-test"}
	s := newTestServer(t, cfg)

	w := doJSON(t, s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
