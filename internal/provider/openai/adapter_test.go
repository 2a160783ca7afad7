package openai_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nocturne-ai/aria/internal/capability"
	"github.com/nocturne-ai/aria/internal/config"
	"github.com/nocturne-ai/aria/internal/provider/openai"
	"github.com/nocturne-ai/aria/pkg/api"
)

func chatDrawConfig(baseURL string) config.ProviderConfig {
	return config.ProviderConfig{
		Name:    "openai-test",
		Type:    "openai",
		Enabled: true,
		Weight:  1,
		APIKey:  "test-key",
		BaseURL: baseURL,
		Models: map[string][]capability.ModelSpec{
			"chat": {{Name: "gpt-4", Weight: 100}},
			"draw": {{Name: "dall-e-3", Weight: 100}},
		},
	}
}

func TestChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-123",
			"model": "gpt-4",
			"choices": [{
				"message": {"role": "assistant", "content": "Hello there!"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 9, "completion_tokens": 12, "total_tokens": 21}
		}`))
	}))
	defer server.Close()

	adapter, err := openai.NewAdapter(chatDrawConfig(server.URL + "/v1"))
	assert.NoError(t, err)

	resp := adapter.Chat(context.Background(), []api.ChatMessage{
		{Role: "user", Content: "Hi"},
	}, "gpt-4", api.Options{})

	assert.True(t, resp.Success)
	assert.Empty(t, resp.Error)
	assert.Equal(t, "openai-test", resp.Provider)
	assert.Equal(t, "gpt-4", resp.Model)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "Hello there!", data["content"])
	assert.Equal(t, 21, resp.Usage.TotalTokens)
}

func TestChat_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	adapter, _ := openai.NewAdapter(chatDrawConfig(server.URL + "/v1"))

	resp := adapter.Chat(context.Background(), []api.ChatMessage{
		{Role: "user", Content: "Hi"},
	}, "gpt-4", api.Options{})

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.Contains(t, resp.Error, "Incorrect API key provided")
	assert.Equal(t, "openai-test", resp.Provider)
}

func TestDraw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"created": 1700000000, "data": [{"url": "https://img.example/cat.png"}]}`))
	}))
	defer server.Close()

	adapter, _ := openai.NewAdapter(chatDrawConfig(server.URL + "/v1"))

	resp := adapter.Draw(context.Background(), "a cat", "dall-e-3", api.Options{Size: "1024x1024"})

	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	images := data["images"].([]map[string]string)
	assert.Len(t, images, 1)
	assert.Equal(t, "https://img.example/cat.png", images[0]["url"])
}

func TestSpeak_NotSupported(t *testing.T) {
	adapter, _ := openai.NewAdapter(chatDrawConfig("http://localhost:1"))

	resp := adapter.Speak(context.Background(), "hello", "tts-1", "", api.Options{})

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "not supported")
}
