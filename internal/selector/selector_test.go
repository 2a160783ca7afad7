package selector

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nocturne-ai/aria/internal/capability"
	"github.com/nocturne-ai/aria/internal/provider"
	"github.com/nocturne-ai/aria/pkg/api"
)

type fakeProvider struct {
	provider.Base
}

func (f *fakeProvider) Type() string { return "fake" }
func (f *fakeProvider) Close() error { return nil }

func (f *fakeProvider) Chat(ctx context.Context, messages []api.ChatMessage, model string, opts api.Options) *api.Response {
	return &api.Response{Success: true, Data: "ok", Provider: f.Name(), Model: model}
}

func (f *fakeProvider) Draw(ctx context.Context, prompt, model string, opts api.Options) *api.Response {
	return &api.Response{Success: true, Data: "ok", Provider: f.Name(), Model: model}
}

func (f *fakeProvider) Speak(ctx context.Context, text, model, voice string, opts api.Options) *api.Response {
	return &api.Response{Success: true, Data: "ok", Provider: f.Name(), Model: model}
}

func newFake(name string, weight float64, models map[string][]capability.ModelSpec) *fakeProvider {
	caps, _ := capability.NewSet(models)
	return &fakeProvider{Base: provider.Base{
		ProviderName:    name,
		SelectionWeight: weight,
		Caps:            caps,
	}}
}

func chatModels(specs ...capability.ModelSpec) map[string][]capability.ModelSpec {
	return map[string][]capability.ModelSpec{"chat": specs}
}

func TestSelect_NoProviderForCapability(t *testing.T) {
	s := New([]provider.Provider{
		newFake("chat-only", 1, chatModels(capability.ModelSpec{Name: "m", Weight: 1})),
	})

	_, err := s.Select(capability.Speak, api.Options{}, nil)
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestSelect_ZeroWeightModelListNeverSelectable(t *testing.T) {
	s := New([]provider.Provider{
		newFake("p", 1, chatModels(capability.ModelSpec{Name: "m", Weight: 0})),
	})

	_, err := s.Select(capability.Chat, api.Options{}, nil)
	assert.ErrorIs(t, err, ErrNoModel)
}

func TestSelect_ZeroWeightProviderNeverSelected(t *testing.T) {
	s := New([]provider.Provider{
		newFake("openai", 1, chatModels(capability.ModelSpec{Name: "gpt-4", Weight: 100})),
		newFake("claude", 0, chatModels(capability.ModelSpec{Name: "claude-3", Weight: 100})),
	})

	for i := 0; i < 10000; i++ {
		sel, err := s.Select(capability.Chat, api.Options{}, nil)
		require.NoError(t, err)
		require.Equal(t, "openai", sel.Provider.Name())
		require.Equal(t, "gpt-4", sel.Model)
	}
}

func TestSelect_UniformWhenAllWeightsZero(t *testing.T) {
	s := New([]provider.Provider{
		newFake("a", 0, chatModels(capability.ModelSpec{Name: "m", Weight: 1})),
		newFake("b", 0, chatModels(capability.ModelSpec{Name: "m", Weight: 1})),
	})

	counts := map[string]int{}
	const n = 10000
	for i := 0; i < n; i++ {
		sel, err := s.Select(capability.Chat, api.Options{}, nil)
		require.NoError(t, err)
		counts[sel.Provider.Name()]++
	}

	// Within five standard deviations of a fair coin.
	tolerance := 5 * math.Sqrt(n*0.25)
	assert.InDelta(t, n/2, counts["a"], tolerance)
	assert.InDelta(t, n/2, counts["b"], tolerance)
}

func TestSelect_ProportionalProviderWeights(t *testing.T) {
	s := New([]provider.Provider{
		newFake("heavy", 3, chatModels(capability.ModelSpec{Name: "m", Weight: 1})),
		newFake("light", 1, chatModels(capability.ModelSpec{Name: "m", Weight: 1})),
	})

	counts := map[string]int{}
	const n = 20000
	for i := 0; i < n; i++ {
		sel, err := s.Select(capability.Chat, api.Options{}, nil)
		require.NoError(t, err)
		counts[sel.Provider.Name()]++
	}

	tolerance := 5 * math.Sqrt(n*0.75*0.25)
	assert.InDelta(t, n*3/4, counts["heavy"], tolerance)
	assert.InDelta(t, n/4, counts["light"], tolerance)
}

func TestSelect_ProportionalModelWeights(t *testing.T) {
	s := New([]provider.Provider{
		newFake("p", 1, chatModels(
			capability.ModelSpec{Name: "often", Weight: 90},
			capability.ModelSpec{Name: "rarely", Weight: 10},
			capability.ModelSpec{Name: "never", Weight: 0},
		)),
	})

	counts := map[string]int{}
	const n = 20000
	for i := 0; i < n; i++ {
		sel, err := s.Select(capability.Chat, api.Options{}, nil)
		require.NoError(t, err)
		counts[sel.Model]++
	}

	assert.Zero(t, counts["never"])
	tolerance := 5 * math.Sqrt(n*0.9*0.1)
	assert.InDelta(t, n*9/10, counts["often"], tolerance)
	assert.InDelta(t, n/10, counts["rarely"], tolerance)
}

func TestSelect_PinnedProvider(t *testing.T) {
	s := New([]provider.Provider{
		newFake("a", 100, chatModels(capability.ModelSpec{Name: "m-a", Weight: 1})),
		newFake("b", 0, chatModels(capability.ModelSpec{Name: "m-b", Weight: 1})),
	})

	sel, err := s.Select(capability.Chat, api.Options{Provider: "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "b", sel.Provider.Name())
	assert.Equal(t, "m-b", sel.Model)
}

func TestSelect_PinnedProviderUnknown(t *testing.T) {
	s := New([]provider.Provider{
		newFake("a", 1, chatModels(capability.ModelSpec{Name: "m", Weight: 1})),
	})

	_, err := s.Select(capability.Chat, api.Options{Provider: "ghost"}, nil)
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestSelect_PinnedModel(t *testing.T) {
	s := New([]provider.Provider{
		newFake("a", 1, chatModels(capability.ModelSpec{Name: "shared", Weight: 1})),
		newFake("b", 1, chatModels(capability.ModelSpec{Name: "exclusive", Weight: 1})),
	})

	for i := 0; i < 100; i++ {
		sel, err := s.Select(capability.Chat, api.Options{Model: "exclusive"}, nil)
		require.NoError(t, err)
		require.Equal(t, "b", sel.Provider.Name())
		require.Equal(t, "exclusive", sel.Model)
	}
}

func TestSelect_PinnedModelZeroWeightStillSelectable(t *testing.T) {
	// Weight 0 means never drawn, but an explicit override may still name it.
	s := New([]provider.Provider{
		newFake("p", 1, chatModels(
			capability.ModelSpec{Name: "main", Weight: 100},
			capability.ModelSpec{Name: "shadow", Weight: 0},
		)),
	})

	sel, err := s.Select(capability.Chat, api.Options{Model: "shadow"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "shadow", sel.Model)
}

func TestSelect_PinnedModelUnknown(t *testing.T) {
	s := New([]provider.Provider{
		newFake("a", 1, chatModels(capability.ModelSpec{Name: "m", Weight: 1})),
	})

	_, err := s.Select(capability.Chat, api.Options{Model: "ghost"}, nil)
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestSelect_PinnedProviderWithoutPinnedModel(t *testing.T) {
	s := New([]provider.Provider{
		newFake("a", 1, chatModels(capability.ModelSpec{Name: "m-a", Weight: 1})),
		newFake("b", 1, chatModels(capability.ModelSpec{Name: "m-b", Weight: 1})),
	})

	// Provider "a" does not list the pinned model: selection failure.
	_, err := s.Select(capability.Chat, api.Options{Provider: "a", Model: "m-b"}, nil)
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestSelect_Exclusion(t *testing.T) {
	s := New([]provider.Provider{
		newFake("a", 1, chatModels(capability.ModelSpec{Name: "m", Weight: 1})),
		newFake("b", 1, chatModels(capability.ModelSpec{Name: "m", Weight: 1})),
	})

	for i := 0; i < 100; i++ {
		sel, err := s.Select(capability.Chat, api.Options{}, map[string]bool{"a": true})
		require.NoError(t, err)
		require.Equal(t, "b", sel.Provider.Name())
	}

	_, err := s.Select(capability.Chat, api.Options{}, map[string]bool{"a": true, "b": true})
	assert.ErrorIs(t, err, ErrNoProvider)
}
