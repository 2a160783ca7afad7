// Package router is the gateway core: it resolves each request to a
// provider and model, invokes the provider, and applies the single-level
// fallback policy when the first attempt fails.
package router

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nocturne-ai/aria/internal/capability"
	"github.com/nocturne-ai/aria/internal/config"
	"github.com/nocturne-ai/aria/internal/interaction"
	"github.com/nocturne-ai/aria/internal/memory"
	"github.com/nocturne-ai/aria/internal/provider"
	"github.com/nocturne-ai/aria/internal/selector"
	"github.com/nocturne-ai/aria/pkg/api"
)

const defaultProviderTimeout = 60 * time.Second

// Router routes requests across the registered providers. The registry is
// fixed at construction; reconfiguration means building a new Router.
type Router struct {
	providers []provider.Provider
	sel       *selector.Selector
	recorder  interaction.Recorder
	memory    *memory.Service
	timeout   time.Duration
	logger    *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// BuildProviders instantiates providers from configuration through the
// factory table. Disabled entries are skipped without instantiation. An
// unknown provider type or capability key is logged and skipped; it never
// prevents startup.
func BuildProviders(cfgs []config.ProviderConfig, logger *zap.Logger) []provider.Provider {
	var providers []provider.Provider
	seen := make(map[string]bool, len(cfgs))
	for _, cfg := range cfgs {
		if !cfg.Enabled {
			logger.Info("Provider disabled, skipping", zap.String("provider", cfg.Name))
			continue
		}

		// Names key fallback exclusion and log attribution; a duplicate
		// would make both ambiguous.
		if seen[cfg.Name] {
			logger.Warn("Duplicate provider name, skipping",
				zap.String("provider", cfg.Name),
				zap.String("type", cfg.Type),
			)
			continue
		}
		seen[cfg.Name] = true

		factory, err := provider.Get(cfg.Type)
		if err != nil {
			logger.Warn("Unknown provider type, skipping",
				zap.String("provider", cfg.Name),
				zap.String("type", cfg.Type),
			)
			continue
		}

		if _, unknown := capability.NewSet(cfg.Models); len(unknown) > 0 {
			logger.Warn("Ignoring unknown capabilities in provider config",
				zap.String("provider", cfg.Name),
				zap.Strings("capabilities", unknown),
			)
		}

		p, err := factory(cfg)
		if err != nil {
			logger.Warn("Failed to construct provider, skipping",
				zap.String("provider", cfg.Name),
				zap.Error(err),
			)
			continue
		}

		logger.Info("Registered provider",
			zap.String("provider", p.Name()),
			zap.String("type", p.Type()),
			zap.Float64("weight", p.Weight()),
		)
		providers = append(providers, p)
	}
	return providers
}

// New assembles a Router over an already-built provider set. mem may be
// nil to disable per-user personalization.
func New(providers []provider.Provider, rec interaction.Recorder, mem *memory.Service, timeout time.Duration, logger *zap.Logger) *Router {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &Router{
		providers: providers,
		sel:       selector.New(providers),
		recorder:  rec,
		memory:    mem,
		timeout:   timeout,
		logger:    logger,
	}
}

// Chat routes a conversation to a chat-capable provider. When a user is
// known, their persona and recent exchanges are folded into the system
// message, and the completed exchange is remembered.
func (r *Router) Chat(ctx context.Context, userID string, messages []api.ChatMessage, opts api.Options) *api.Response {
	if r.memory != nil {
		messages = r.memory.Personalize(ctx, userID, messages)
	}

	resp := r.run(ctx, capability.Chat, userID, messages, opts,
		func(ctx context.Context, p provider.Provider, model string) *api.Response {
			return p.Chat(ctx, messages, model, opts)
		})

	if resp.Success && r.memory != nil {
		if data, ok := resp.Data.(map[string]any); ok {
			content, _ := data["content"].(string)
			r.memory.Remember(ctx, userID, messages, content, resp.Provider, resp.Model)
		}
	}
	return resp
}

// Draw routes an image generation request.
func (r *Router) Draw(ctx context.Context, userID, prompt string, opts api.Options) *api.Response {
	return r.run(ctx, capability.Draw, userID, prompt, opts,
		func(ctx context.Context, p provider.Provider, model string) *api.Response {
			return p.Draw(ctx, prompt, model, opts)
		})
}

// Speak routes a text-to-speech request.
func (r *Router) Speak(ctx context.Context, userID, text string, opts api.Options) *api.Response {
	return r.run(ctx, capability.Speak, userID, text, opts,
		func(ctx context.Context, p provider.Provider, model string) *api.Response {
			return p.Speak(ctx, text, model, opts.Voice, opts)
		})
}

// Health reports the registry as configured. It inspects no network state
// and is safe to call at any frequency.
func (r *Router) Health() api.Health {
	h := api.Health{
		Status:       "ok",
		Providers:    make(map[string]api.ProviderHealth, len(r.providers)),
		Capabilities: make(map[string][]string),
	}
	for _, c := range capability.All() {
		h.Capabilities[c.String()] = []string{}
	}
	for _, p := range r.providers {
		caps := make([]string, 0, len(p.Capabilities()))
		for _, c := range p.Capabilities() {
			caps = append(caps, c.String())
			h.Capabilities[c.String()] = append(h.Capabilities[c.String()], p.Name())
		}
		h.Providers[p.Name()] = api.ProviderHealth{Enabled: true, Capabilities: caps}
	}
	return h
}

// Close releases every provider. Subsequent calls return the first result.
func (r *Router) Close() error {
	r.closeOnce.Do(func() {
		for _, p := range r.providers {
			if err := p.Close(); err != nil {
				r.logger.Warn("Provider close failed",
					zap.String("provider", p.Name()),
					zap.Error(err),
				)
				if r.closeErr == nil {
					r.closeErr = err
				}
			}
		}
	})
	return r.closeErr
}

type invokeFunc func(ctx context.Context, p provider.Provider, model string) *api.Response

// run executes the select/invoke/fallback cycle for one request. At most
// two providers are ever invoked. A pinned provider or model disables
// fallback: the caller asked for a specific target and gets that target's
// outcome.
func (r *Router) run(ctx context.Context, c capability.Capability, userID string, payload any, opts api.Options, invoke invokeFunc) *api.Response {
	endpoint := c.Endpoint()

	sel, err := r.sel.Select(c, opts, nil)
	if err != nil {
		r.recordError(userID, endpoint, err.Error(), nil)
		return api.Failure(opts.Provider, opts.Model, err.Error())
	}

	resp, elapsed := r.invoke(ctx, sel, invoke)
	if resp.Success {
		r.recordSuccess(userID, endpoint, resp, payload, elapsed)
		return resp
	}

	r.logger.Warn("Provider invocation failed",
		zap.String("provider", sel.Provider.Name()),
		zap.String("model", sel.Model),
		zap.String("capability", c.String()),
		zap.String("error", resp.Error),
	)
	r.recordError(userID, endpoint, resp.Error, map[string]any{
		"provider": sel.Provider.Name(),
		"model":    sel.Model,
	})

	if opts.Pinned() {
		return resp
	}

	exclude := map[string]bool{sel.Provider.Name(): true}
	fallback, err := r.sel.Select(c, opts, exclude)
	if err != nil {
		// Nothing left to fall back to; the first failure stands.
		return resp
	}

	r.logger.Info("Falling back",
		zap.String("from", sel.Provider.Name()),
		zap.String("to", fallback.Provider.Name()),
		zap.String("capability", c.String()),
	)

	resp2, elapsed2 := r.invoke(ctx, fallback, invoke)
	if resp2.Success {
		r.recordSuccess(userID, endpoint, resp2, payload, elapsed2)
	} else {
		r.recordError(userID, endpoint, resp2.Error, map[string]any{
			"provider": fallback.Provider.Name(),
			"model":    fallback.Model,
			"fallback": true,
		})
	}
	return resp2
}

func (r *Router) invoke(ctx context.Context, sel selector.Selection, invoke invokeFunc) (*api.Response, time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp := invoke(ctx, sel.Provider, sel.Model)
	elapsed := time.Since(start)

	if resp == nil {
		resp = api.Failure(sel.Provider.Name(), sel.Model, "provider returned no response")
	}
	return resp, elapsed
}

func (r *Router) recordSuccess(userID, endpoint string, resp *api.Response, payload any, elapsed time.Duration) {
	if r.recorder == nil {
		return
	}
	r.recorder.Success(&interaction.Record{
		UserID:     userID,
		Endpoint:   endpoint,
		Provider:   resp.Provider,
		Model:      resp.Model,
		DurationMS: elapsed.Milliseconds(),
		Request:    payload,
		Response:   resp.Data,
	})
}

func (r *Router) recordError(userID, endpoint, msg string, details map[string]any) {
	if r.recorder == nil {
		return
	}
	r.recorder.Error(&interaction.ErrorRecord{
		UserID:   userID,
		Endpoint: endpoint,
		Error:    msg,
		Details:  details,
	})
}
