// Package provider defines the uniform contract every vendor adapter
// implements and the registration table mapping provider types to
// constructors.
package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/nocturne-ai/aria/internal/capability"
	"github.com/nocturne-ai/aria/internal/config"
	"github.com/nocturne-ai/aria/pkg/api"
)

// Provider wraps one external AI vendor. The three operations are uniform
// across vendors regardless of declared capabilities: an undeclared
// capability yields a failed envelope, not an error. Vendor faults of any
// kind (network, status, timeout, malformed payload) collapse into the
// envelope and never propagate past this boundary.
//
// Implementations must be safe for concurrent use and must release their
// network client in Close.
type Provider interface {
	Name() string
	Type() string
	Weight() float64

	Supports(c capability.Capability) bool
	ModelsFor(c capability.Capability) []capability.ModelSpec
	Capabilities() []capability.Capability

	Chat(ctx context.Context, messages []api.ChatMessage, model string, opts api.Options) *api.Response
	Draw(ctx context.Context, prompt, model string, opts api.Options) *api.Response
	Speak(ctx context.Context, text, model, voice string, opts api.Options) *api.Response

	Close() error
}

// Base carries the per-provider state shared by every adapter: identity,
// selection weight, and the declared capability set. Adapters embed it.
type Base struct {
	ProviderName    string
	SelectionWeight float64
	Caps            capability.Set
}

// NewBase builds the shared adapter state from configuration. Unknown
// capability keys in the model mapping are returned for a startup warning.
func NewBase(cfg config.ProviderConfig) (Base, []string) {
	caps, unknown := capability.NewSet(cfg.Models)
	return Base{
		ProviderName:    cfg.Name,
		SelectionWeight: cfg.Weight,
		Caps:            caps,
	}, unknown
}

func (b Base) Name() string    { return b.ProviderName }
func (b Base) Weight() float64 { return b.SelectionWeight }

func (b Base) Supports(c capability.Capability) bool {
	return b.Caps.Supports(c)
}

func (b Base) ModelsFor(c capability.Capability) []capability.ModelSpec {
	return b.Caps.ModelsFor(c)
}

func (b Base) Capabilities() []capability.Capability {
	return b.Caps.List()
}

// Unsupported builds the negative envelope for an operation the provider
// does not declare.
func (b Base) Unsupported(c capability.Capability, model string) *api.Response {
	return api.Failure(b.ProviderName, model,
		fmt.Sprintf("%s capability not supported by %s provider", c, b.ProviderName))
}

// Factory constructs a provider from resolved configuration.
type Factory func(cfg config.ProviderConfig) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register installs a constructor for a provider type. Adapters call this
// from init; a duplicate type is a programming error.
func Register(providerType string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[providerType]; exists {
		panic(fmt.Sprintf("provider factory %s already registered", providerType))
	}
	factories[providerType] = f
}

// Get looks up the constructor for a provider type.
func Get(providerType string) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[providerType]
	if !ok {
		return nil, fmt.Errorf("provider factory not found for type: %s", providerType)
	}
	return f, nil
}
