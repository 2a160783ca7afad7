// Package capability enumerates the operation kinds the gateway can route.
// The set is closed: extending it is a code change, not configuration.
package capability

import "fmt"

type Capability string

const (
	Chat  Capability = "chat"
	Draw  Capability = "draw"
	Speak Capability = "speak"
)

// All lists every supported capability in declaration order.
func All() []Capability {
	return []Capability{Chat, Draw, Speak}
}

// Parse converts a configuration string into a Capability.
func Parse(s string) (Capability, error) {
	switch Capability(s) {
	case Chat, Draw, Speak:
		return Capability(s), nil
	}
	return "", fmt.Errorf("unknown capability: %q", s)
}

// Endpoint returns the logging endpoint label for the capability.
func (c Capability) Endpoint() string {
	return "/" + string(c)
}

func (c Capability) String() string {
	return string(c)
}

// ModelSpec is one weighted model entry under a (provider, capability) pair.
// Weight 0 means listed but never chosen by the weighted draw.
type ModelSpec struct {
	Name      string `json:"name" yaml:"name" mapstructure:"name" validate:"required"`
	Weight    int    `json:"weight" yaml:"weight" mapstructure:"weight" validate:"gte=0"`
	MaxTokens int    `json:"max_tokens,omitempty" yaml:"max_tokens" mapstructure:"max_tokens"`
}

// Set is an immutable capability -> weighted model list mapping, built once
// per provider at startup. Absence of a capability is represented by
// emptiness, never by an error.
type Set struct {
	models map[Capability][]ModelSpec
}

// NewSet builds a Set from the raw configuration mapping. Unknown capability
// keys are reported so the caller can surface a startup warning.
func NewSet(raw map[string][]ModelSpec) (Set, []string) {
	models := make(map[Capability][]ModelSpec, len(raw))
	var unknown []string

	for key, specs := range raw {
		cap, err := Parse(key)
		if err != nil {
			unknown = append(unknown, key)
			continue
		}
		models[cap] = append([]ModelSpec(nil), specs...)
	}

	return Set{models: models}, unknown
}

// Supports reports whether the set declares the capability with at least one
// model listed.
func (s Set) Supports(c Capability) bool {
	return len(s.models[c]) > 0
}

// ModelsFor returns the declared weighted model list for a capability. The
// returned slice is a copy; mutating it does not affect the Set.
func (s Set) ModelsFor(c Capability) []ModelSpec {
	specs := s.models[c]
	if len(specs) == 0 {
		return nil
	}
	return append([]ModelSpec(nil), specs...)
}

// List returns the declared capabilities in stable declaration order.
func (s Set) List() []Capability {
	var caps []Capability
	for _, c := range All() {
		if s.Supports(c) {
			caps = append(caps, c)
		}
	}
	return caps
}
