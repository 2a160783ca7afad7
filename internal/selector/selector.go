// Package selector implements the two-stage weighted random draw that picks
// a provider, then a model, for a requested capability.
//
// Selection is memoryless: no state is carried between calls and no failure
// or latency history influences the draw. Weighted sampling uses cumulative
// weights with a binary search rather than expanding entries weight-times
// into a slice; the observable distribution is identical.
package selector

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/nocturne-ai/aria/internal/capability"
	"github.com/nocturne-ai/aria/internal/provider"
	"github.com/nocturne-ai/aria/pkg/api"
)

var (
	// ErrNoProvider means no enabled provider can serve the capability. A
	// normal outcome, not a fault.
	ErrNoProvider = errors.New("no provider available")

	// ErrNoModel means the chosen provider lists no selectable model for
	// the capability.
	ErrNoModel = errors.New("no model available for capability")
)

// Selection is the outcome of one draw.
type Selection struct {
	Provider provider.Provider
	Model    string
}

// Selector draws over an immutable provider registry snapshot.
type Selector struct {
	providers []provider.Provider
}

func New(providers []provider.Provider) *Selector {
	return &Selector{providers: providers}
}

// Eligible returns the providers supporting the capability, minus the
// excluded names. Order follows the registry snapshot; the weighted draw
// makes ordering irrelevant to outcomes.
func (s *Selector) Eligible(c capability.Capability, exclude map[string]bool) []provider.Provider {
	var out []provider.Provider
	for _, p := range s.providers {
		if exclude[p.Name()] {
			continue
		}
		if p.Supports(c) {
			out = append(out, p)
		}
	}
	return out
}

// Select picks a provider and model for the capability. A pinned provider
// or model in opts skips the random draw for that stage but is still
// validated against capability and enablement; a misnamed override is a
// selection failure, never a silent fallback. exclude names providers
// ineligible for this draw (used for fallback re-selection).
func (s *Selector) Select(c capability.Capability, opts api.Options, exclude map[string]bool) (Selection, error) {
	eligible := s.Eligible(c, exclude)

	// A pinned model narrows the provider stage to providers that list it.
	if opts.Model != "" {
		eligible = filterByModel(eligible, c, opts.Model)
	}

	if len(eligible) == 0 {
		if opts.Model != "" {
			return Selection{}, fmt.Errorf("%w: no provider lists model %q for %s", ErrNoProvider, opts.Model, c)
		}
		return Selection{}, fmt.Errorf("%w: %s not supported by any enabled provider", ErrNoProvider, c)
	}

	var chosen provider.Provider
	if opts.Provider != "" {
		for _, p := range eligible {
			if p.Name() == opts.Provider {
				chosen = p
				break
			}
		}
		if chosen == nil {
			return Selection{}, fmt.Errorf("%w: provider %q cannot serve %s", ErrNoProvider, opts.Provider, c)
		}
	} else {
		chosen = pickProvider(eligible)
	}

	if opts.Model != "" {
		// Already validated by filterByModel (or by the pinned-provider
		// lookup below failing the filter).
		return Selection{Provider: chosen, Model: opts.Model}, nil
	}

	model, err := pickModel(chosen.ModelsFor(c))
	if err != nil {
		return Selection{}, fmt.Errorf("%w: provider %s, capability %s", err, chosen.Name(), c)
	}

	return Selection{Provider: chosen, Model: model}, nil
}

func filterByModel(providers []provider.Provider, c capability.Capability, model string) []provider.Provider {
	var out []provider.Provider
	for _, p := range providers {
		for _, spec := range p.ModelsFor(c) {
			if spec.Name == model {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// pickProvider draws proportionally to provider weights when their sum is
// nonzero, uniformly otherwise. Ties between equal weights resolve by
// uniform chance, never by registry order.
func pickProvider(candidates []provider.Provider) provider.Provider {
	cum := make([]float64, len(candidates))
	total := 0.0
	for i, p := range candidates {
		total += p.Weight()
		cum[i] = total
	}

	if total <= 0 {
		return candidates[rand.Intn(len(candidates))]
	}

	x := rand.Float64() * total
	i := sort.Search(len(cum), func(i int) bool { return cum[i] > x })
	return candidates[i]
}

// pickModel draws proportionally to the integer model weights. A list whose
// weights sum to zero is unselectable: weight 0 means listed, never chosen.
func pickModel(specs []capability.ModelSpec) (string, error) {
	if len(specs) == 0 {
		return "", ErrNoModel
	}

	cum := make([]int, len(specs))
	total := 0
	for i, spec := range specs {
		total += spec.Weight
		cum[i] = total
	}

	if total <= 0 {
		return "", ErrNoModel
	}

	x := rand.Intn(total)
	i := sort.Search(len(cum), func(i int) bool { return cum[i] > x })
	return specs[i].Name, nil
}
