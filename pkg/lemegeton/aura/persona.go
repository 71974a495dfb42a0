// Package aura implements the persona selection and bounded-memory
// conversation engine behind Lemegeton's auto-reply feature.
// Message flow: reentrancy guard → enabled check → trigger check →
// persona scoring → conversation build → completion → memory record → reply.
package aura

import (
	"fmt"
	"strings"
)

// DefaultPersonaKey is the catalog fallback. The registry refuses to load
// a catalog that does not contain it.
const DefaultPersonaKey = "default"

// Persona is a named response style: a fixed system prompt, the trigger
// keywords that attract it, and presentation metadata for the embed reply.
type Persona struct {
	// Key is the stable identifier used in guild locks and admin commands.
	Key string `yaml:"key"`

	// DisplayName is the human-facing name shown in persona listings.
	DisplayName string `yaml:"display_name"`

	// SystemPrompt is sent verbatim as the system message.
	SystemPrompt string `yaml:"system_prompt"`

	// Triggers are lowercase keywords matched whole-word against messages.
	Triggers []string `yaml:"triggers"`

	// Presentation metadata, opaque to the engine.
	Emoji  string `yaml:"emoji"`
	Color  int    `yaml:"color"`
	Footer string `yaml:"footer"`
	Style  string `yaml:"style"`
}

// Registry is the static persona catalog. Iteration order is the catalog
// declaration order and is significant: scoring ties break on it.
type Registry struct {
	order    []string
	personas map[string]Persona
}

// NewRegistry builds a registry from a catalog slice.
// Keys must be unique and the catalog must include the "default" persona.
func NewRegistry(catalog []Persona) (*Registry, error) {
	if len(catalog) == 0 {
		return nil, fmt.Errorf("persona catalog is empty")
	}

	r := &Registry{
		order:    make([]string, 0, len(catalog)),
		personas: make(map[string]Persona, len(catalog)),
	}

	for _, p := range catalog {
		key := strings.TrimSpace(p.Key)
		if key == "" {
			return nil, fmt.Errorf("persona with empty key (display name %q)", p.DisplayName)
		}
		if _, dup := r.personas[key]; dup {
			return nil, fmt.Errorf("duplicate persona key %q", key)
		}
		if p.SystemPrompt == "" {
			return nil, fmt.Errorf("persona %q has no system prompt", key)
		}

		// Triggers are matched against lowercased text; normalize once here.
		normalized := make([]string, 0, len(p.Triggers))
		for _, t := range p.Triggers {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				normalized = append(normalized, t)
			}
		}
		p.Key = key
		p.Triggers = normalized

		r.order = append(r.order, key)
		r.personas[key] = p
	}

	if _, ok := r.personas[DefaultPersonaKey]; !ok {
		return nil, fmt.Errorf("persona catalog must contain the %q persona", DefaultPersonaKey)
	}

	return r, nil
}

// Get returns the persona for key.
func (r *Registry) Get(key string) (Persona, bool) {
	p, ok := r.personas[key]
	return p, ok
}

// Default returns the fallback persona.
func (r *Registry) Default() Persona {
	return r.personas[DefaultPersonaKey]
}

// Keys returns persona keys in catalog order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.order))
	copy(keys, r.order)
	return keys
}

// All returns personas in catalog order.
func (r *Registry) All() []Persona {
	out := make([]Persona, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.personas[k])
	}
	return out
}

// Len returns the catalog size.
func (r *Registry) Len() int { return len(r.order) }
