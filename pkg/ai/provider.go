package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Turn is one provider-neutral history entry. Role uses the internal
// vocabulary ("user"/"model"); providers remap it as needed.
type Turn struct {
	Role string
	Text string
}

// Provider generates an assistant reply from bounded conversation history
// and a system prompt. All LLM backends (Gemini, Groq) implement this.
type Provider interface {
	Generate(ctx context.Context, history []Turn, systemPrompt string) (string, error)
}

// Registry resolves providers by name, with a default for unspecified hints.
type Registry struct {
	providers   map[string]Provider
	defaultName string
}

// NewRegistry builds an empty registry with the given default provider name.
func NewRegistry(defaultName string) *Registry {
	return &Registry{
		providers:   make(map[string]Provider),
		defaultName: strings.ToLower(strings.TrimSpace(defaultName)),
	}
}

// Register adds a provider under a case-insensitive name.
func (r *Registry) Register(name string, p Provider) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || p == nil {
		return
	}
	r.providers[name] = p
}

// Resolve returns the provider for a hint, falling back to the default when
// the hint is empty. An unknown hint is an error rather than a silent fallback.
func (r *Registry) Resolve(hint string) (Provider, string, error) {
	name := strings.ToLower(strings.TrimSpace(hint))
	if name == "" {
		name = r.defaultName
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, "", fmt.Errorf("unknown provider %q (have: %s)", name, strings.Join(r.Names(), ", "))
	}
	return p, name, nil
}

// Names lists registered provider names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
