package ai

import (
	"context"
	"strings"
	"testing"
)

type staticProvider struct{ reply string }

func (s staticProvider) Generate(context.Context, []Turn, string) (string, error) {
	return s.reply, nil
}

func TestRegistryResolveDefault(t *testing.T) {
	reg := NewRegistry("gemini")
	reg.Register("Gemini", staticProvider{reply: "a"})
	reg.Register("groq", staticProvider{reply: "b"})

	p, name, err := reg.Resolve("")
	if err != nil {
		t.Fatalf("resolve default: %v", err)
	}
	if name != "gemini" {
		t.Fatalf("expected default name gemini, got %q", name)
	}
	got, _ := p.Generate(context.Background(), nil, "")
	if got != "a" {
		t.Fatalf("resolved wrong provider: %q", got)
	}
}

func TestRegistryResolveCaseInsensitive(t *testing.T) {
	reg := NewRegistry("gemini")
	reg.Register("groq", staticProvider{reply: "b"})

	_, name, err := reg.Resolve("  GROQ ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if name != "groq" {
		t.Fatalf("expected groq, got %q", name)
	}
}

func TestRegistryResolveUnknown(t *testing.T) {
	reg := NewRegistry("gemini")
	reg.Register("gemini", staticProvider{})

	_, _, err := reg.Resolve("claude")
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "gemini") {
		t.Fatalf("error should list known providers: %v", err)
	}
}
