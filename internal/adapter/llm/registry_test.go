package llm

import (
	"errors"
	"testing"

	"mark1-ai/internal/domain"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	p := &stubProvider{name: "openrouter"}

	if err := reg.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := reg.Get("openrouter")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name() != "openrouter" {
		t.Errorf("Name() = %q, want openrouter", got.Name())
	}
}

func TestRegistryRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&stubProvider{name: "dup"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(&stubProvider{name: "dup"}); err == nil {
		t.Error("Register(dup) = nil, want error")
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Get("nope")
	if err == nil {
		t.Fatal("Get(nope) = nil, want error")
	}
	if !errors.Is(err, domain.ErrProviderNotFound) {
		t.Errorf("error = %v, want ErrProviderNotFound", err)
	}
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubProvider{name: "a"})
	reg.Register(&stubProvider{name: "b"})

	names := reg.List()
	if len(names) != 2 {
		t.Fatalf("len(List()) = %d, want 2", len(names))
	}
}
