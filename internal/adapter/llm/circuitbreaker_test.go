package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"mark1-ai/internal/domain"
	"mark1-ai/internal/infra/config"
)

func TestCircuitBreakerPassesThrough(t *testing.T) {
	inner := &stubProvider{name: "inner", reply: "hello"}
	cb := NewCircuitBreakerProvider(inner, config.CircuitBreakerConfig{}, testLogger())

	resp, err := cb.Chat(context.Background(), domain.ChatRequest{})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Message.Content != "hello" {
		t.Errorf("Content = %q, want hello", resp.Message.Content)
	}
	if cb.Name() != "inner" {
		t.Errorf("Name() = %q, want inner", cb.Name())
	}
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	inner := &stubProvider{name: "flaky", err: errors.New("down")}
	cb := NewCircuitBreakerProvider(inner, config.CircuitBreakerConfig{
		MaxFailures: 3,
		Timeout:     time.Minute,
	}, testLogger())

	for i := 0; i < 3; i++ {
		if _, err := cb.Chat(context.Background(), domain.ChatRequest{}); err == nil {
			t.Fatalf("Chat %d: want error", i)
		}
	}

	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("State = %v, want open", cb.State())
	}

	callsBefore := inner.calls
	_, err := cb.Chat(context.Background(), domain.ChatRequest{})
	if err == nil {
		t.Fatal("Chat on open circuit: want error")
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want ErrOpenState", err)
	}
	if inner.calls != callsBefore {
		t.Error("open circuit must not reach the provider")
	}
}

func TestCircuitBreakerRecovers(t *testing.T) {
	inner := &stubProvider{name: "recovering", err: errors.New("down")}
	cb := NewCircuitBreakerProvider(inner, config.CircuitBreakerConfig{
		MaxFailures: 1,
		Timeout:     10 * time.Millisecond,
	}, testLogger())

	if _, err := cb.Chat(context.Background(), domain.ChatRequest{}); err == nil {
		t.Fatal("want error")
	}
	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("State = %v, want open", cb.State())
	}

	// Provider comes back; after the timeout the half-open probe succeeds.
	inner.err = nil
	inner.reply = "back"
	time.Sleep(20 * time.Millisecond)

	resp, err := cb.Chat(context.Background(), domain.ChatRequest{})
	if err != nil {
		t.Fatalf("Chat after recovery: %v", err)
	}
	if resp.Message.Content != "back" {
		t.Errorf("Content = %q, want back", resp.Message.Content)
	}
}
