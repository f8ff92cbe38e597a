package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mark1-ai/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubOrchestrator struct {
	envelope *domain.ResponseEnvelope
	err      error
	models   []domain.ModelDescriptor

	lastQuery string
	lastModel string
}

func (s *stubOrchestrator) Handle(_ context.Context, query, requestedModel string) (*domain.ResponseEnvelope, error) {
	s.lastQuery = query
	s.lastModel = requestedModel
	if s.err != nil {
		return nil, s.err
	}
	return s.envelope, nil
}

func (s *stubOrchestrator) Models() []domain.ModelDescriptor { return s.models }

func okEnvelope() *domain.ResponseEnvelope {
	return &domain.ResponseEnvelope{
		Success:      true,
		Query:        "q",
		Response:     "a",
		WebResults:   []domain.SearchResult{},
		SearchSource: "duckduckgo",
		Model:        "m1",
		Fallback:     false,
		ResponseTime: 42,
		Timestamp:    "2026-01-02T03:04:05Z",
	}
}

func TestHandleSearchOK(t *testing.T) {
	stub := &stubOrchestrator{envelope: okEnvelope()}
	h := NewHandler(stub, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/search",
		strings.NewReader(`{"query":"what is Go","model":"m1"}`))
	rec := httptest.NewRecorder()

	h.handleSearch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if stub.lastQuery != "what is Go" || stub.lastModel != "m1" {
		t.Errorf("orchestrator got query=%q model=%q", stub.lastQuery, stub.lastModel)
	}

	var env domain.ResponseEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !env.Success || env.Response != "a" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestHandleSearchEnvelopeOmitsEmptyError(t *testing.T) {
	h := NewHandler(&stubOrchestrator{envelope: okEnvelope()}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/search",
		strings.NewReader(`{"query":"q"}`))
	rec := httptest.NewRecorder()
	h.handleSearch(rec, req)

	if strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("body must omit empty error field: %s", rec.Body.String())
	}
}

func TestHandleSearchMissingQuery(t *testing.T) {
	stub := &stubOrchestrator{
		err: domain.NewDomainError("Orchestrator.Handle", domain.ErrEmptyQuery, ""),
	}
	h := NewHandler(stub, testLogger())

	for _, body := range []string{`{}`, `{"query":""}`, `{"query":"  "}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.handleSearch(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
		got := strings.TrimSpace(rec.Body.String())
		if got != `{"error":"Query parameter is required"}` {
			t.Errorf("body %s: response = %s", body, got)
		}
	}
}

func TestHandleSearchMalformedBody(t *testing.T) {
	h := NewHandler(&stubOrchestrator{envelope: okEnvelope()}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	h.handleSearch(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleSearchInternalError(t *testing.T) {
	stub := &stubOrchestrator{err: context.DeadlineExceeded}
	h := NewHandler(stub, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/search",
		strings.NewReader(`{"query":"q"}`))
	rec := httptest.NewRecorder()
	h.handleSearch(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var resp failureResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Success {
		t.Error("success = true, want false")
	}
	if resp.Error != "Search failed" {
		t.Errorf("error = %q, want Search failed", resp.Error)
	}
	if resp.Details == "" {
		t.Error("details missing")
	}
}

func TestHandleSearchMethodNotAllowed(t *testing.T) {
	h := NewHandler(&stubOrchestrator{envelope: okEnvelope()}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	rec := httptest.NewRecorder()
	h.handleSearch(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleModels(t *testing.T) {
	stub := &stubOrchestrator{models: []domain.ModelDescriptor{
		{ID: "m1", Name: "Model One", Provider: "openrouter", Default: true},
		{ID: "m2", Name: "Model Two", Provider: "openrouter"},
	}}
	h := NewHandler(stub, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/models", nil)
	rec := httptest.NewRecorder()
	h.handleModels(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var models []domain.ModelDescriptor
	if err := json.Unmarshal(rec.Body.Bytes(), &models); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(models) != 2 || models[0].ID != "m1" {
		t.Errorf("models = %+v", models)
	}
}

func TestHandleHealth(t *testing.T) {
	h := NewHandler(&stubOrchestrator{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
