package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mark1-ai/internal/adapter/gateway"
	"mark1-ai/internal/adapter/llm"
	"mark1-ai/internal/adapter/search"
	"mark1-ai/internal/domain"
	"mark1-ai/internal/infra/config"
	"mark1-ai/internal/infra/logger"
	"mark1-ai/internal/infra/tracer"
	"mark1-ai/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// 2. Logger & Tracer
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx := context.Background()
	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(ctx)

	// 3. LLM providers and router
	registry, err := initLLM(cfg, log)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	router := llm.NewRouter(cfg.LLM, registry, log)

	// 4. Web search
	backend, err := createSearchBackend(cfg.Search, log)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	searchClient := search.NewClient(backend, cfg.Search.Timeout, log)

	// 5. Orchestrator and HTTP server
	orchestrator := usecase.NewOrchestrator(searchClient, router, cfg.Search.Limit, log)
	handler := gateway.NewHandler(orchestrator, log)
	server := gateway.NewServer(cfg.Server, handler, log)

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	log.Info("mark1 started",
		"addr", server.Addr(),
		"search_backend", backend.Name(),
		"default_model", cfg.LLM.DefaultModel,
	)

	// 6. Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}

// createSearchBackend creates the configured web search backend.
func createSearchBackend(cfg config.SearchConfig, log *slog.Logger) (search.Backend, error) {
	switch cfg.Backend {
	case "duckduckgo", "":
		return search.NewDuckDuckGoBackend(log), nil
	case "searxng":
		return search.NewSearXNGBackend(cfg.SearXNGURL, log), nil
	case "brave":
		return search.NewBraveBackend(cfg.BraveAPIKey, log), nil
	default:
		return nil, fmt.Errorf("unknown search backend: %s", cfg.Backend)
	}
}

// createLLMProvider creates an LLM provider based on the type field.
func createLLMProvider(pc config.ProviderConfig, log *slog.Logger) (domain.LLMProvider, error) {
	switch pc.Type {
	case "openai", "":
		return llm.NewOpenAIProvider(pc, log), nil
	case "anthropic":
		return llm.NewAnthropicProvider(pc, log), nil
	case "openrouter":
		return llm.NewOpenRouterProvider(pc, log), nil
	case "ollama":
		return llm.NewOllamaProvider(pc, log), nil
	case "bedrock":
		return createBedrockProvider(pc, log)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", pc.Type)
	}
}
