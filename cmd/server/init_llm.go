package main

import (
	"fmt"
	"log/slog"

	"mark1-ai/internal/adapter/llm"
	"mark1-ai/internal/infra/config"
)

// initLLM creates the provider registry and registers every configured
// provider, wrapped in a circuit breaker when enabled.
func initLLM(cfg *config.Config, log *slog.Logger) (*llm.Registry, error) {
	registry := llm.NewRegistry()

	cbCfg := cfg.LLM.CircuitBreaker
	for _, pc := range cfg.LLM.Providers {
		provider, err := createLLMProvider(pc, log)
		if err != nil {
			return nil, fmt.Errorf("llm provider %s: %w", pc.Name, err)
		}

		// Wrap with circuit breaker if enabled (per-provider).
		if cbCfg.Enabled {
			provider = llm.NewCircuitBreakerProvider(provider, cbCfg, log)
		}

		if err := registry.Register(provider); err != nil {
			return nil, fmt.Errorf("llm provider %s: %w", pc.Name, err)
		}
	}

	if cbCfg.Enabled {
		log.Info("llm circuit breaker enabled",
			"max_failures", cbCfg.MaxFailures,
			"timeout", cbCfg.Timeout,
			"interval", cbCfg.Interval,
		)
	}

	return registry, nil
}
