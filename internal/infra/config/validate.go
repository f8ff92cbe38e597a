package config

import (
	"fmt"
	"strings"
)

var validSearchBackends = map[string]bool{
	"duckduckgo": true,
	"searxng":    true,
	"brave":      true,
}

var validProviderTypes = map[string]bool{
	"openai":     true,
	"openrouter": true,
	"anthropic":  true,
	"ollama":     true,
	"bedrock":    true,
}

// Validate checks cross-field consistency of the loaded configuration.
func Validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}

	if len(cfg.LLM.Providers) == 0 {
		return fmt.Errorf("llm.providers must list at least one provider")
	}
	providerNames := make(map[string]bool, len(cfg.LLM.Providers))
	for i, pc := range cfg.LLM.Providers {
		if pc.Name == "" {
			return fmt.Errorf("llm.providers[%d]: name must not be empty", i)
		}
		if providerNames[pc.Name] {
			return fmt.Errorf("llm.providers: duplicate name %q", pc.Name)
		}
		providerNames[pc.Name] = true
		if pc.Type != "" && !validProviderTypes[pc.Type] {
			return fmt.Errorf("llm.providers[%d]: unknown type %q", i, pc.Type)
		}
	}

	if len(cfg.LLM.Models) == 0 {
		return fmt.Errorf("llm.models must list at least one model")
	}
	modelIDs := make(map[string]bool, len(cfg.LLM.Models))
	for i, mc := range cfg.LLM.Models {
		if mc.ID == "" {
			return fmt.Errorf("llm.models[%d]: id must not be empty", i)
		}
		if modelIDs[mc.ID] {
			return fmt.Errorf("llm.models: duplicate id %q", mc.ID)
		}
		modelIDs[mc.ID] = true
		if !providerNames[mc.Provider] {
			return fmt.Errorf("llm.models[%d]: provider %q not configured", i, mc.Provider)
		}
	}

	if cfg.LLM.DefaultModel == "" {
		return fmt.Errorf("llm.default_model must not be empty")
	}
	if !modelIDs[cfg.LLM.DefaultModel] {
		return fmt.Errorf("llm.default_model %q not in llm.models", cfg.LLM.DefaultModel)
	}
	if cfg.LLM.FallbackModel != "" && !modelIDs[cfg.LLM.FallbackModel] {
		return fmt.Errorf("llm.fallback_model %q not in llm.models", cfg.LLM.FallbackModel)
	}
	if cfg.LLM.PowerModel != "" && !modelIDs[cfg.LLM.PowerModel] {
		return fmt.Errorf("llm.power_model %q not in llm.models", cfg.LLM.PowerModel)
	}
	if cfg.LLM.CompletionTimeout <= 0 {
		return fmt.Errorf("llm.completion_timeout must be positive")
	}

	backend := strings.ToLower(cfg.Search.Backend)
	if !validSearchBackends[backend] {
		return fmt.Errorf("search.backend %q not supported (want duckduckgo, searxng, or brave)", cfg.Search.Backend)
	}
	if backend == "searxng" && cfg.Search.SearXNGURL == "" {
		return fmt.Errorf("search.searxng_url required for the searxng backend")
	}
	if backend == "brave" && cfg.Search.BraveAPIKey == "" {
		return fmt.Errorf("search.brave_api_key required for the brave backend")
	}
	if cfg.Search.Limit <= 0 {
		return fmt.Errorf("search.limit must be positive")
	}
	if cfg.Search.Timeout <= 0 {
		return fmt.Errorf("search.timeout must be positive")
	}

	if cfg.Server.RateLimit.Enabled {
		if cfg.Server.RateLimit.RequestsPerMin <= 0 {
			return fmt.Errorf("server.rate_limit.requests_per_min must be positive")
		}
		if cfg.Server.RateLimit.Burst <= 0 {
			return fmt.Errorf("server.rate_limit.burst must be positive")
		}
	}

	return nil
}
