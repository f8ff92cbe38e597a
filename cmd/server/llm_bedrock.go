//go:build bedrock

package main

import (
	"log/slog"

	"mark1-ai/internal/adapter/llm"
	"mark1-ai/internal/domain"
	"mark1-ai/internal/infra/config"
)

func createBedrockProvider(pc config.ProviderConfig, log *slog.Logger) (domain.LLMProvider, error) {
	return llm.NewBedrockProvider(pc, log)
}
