//go:build !bedrock

package main

import (
	"fmt"
	"log/slog"

	"mark1-ai/internal/domain"
	"mark1-ai/internal/infra/config"
)

func createBedrockProvider(_ config.ProviderConfig, _ *slog.Logger) (domain.LLMProvider, error) {
	return nil, fmt.Errorf("bedrock provider requires build with -tags bedrock")
}
