// -- internal/llmclient/factory.go --
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lumiralabs/berry/api/schemas"
	"github.com/lumiralabs/berry/internal/config"
)

// NewClient is a factory function that creates an LLMClient for one model entry.
func NewClient(cfg config.LLMModelConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s]", cfg.Provider, config.ProviderGemini)
	}
}

// NewRouterFromConfig wires the tiered router from the llm configuration
// section, resolving the default fast and powerful model entries.
func NewRouterFromConfig(cfg config.LLMRouterConfig, logger *zap.Logger) (*LLMRouter, error) {
	fastCfg, ok := cfg.Models[cfg.DefaultFastModel]
	if !ok {
		return nil, fmt.Errorf("llm.models has no entry %q for the fast tier", cfg.DefaultFastModel)
	}
	powerfulCfg, ok := cfg.Models[cfg.DefaultPowerfulModel]
	if !ok {
		return nil, fmt.Errorf("llm.models has no entry %q for the powerful tier", cfg.DefaultPowerfulModel)
	}

	fast, err := NewClient(fastCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("fast tier client: %w", err)
	}
	powerful, err := NewClient(powerfulCfg, logger)
	if err != nil {
		_ = fast.Close()
		return nil, fmt.Errorf("powerful tier client: %w", err)
	}

	return NewLLMRouter(logger, fast, powerful)
}
