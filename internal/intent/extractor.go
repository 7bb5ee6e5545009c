// internal/intent/extractor.go
//
// Package intent turns a raw natural-language app description into a
// structured Intent with a single fast-tier model call.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lumiralabs/berry/api/schemas"
	"github.com/lumiralabs/berry/internal/llmclient"
)

const systemPrompt = `You are a senior product analyst. Extract the essential product intent from the user's app description. Respond with strict JSON only, no prose, matching this shape:
{
  "name": "short app name",
  "purpose": "one-line statement of what the app does",
  "user_roles": ["role", ...],
  "features": [{"name": "...", "priority": "Critical|High|Medium", "complexity": "Simple|Moderate|Complex"}, ...],
  "entities": [{"name": "...", "attributes": ["...", ...]}, ...],
  "auth": {"required": true, "providers": ["email"]},
  "integrations": ["...", ...],
  "constraints": ["...", ...]
}
Order user_roles and features by priority, most important first. Keep the feature list focused on what the user actually asked for.`

// Extractor produces an Intent from a raw prompt.
type Extractor struct {
	logger    *zap.Logger
	llmClient schemas.LLMClient
}

// NewExtractor creates an intent extractor.
func NewExtractor(llmClient schemas.LLMClient, logger *zap.Logger) *Extractor {
	return &Extractor{
		logger:    logger.Named("intent_extractor"),
		llmClient: llmClient,
	}
}

// Describe names the extractor's pipeline role.
func (e *Extractor) Describe() schemas.AgentRole { return schemas.RoleIntentExtraction }

// Produce implements the Agent interface; input must be the raw prompt string.
func (e *Extractor) Produce(ctx context.Context, input any) (any, error) {
	prompt, ok := input.(string)
	if !ok {
		return nil, fmt.Errorf("intent extractor expects a string prompt, got %T", input)
	}
	return e.Extract(ctx, prompt)
}

// Extract runs one fast-tier model call and decodes the structured Intent.
// The Intent is immutable once returned; only the spec compiler consumes it.
func (e *Extractor) Extract(ctx context.Context, prompt string) (*schemas.Intent, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, &schemas.ValidationError{Field: "prompt", Reason: "app description must not be empty"}
	}

	e.logger.Info("Extracting intent from prompt", zap.Int("prompt_len", len(prompt)))

	response, err := e.llmClient.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   prompt,
		Tier:         schemas.TierFast,
		Options: schemas.GenerationOptions{
			Temperature:     0.2,
			ForceJSONFormat: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("intent extraction call failed: %w", err)
	}

	var result schemas.Intent
	if err := json.Unmarshal([]byte(llmclient.CleanJSON(response)), &result); err != nil {
		return nil, &schemas.ValidationError{Field: "(intent document)", Reason: err.Error()}
	}
	if strings.TrimSpace(result.Name) == "" {
		return nil, &schemas.ValidationError{Field: "name", Reason: "extracted intent has no app name"}
	}

	e.logger.Info("Intent extracted",
		zap.String("app", result.Name),
		zap.Int("features", len(result.Features)),
		zap.Int("entities", len(result.Entities)),
	)
	return &result, nil
}
