package schemas

import (
	"context"
)

// -- LLM Client Schemas & Interface --

// ModelTier allows for selecting a large language model based on a preference
// for speed versus advanced capabilities.
type ModelTier string

const (
	TierFast     ModelTier = "fast"     // Prefers a faster, potentially less capable model.
	TierPowerful ModelTier = "powerful" // Prefers a more capable, potentially slower model.
)

// GenerationOptions provides detailed parameters to control the text generation
// process of the LLM, such as creativity (temperature) and output format.
type GenerationOptions struct {
	Temperature     float64 `json:"temperature"`       // Controls randomness. Lower is more deterministic.
	ForceJSONFormat bool    `json:"force_json_format"` // If true, forces the model to output valid JSON.
	TopP            float64 `json:"top_p"`             // Nucleus sampling parameter.
	TopK            int     `json:"top_k"`             // Top-k sampling parameter.
}

// GenerationRequest encapsulates a complete request to the LLM, including the
// system and user prompts, the desired model tier, and generation options.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"` // Instructions for the model's persona and task.
	UserPrompt   string            `json:"user_prompt"`   // The specific query or input from the user.
	Tier         ModelTier         `json:"tier"`          // The desired model tier (fast or powerful).
	Options      GenerationOptions `json:"options"`       // Advanced generation parameters.
}

// LLMClient defines a standard interface for interacting with a Large Language
// Model, abstracting the specifics of the underlying provider (e.g., Gemini).
type LLMClient interface {
	// Generate produces a text completion based on the provided request.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	// Close cleans up any resources held by the client (e.g., network connections).
	Close() error
}

// -- Agent Capability Interface --

// AgentRole names one of the model-driven roles in the generation pipeline.
type AgentRole string

const (
	RoleIntentExtraction AgentRole = "intent-extraction"
	RoleSpecCompilation  AgentRole = "spec-compilation"
	RoleCodeSynthesis    AgentRole = "code-synthesis"
	RoleBuildRepair      AgentRole = "build-repair"
	RoleSchemaMigration  AgentRole = "schema-migration"
)

// Agent is the loose capability contract shared by every model-driven role.
// Produce runs one unit of the role's work; Describe names the role so the
// controller can substitute the underlying model service per role without
// changing any control flow.
type Agent interface {
	Produce(ctx context.Context, input any) (any, error)
	Describe() AgentRole
}
