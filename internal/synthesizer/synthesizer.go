// internal/synthesizer/synthesizer.go
//
// Package synthesizer generates the project's source artifacts from a
// validated ProjectSpec in three strictly ordered phases. Each phase is one
// structured model call covering its whole spec section, and each phase's
// output is fed to the next as context, so components call real endpoints and
// pages compose real components. Failure of any phase aborts the whole run;
// no partial artifact set is ever returned.
package synthesizer

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/lumiralabs/berry/api/schemas"
	"github.com/lumiralabs/berry/internal/llmclient"
)

// Phase names, in execution order.
const (
	PhaseAPIRoutes  = "api-routes"
	PhaseComponents = "components"
	PhasePages      = "pages"
)

const routesSystemPrompt = `You are a senior Next.js engineer. Generate every API route handler for the given project specification, plus the shared TypeScript types and any utility modules the handlers need. Use the Next.js app router (route.ts files, exported async functions named after the HTTP method) and the Supabase JS client for persistence. Respond with strict JSON only:
{
  "api_routes": [{"path": "/api/...", "handlers": {"GET": {"source": "...", "description": "..."}}}, ...],
  "types": "contents of the shared types module",
  "utils": {"fileName.ts": "source", ...}
}
Cover every route in the specification. Dynamic segments keep their {param} spelling from the specification.`

const componentsSystemPrompt = `You are a senior React engineer. Generate every UI component for the given project specification. The API routes already generated are provided as context; data fetching must target those exact endpoints. Mark client components with "use client" when the specification flags them as client-rendered. Respond with strict JSON only:
{
  "components": [{"name": "PascalCaseName", "source": "...", "description": "...", "dependencies": ["OtherComponent", "@scope/lib", ...]}, ...]
}
List a dependency for every other generated component or external library a component imports. Cover every component in the specification.`

const pagesSystemPrompt = `You are a senior Next.js engineer. Generate every page for the given project specification, composing the already generated components and calling the already generated API routes, both provided as context. Pages are app-router page.tsx modules. Respond with strict JSON only:
{
  "pages": [{"path": "/route", "source": "...", "description": "..."}, ...]
}
Cover every page in the specification.`

// Synthesizer produces a complete GeneratedArtifactSet from a ProjectSpec.
type Synthesizer struct {
	logger    *zap.Logger
	llmClient schemas.LLMClient
}

// NewSynthesizer creates a code synthesizer.
func NewSynthesizer(llmClient schemas.LLMClient, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		logger:    logger.Named("synthesizer"),
		llmClient: llmClient,
	}
}

// Describe names the synthesizer's pipeline role.
func (s *Synthesizer) Describe() schemas.AgentRole { return schemas.RoleCodeSynthesis }

// Produce implements the Agent interface; input must be a *ProjectSpec.
func (s *Synthesizer) Produce(ctx context.Context, input any) (any, error) {
	spec, ok := input.(*schemas.ProjectSpec)
	if !ok {
		return nil, fmt.Errorf("synthesizer expects a *ProjectSpec, got %T", input)
	}
	return s.Synthesize(ctx, spec)
}

// Synthesize runs the three generation phases in order and validates the
// resulting artifact set's dependency closure before returning it.
func (s *Synthesizer) Synthesize(ctx context.Context, spec *schemas.ProjectSpec) (*schemas.GeneratedArtifactSet, error) {
	specJSON, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode spec: %w", err)
	}

	set := &schemas.GeneratedArtifactSet{}

	// Phase 1: API routes, plus the shared types and utils they define.
	var routesOut struct {
		APIRoutes []schemas.GeneratedRoute `json:"api_routes"`
		Types     string                   `json:"types"`
		Utils     map[string]string        `json:"utils"`
	}
	routesCtx := fmt.Sprintf("Project specification:\n%s", specJSON)
	if err := s.runPhase(ctx, PhaseAPIRoutes, routesSystemPrompt, routesCtx, &routesOut); err != nil {
		return nil, err
	}
	set.APIRoutes = routesOut.APIRoutes
	set.Types = routesOut.Types
	set.Utils = routesOut.Utils

	// Phase 2: components, with the full route set as context.
	var componentsOut struct {
		Components []schemas.GeneratedComponent `json:"components"`
	}
	componentsCtx := fmt.Sprintf("Project specification:\n%s\n\nGenerated API routes:\n%s", specJSON, mustJSON(routesOut))
	if err := s.runPhase(ctx, PhaseComponents, componentsSystemPrompt, componentsCtx, &componentsOut); err != nil {
		return nil, err
	}
	set.Components = componentsOut.Components

	// Phase 3: pages, with both earlier phases as context.
	var pagesOut struct {
		Pages []schemas.GeneratedPage `json:"pages"`
	}
	pagesCtx := fmt.Sprintf("Project specification:\n%s\n\nGenerated API routes:\n%s\n\nGenerated components:\n%s",
		specJSON, mustJSON(routesOut), mustJSON(componentsOut))
	if err := s.runPhase(ctx, PhasePages, pagesSystemPrompt, pagesCtx, &pagesOut); err != nil {
		return nil, err
	}
	set.Pages = pagesOut.Pages

	// An unresolved component dependency is a generation error; fail closed.
	if err := set.Validate(); err != nil {
		return nil, err
	}

	s.logger.Info("Synthesis complete",
		zap.Int("api_routes", len(set.APIRoutes)),
		zap.Int("components", len(set.Components)),
		zap.Int("pages", len(set.Pages)),
	)
	return set, nil
}

// runPhase performs one structured generation call and decodes its output.
func (s *Synthesizer) runPhase(ctx context.Context, phase, system, user string, out any) error {
	s.logger.Info("Running synthesis phase", zap.String("phase", phase))

	response, err := s.llmClient.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: system,
		UserPrompt:   user,
		Tier:         schemas.TierPowerful,
		Options: schemas.GenerationOptions{
			Temperature:     0.2,
			ForceJSONFormat: true,
		},
	})
	if err != nil {
		return &schemas.SynthesisError{Phase: phase, Err: err}
	}

	if err := json.Unmarshal([]byte(llmclient.CleanJSON(response)), out); err != nil {
		return &schemas.SynthesisError{Phase: phase, RawOutput: response, Err: err}
	}
	return nil
}

func mustJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
