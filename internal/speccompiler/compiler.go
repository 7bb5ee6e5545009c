// internal/speccompiler/compiler.go
//
// Package speccompiler turns a raw prompt or an extracted Intent into a
// validated ProjectSpec and persists it for the later pipeline stages.
package speccompiler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/lumiralabs/berry/api/schemas"
	"github.com/lumiralabs/berry/internal/llmclient"
)

const systemPrompt = `You are a principal engineer planning a Next.js (app router) + Supabase application. Produce a complete project specification as strict JSON only, matching this shape:
{
  "name": "kebab-case-project-name",
  "description": "what the app does",
  "features": ["...", ...],
  "pages": [{"path": "/route", "description": "...", "api_routes": ["/api/..."], "components": ["ComponentName", ...]}, ...],
  "components": [{"name": "PascalCaseName", "description": "...", "is_client": true}, ...],
  "api_routes": [{"path": "/api/...", "method": "GET", "description": "...", "query": "..."}, ...],
  "database": [{"name": "table_name", "schema": "CREATE TABLE ...", "policy": "CREATE POLICY ..."}, ...]
}
Rules:
- Every component and api route referenced by a page MUST appear in the top-level components / api_routes lists.
- Each api route path is unique per HTTP method. Dynamic segments use {param} syntax.
- Database schemas are valid PostgreSQL with row level security policies.`

// Compiler produces and persists ProjectSpec documents.
type Compiler struct {
	logger    *zap.Logger
	llmClient schemas.LLMClient
	specsDir  string
}

// NewCompiler creates a spec compiler writing specs under specsDir.
func NewCompiler(llmClient schemas.LLMClient, specsDir string, logger *zap.Logger) *Compiler {
	return &Compiler{
		logger:    logger.Named("spec_compiler"),
		llmClient: llmClient,
		specsDir:  specsDir,
	}
}

// Describe names the compiler's pipeline role.
func (c *Compiler) Describe() schemas.AgentRole { return schemas.RoleSpecCompilation }

// Produce implements the Agent interface; input is a raw prompt string or a
// previously extracted *Intent.
func (c *Compiler) Produce(ctx context.Context, input any) (any, error) {
	return c.Compile(ctx, input)
}

// Compile turns a prompt or Intent into a validated ProjectSpec. A response
// that fails schema validation is retried exactly once with the validation
// error appended as corrective context; a second failure surfaces the
// *ValidationError naming the offending field. On success the spec is
// persisted to the specs directory.
func (c *Compiler) Compile(ctx context.Context, promptOrIntent any) (*schemas.ProjectSpec, error) {
	userPrompt, err := renderInput(promptOrIntent)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Compiling project specification")

	spec, compileErr := c.compileOnce(ctx, userPrompt)
	if compileErr != nil {
		var vErr *schemas.ValidationError
		if !errors.As(compileErr, &vErr) {
			return nil, compileErr
		}

		c.logger.Warn("Spec failed validation, retrying with corrective context",
			zap.String("field", vErr.Field),
			zap.String("reason", vErr.Reason),
		)
		corrective := fmt.Sprintf("%s\n\nYour previous specification was rejected: %s. Produce a corrected specification.", userPrompt, vErr.Error())
		spec, compileErr = c.compileOnce(ctx, corrective)
		if compileErr != nil {
			return nil, compileErr
		}
	}

	if err := c.persist(spec); err != nil {
		return nil, err
	}

	c.logger.Info("Project specification compiled",
		zap.String("project", spec.Name),
		zap.Int("pages", len(spec.Pages)),
		zap.Int("components", len(spec.Components)),
		zap.Int("api_routes", len(spec.APIRoutes)),
		zap.Int("tables", len(spec.Database)),
	)
	return spec, nil
}

func (c *Compiler) compileOnce(ctx context.Context, userPrompt string) (*schemas.ProjectSpec, error) {
	response, err := c.llmClient.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Tier:         schemas.TierPowerful,
		Options: schemas.GenerationOptions{
			Temperature:     0.2,
			ForceJSONFormat: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("spec compilation call failed: %w", err)
	}
	return schemas.ParseProjectSpec([]byte(llmclient.CleanJSON(response)))
}

// SpecPath returns the durable location of a project's spec document under
// dir.
func SpecPath(dir, name string) string {
	return filepath.Join(dir, name+"_spec.json")
}

// SpecPath returns the durable location of a project's spec document.
func (c *Compiler) SpecPath(name string) string {
	return SpecPath(c.specsDir, name)
}

// Load reads a previously persisted spec back, re-validating it.
func (c *Compiler) Load(name string) (*schemas.ProjectSpec, error) {
	data, err := os.ReadFile(c.SpecPath(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read spec for %q: %w", name, err)
	}
	return schemas.ParseProjectSpec(data)
}

func (c *Compiler) persist(spec *schemas.ProjectSpec) error {
	if err := os.MkdirAll(c.specsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create specs directory: %w", err)
	}
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode spec: %w", err)
	}
	path := c.SpecPath(spec.Name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to persist spec to %s: %w", path, err)
	}
	c.logger.Debug("Spec persisted", zap.String("path", path))
	return nil
}

// renderInput flattens the accepted input forms into the user prompt.
func renderInput(promptOrIntent any) (string, error) {
	switch in := promptOrIntent.(type) {
	case string:
		if strings.TrimSpace(in) == "" {
			return "", &schemas.ValidationError{Field: "prompt", Reason: "app description must not be empty"}
		}
		return in, nil
	case *schemas.Intent:
		if in == nil {
			return "", &schemas.ValidationError{Field: "intent", Reason: "intent must not be nil"}
		}
		data, err := json.MarshalIndent(in, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode intent: %w", err)
		}
		return "Build the application described by this extracted intent:\n" + string(data), nil
	default:
		return "", fmt.Errorf("spec compiler expects a prompt string or *Intent, got %T", promptOrIntent)
	}
}
