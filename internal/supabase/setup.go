// internal/supabase/setup.go
//
// Package supabase provisions the generated app's backend: it writes the
// project's environment file, derives the initial SQL migration from the
// project spec, and pushes it through the platform CLI. Failures here are
// reported to the user, not retried; the backend is an external collaborator
// with its own state.
package supabase

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lumiralabs/berry/api/schemas"
	"github.com/lumiralabs/berry/internal/config"
)

const migrationSystemPrompt = `You are a PostgreSQL expert preparing the initial migration for a Supabase project. From the given table definitions, produce one complete SQL migration: create extensions if needed, create every table in dependency order, enable row level security on each, and create the stated policies. Respond with raw SQL only, no markdown fences, no commentary.`

// SetupAgent provisions the backend for one generated project.
type SetupAgent struct {
	logger    *zap.Logger
	llmClient schemas.LLMClient
	cfg       config.SupabaseConfig
}

// NewSetupAgent creates a backend setup agent.
func NewSetupAgent(llmClient schemas.LLMClient, cfg config.SupabaseConfig, logger *zap.Logger) *SetupAgent {
	return &SetupAgent{
		logger:    logger.Named("supabase"),
		llmClient: llmClient,
		cfg:       cfg,
	}
}

// Describe names the agent's pipeline role.
func (s *SetupAgent) Describe() schemas.AgentRole { return schemas.RoleSchemaMigration }

// Produce implements the Agent interface; input must be a *ProjectSpec, and
// the output is the generated migration SQL.
func (s *SetupAgent) Produce(ctx context.Context, input any) (any, error) {
	spec, ok := input.(*schemas.ProjectSpec)
	if !ok {
		return nil, fmt.Errorf("setup agent expects a *ProjectSpec, got %T", input)
	}
	return s.GenerateMigration(ctx, spec)
}

// WriteEnv writes the project's .env.local with the platform URL and keys.
func (s *SetupAgent) WriteEnv(projectDir string) error {
	if s.cfg.ProjectRef == "" || s.cfg.AnonKey == "" {
		return fmt.Errorf("supabase project_ref and anon key are required; set BERRY_SUPABASE_ANON_KEY and supabase.project_ref")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "NEXT_PUBLIC_SUPABASE_URL=https://%s.supabase.co\n", s.cfg.ProjectRef)
	fmt.Fprintf(&b, "NEXT_PUBLIC_SUPABASE_ANON_KEY=%s\n", s.cfg.AnonKey)
	if s.cfg.ServiceKey != "" {
		fmt.Fprintf(&b, "SUPABASE_SERVICE_ROLE_KEY=%s\n", s.cfg.ServiceKey)
	}

	path := filepath.Join(projectDir, ".env.local")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.logger.Info("Environment file written", zap.String("path", path))
	return nil
}

// GenerateMigration derives the initial SQL migration from the spec's table
// definitions with one model call.
func (s *SetupAgent) GenerateMigration(ctx context.Context, spec *schemas.ProjectSpec) (string, error) {
	if len(spec.Database) == 0 {
		return "", fmt.Errorf("spec %q declares no database tables", spec.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n\nTables:\n", spec.Name)
	for _, table := range spec.Database {
		fmt.Fprintf(&b, "-- table %s\n%s\n", table.Name, table.Schema)
		if table.Policy != "" {
			fmt.Fprintf(&b, "-- policy\n%s\n", table.Policy)
		}
	}

	sql, err := s.llmClient.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: migrationSystemPrompt,
		UserPrompt:   b.String(),
		Tier:         schemas.TierPowerful,
		Options:      schemas.GenerationOptions{Temperature: 0.1},
	})
	if err != nil {
		return "", fmt.Errorf("migration generation failed: %w", err)
	}

	sql = strings.TrimSpace(sql)
	sql = strings.TrimPrefix(sql, "```sql")
	sql = strings.TrimPrefix(sql, "```")
	sql = strings.TrimSuffix(sql, "```")
	return strings.TrimSpace(sql) + "\n", nil
}

// WriteMigration stores the migration under the project's migrations
// directory with a timestamped name, returning the file path.
func (s *SetupAgent) WriteMigration(projectDir, sql string) (string, error) {
	dir := filepath.Join(projectDir, "supabase", "migrations")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create migrations directory: %w", err)
	}
	name := time.Now().UTC().Format("20060102150405") + "_initial_schema.sql"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(sql), 0o644); err != nil {
		return "", fmt.Errorf("failed to write migration: %w", err)
	}
	s.logger.Info("Migration written", zap.String("path", path))
	return path, nil
}

// Push applies pending migrations through the platform CLI.
func (s *SetupAgent) Push(ctx context.Context, projectDir string) error {
	s.logger.Info("Pushing database migrations", zap.String("dir", projectDir))

	cmd := exec.CommandContext(ctx, "npx", "supabase", "db", "push")
	cmd.Dir = projectDir
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("supabase db push failed: %w\n%s", err, combined.String())
	}
	return nil
}
