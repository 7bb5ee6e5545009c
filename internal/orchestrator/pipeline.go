// internal/orchestrator/pipeline.go
//
// Package orchestrator sequences the generation pipeline end to end. Stages
// run strictly one at a time: intent extraction, spec compilation, synthesis,
// assembly, then the repair loop. No stage starts before the previous one's
// output is fully available.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lumiralabs/berry/api/schemas"
	"github.com/lumiralabs/berry/internal/buildverify"
	"github.com/lumiralabs/berry/internal/config"
	"github.com/lumiralabs/berry/internal/erroranalyze"
	"github.com/lumiralabs/berry/internal/filetree"
	"github.com/lumiralabs/berry/internal/intent"
	"github.com/lumiralabs/berry/internal/llmclient"
	"github.com/lumiralabs/berry/internal/repair"
	"github.com/lumiralabs/berry/internal/scaffold"
	"github.com/lumiralabs/berry/internal/speccompiler"
	"github.com/lumiralabs/berry/internal/synthesizer"
)

// Pipeline wires the pipeline stages around one shared model router.
type Pipeline struct {
	logger      *zap.Logger
	cfg         *config.Config
	llmClient   schemas.LLMClient
	extractor   *intent.Extractor
	compiler    *speccompiler.Compiler
	synthesizer *synthesizer.Synthesizer
	verifier    *buildverify.Verifier
	loop        *repair.Loop
	scaffolder  *scaffold.Manager
}

// New builds a pipeline from configuration, constructing the tiered model
// router and every stage around it.
func New(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	if err := cfg.RequireLLMCredentials(); err != nil {
		return nil, err
	}
	router, err := llmclient.NewRouterFromConfig(cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build LLM router: %w", err)
	}
	return NewWithClient(cfg, router, logger), nil
}

// NewWithClient builds a pipeline around an existing model client.
func NewWithClient(cfg *config.Config, llmClient schemas.LLMClient, logger *zap.Logger) *Pipeline {
	verifier := buildverify.NewVerifier(cfg.Build, logger)
	analyzer := erroranalyze.NewAnalyzer(logger)
	agent := repair.NewAgent(llmClient, cfg.Repair.MaxStepActions, logger)

	return &Pipeline{
		logger:      logger.Named("pipeline"),
		cfg:         cfg,
		llmClient:   llmClient,
		extractor:   intent.NewExtractor(llmClient, logger),
		compiler:    speccompiler.NewCompiler(llmClient, cfg.Specs.Dir, logger),
		synthesizer: synthesizer.NewSynthesizer(llmClient, logger),
		verifier:    verifier,
		loop:        repair.NewLoop(verifier, analyzer, agent, cfg.Repair.MaxAttempts, logger),
		scaffolder:  scaffold.NewManager(cfg.Scaffold.TemplateURL, logger),
	}
}

// Close releases the underlying model client.
func (p *Pipeline) Close() error {
	return p.llmClient.Close()
}

// LLMClient exposes the shared model client for collaborators outside the
// core pipeline (database setup).
func (p *Pipeline) LLMClient() schemas.LLMClient { return p.llmClient }

// LoadSpec reads a previously compiled spec by project name.
func (p *Pipeline) LoadSpec(name string) (*schemas.ProjectSpec, error) {
	return p.compiler.Load(name)
}

// Plan extracts intent from the prompt and compiles it into a persisted
// ProjectSpec.
func (p *Pipeline) Plan(ctx context.Context, prompt string) (*schemas.ProjectSpec, error) {
	extracted, err := p.extractor.Extract(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return p.compiler.Compile(ctx, extracted)
}

// Scaffold clones the project template into dir.
func (p *Pipeline) Scaffold(ctx context.Context, dir string) error {
	return p.scaffolder.Clone(ctx, dir)
}

// Generate synthesizes the spec's artifacts, assembles them onto the project
// scaffold in projectDir, installs dependencies, and drives the repair loop
// until the build is green or the budget is exhausted. The terminal session
// is returned alongside any error so callers can report the audit log.
func (p *Pipeline) Generate(ctx context.Context, spec *schemas.ProjectSpec, projectDir string) (*schemas.RepairSession, error) {
	artifacts, err := p.synthesizer.Synthesize(ctx, spec)
	if err != nil {
		return nil, err
	}

	base, err := scaffold.Load(projectDir)
	if err != nil {
		return nil, err
	}

	tree, err := filetree.Assemble(artifacts, base)
	if err != nil {
		return nil, err
	}

	if err := scaffold.Write(tree, projectDir); err != nil {
		return nil, err
	}
	if err := p.verifier.Install(ctx, projectDir); err != nil {
		return nil, fmt.Errorf("dependency installation failed: %w", err)
	}

	return p.loop.Run(ctx, tree, projectDir)
}

// Repair loads the project from disk and runs the repair loop against it,
// used to resume a project whose build regressed after generation.
func (p *Pipeline) Repair(ctx context.Context, projectDir string) (*schemas.RepairSession, error) {
	tree, err := scaffold.Load(projectDir)
	if err != nil {
		return nil, err
	}
	return p.loop.Run(ctx, tree, projectDir)
}

// ExitCode maps a pipeline error to the process exit code contract: 0
// success, 2 validation, 3 synthesis, 4 assembly, 5 repair exhausted,
// 1 anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var (
		validationErr *schemas.ValidationError
		synthesisErr  *schemas.SynthesisError
		assemblyErr   *schemas.AssemblyError
		exhaustedErr  *schemas.RepairExhaustedError
	)
	switch {
	case errors.As(err, &validationErr):
		return 2
	case errors.As(err, &synthesisErr):
		return 3
	case errors.As(err, &assemblyErr):
		return 4
	case errors.As(err, &exhaustedErr):
		return 5
	default:
		return 1
	}
}
