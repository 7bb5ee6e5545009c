package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumiralabs/berry/api/schemas"
	"github.com/lumiralabs/berry/internal/config"
)

type mockLLM struct {
	responses []string
	requests  []schemas.GenerationRequest
}

func (m *mockLLM) Generate(_ context.Context, req schemas.GenerationRequest) (string, error) {
	i := len(m.requests)
	m.requests = append(m.requests, req)
	if i >= len(m.responses) {
		return "{}", nil
	}
	return m.responses[i], nil
}

func (m *mockLLM) Close() error { return nil }

func testConfig(command []string) *config.Config {
	return &config.Config{
		Specs:    config.SpecsConfig{Dir: "specs"},
		Scaffold: config.ScaffoldConfig{TemplateURL: "https://example.com/template.git"},
		Build:    config.BuildConfig{Command: command, Timeout: 30 * time.Second},
		Repair:   config.RepairConfig{MaxAttempts: 3, MaxStepActions: 6},
		LLM: config.LLMRouterConfig{
			DefaultFastModel:     "fast",
			DefaultPowerfulModel: "powerful",
			Models: map[string]config.LLMModelConfig{
				"fast":     {Provider: config.ProviderGemini, Model: "gemini-2.5-flash"},
				"powerful": {Provider: config.ProviderGemini, Model: "gemini-2.5-pro"},
			},
		},
	}
}

func TestPlanExtractsThenCompiles(t *testing.T) {
	t.Parallel()

	specDoc := schemas.ProjectSpec{
		Name:       "todo-app",
		Components: []schemas.Component{{Name: "TodoList"}},
		APIRoutes:  []schemas.APIRoute{{Path: "/api/todos", Method: "GET"}},
	}
	specJSON, err := json.Marshal(specDoc)
	require.NoError(t, err)

	llm := &mockLLM{responses: []string{
		`{"name":"todo-app","purpose":"track todos"}`,
		string(specJSON),
	}}
	cfg := testConfig([]string{"sh", "-c", "exit 0"})
	cfg.Specs.Dir = t.TempDir()
	p := NewWithClient(cfg, llm, zap.NewNop())

	spec, err := p.Plan(context.Background(), "an app to track todos")
	require.NoError(t, err)
	assert.Equal(t, "todo-app", spec.Name)

	require.Len(t, llm.requests, 2)
	assert.Equal(t, schemas.TierFast, llm.requests[0].Tier)
	assert.Equal(t, schemas.TierPowerful, llm.requests[1].Tier)

	// The compiled spec is durable and reloadable.
	loaded, err := p.LoadSpec("todo-app")
	require.NoError(t, err)
	assert.Equal(t, spec, loaded)
}

func TestRepairRunsLoopAgainstProjectDir(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("test shells out to sh")
	}

	cfg := testConfig([]string{"sh", "-c", "exit 0"})
	p := NewWithClient(cfg, &mockLLM{}, zap.NewNop())

	session, err := p.Repair(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, schemas.SessionSucceeded, session.Status)
}

func TestExitCodeMapping(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "validation", err: &schemas.ValidationError{Field: "name"}, want: 2},
		{name: "synthesis", err: &schemas.SynthesisError{Phase: "components", Err: errors.New("x")}, want: 3},
		{name: "assembly", err: &schemas.AssemblyError{Path: "a"}, want: 4},
		{name: "exhausted", err: &schemas.RepairExhaustedError{Attempts: 3}, want: 5},
		{name: "wrapped exhausted", err: errors.Join(errors.New("ctx"), &schemas.RepairExhaustedError{}), want: 5},
		{name: "other", err: errors.New("boom"), want: 1},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}
