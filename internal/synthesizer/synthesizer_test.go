package synthesizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumiralabs/berry/api/schemas"
)

type mockLLM struct {
	responses []string
	errs      []error
	requests  []schemas.GenerationRequest
}

func (m *mockLLM) Generate(_ context.Context, req schemas.GenerationRequest) (string, error) {
	i := len(m.requests)
	m.requests = append(m.requests, req)
	if i < len(m.errs) && m.errs[i] != nil {
		return "", m.errs[i]
	}
	if i >= len(m.responses) {
		return "{}", nil
	}
	return m.responses[i], nil
}

func (m *mockLLM) Close() error { return nil }

func todoSpec() *schemas.ProjectSpec {
	return &schemas.ProjectSpec{
		Name: "todo-app",
		Pages: []schemas.Page{
			{Path: "/todos", APIRoutes: []string{"/api/todos"}, Components: []string{"TodoList"}},
		},
		Components: []schemas.Component{{Name: "TodoList", IsClient: true}},
		APIRoutes:  []schemas.APIRoute{{Path: "/api/todos", Method: "GET"}},
	}
}

const routesResponse = `{"api_routes":[{"path":"/api/todos","handlers":{"GET":{"source":"export async function GET() {}"}}}],"types":"export type Todo = {}","utils":{"api.ts":"export const api = 1"}}`
const componentsResponse = `{"components":[{"name":"TodoList","source":"export function TodoList() {}","dependencies":["@supabase/supabase-js"]}]}`
const pagesResponse = `{"pages":[{"path":"/todos","source":"export default function Page() {}"}]}`

func TestSynthesizeRunsPhasesInOrder(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{responses: []string{routesResponse, componentsResponse, pagesResponse}}
	set, err := NewSynthesizer(llm, zap.NewNop()).Synthesize(context.Background(), todoSpec())
	require.NoError(t, err)

	require.Len(t, llm.requests, 3)
	// Later phases receive earlier phases' output as context.
	assert.Contains(t, llm.requests[1].UserPrompt, "/api/todos")
	assert.Contains(t, llm.requests[1].UserPrompt, "Generated API routes")
	assert.Contains(t, llm.requests[2].UserPrompt, "TodoList")
	assert.Contains(t, llm.requests[2].UserPrompt, "Generated components")

	require.Len(t, set.APIRoutes, 1)
	require.Len(t, set.Components, 1)
	require.Len(t, set.Pages, 1)
	assert.Equal(t, "export type Todo = {}", set.Types)
	assert.Equal(t, "export const api = 1", set.Utils["api.ts"])
}

func TestSynthesizePhaseFailureAbortsRun(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{
		responses: []string{routesResponse},
		errs:      []error{nil, errors.New("model unavailable")},
	}
	_, err := NewSynthesizer(llm, zap.NewNop()).Synthesize(context.Background(), todoSpec())

	var synthErr *schemas.SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, PhaseComponents, synthErr.Phase)
	// The third phase never runs.
	assert.Len(t, llm.requests, 2)
}

func TestSynthesizeMalformedPhaseOutput(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{responses: []string{"not json at all"}}
	_, err := NewSynthesizer(llm, zap.NewNop()).Synthesize(context.Background(), todoSpec())

	var synthErr *schemas.SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, PhaseAPIRoutes, synthErr.Phase)
	assert.Equal(t, "not json at all", synthErr.RawOutput)
}

func TestSynthesizeUnresolvedDependencyFailsClosed(t *testing.T) {
	t.Parallel()

	badComponents := `{"components":[{"name":"TodoList","source":"x","dependencies":["GhostComponent"]}]}`
	llm := &mockLLM{responses: []string{routesResponse, badComponents, pagesResponse}}

	_, err := NewSynthesizer(llm, zap.NewNop()).Synthesize(context.Background(), todoSpec())
	var vErr *schemas.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "GhostComponent")
}

func TestSynthesizeExternalLibraryDependenciesResolve(t *testing.T) {
	t.Parallel()

	components := `{"components":[{"name":"TodoList","source":"x","dependencies":["@supabase/supabase-js","date-fns/format"]}]}`
	llm := &mockLLM{responses: []string{routesResponse, components, pagesResponse}}

	_, err := NewSynthesizer(llm, zap.NewNop()).Synthesize(context.Background(), todoSpec())
	require.NoError(t, err)
}
