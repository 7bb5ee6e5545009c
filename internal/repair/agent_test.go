package repair

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumiralabs/berry/api/schemas"
	"github.com/lumiralabs/berry/internal/filetree"
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
	if len(m.responses) == 0 {
		return "{}", nil
	}
	if i >= len(m.responses) {
		return m.responses[len(m.responses)-1], nil
	}
	return m.responses[i], nil
}

func (m *mockLLM) Close() error { return nil }

func missingImportReport() schemas.BuildErrorReport {
	return schemas.BuildErrorReport{Errors: []schemas.BuildError{
		{
			File:     "app/todos/page.tsx",
			Message:  "Module not found: Can't resolve '@/components/Button'",
			Category: schemas.CategoryMissingDependency,
		},
	}}
}

func projectTree(t *testing.T) *filetree.Node {
	t.Helper()
	tree := filetree.NewDir()
	require.NoError(t, tree.Insert("package.json", filetree.NewFile(`{"dependencies":{"next":"14.2.3"}}`)))
	require.NoError(t, tree.Insert("app/todos/page.tsx", filetree.NewFile("import { Button } from '@/components/Button'")))
	return tree
}

func TestRepairStepReadThenWrite(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{responses: []string{
		`{"kind":"read-file","target":"app/todos/page.tsx"}`,
		`{"kind":"write-file","target":"app/todos/page.tsx","payload":"fixed content"}`,
	}}
	agent := NewAgent(llm, 6, zap.NewNop())
	tree := projectTree(t)
	session := &schemas.RepairSession{ID: "s1"}

	require.NoError(t, agent.RepairStep(context.Background(), session, missingImportReport(), tree))

	// Both actions are logged, exactly one of them a write.
	require.Len(t, session.Actions, 2)
	assert.Equal(t, schemas.ActionReadFile, session.Actions[0].Kind)
	require.Len(t, session.WriteActions(), 1)

	node, ok := tree.Lookup("app/todos/page.tsx")
	require.True(t, ok)
	assert.Equal(t, "fixed content", node.Content)

	// The second model call sees the read result.
	require.Len(t, llm.requests, 2)
	assert.Contains(t, llm.requests[1].UserPrompt, "import { Button }")
	// The first call names the failing diagnostic.
	assert.Contains(t, llm.requests[0].UserPrompt, "@/components/Button")
}

func TestRepairStepExploreAndInspect(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{responses: []string{
		`{"kind":"explore-directory","target":"app/todos"}`,
		`{"kind":"inspect-dependencies","target":""}`,
		`{"kind":"write-file","target":"components/Button.tsx","payload":"export function Button() {}"}`,
	}}
	agent := NewAgent(llm, 6, zap.NewNop())
	tree := projectTree(t)
	session := &schemas.RepairSession{ID: "s2"}

	require.NoError(t, agent.RepairStep(context.Background(), session, missingImportReport(), tree))

	require.Len(t, llm.requests, 3)
	assert.Contains(t, llm.requests[1].UserPrompt, "page.tsx")
	assert.Contains(t, llm.requests[2].UserPrompt, `"next":"14.2.3"`)

	node, ok := tree.Lookup("components/Button.tsx")
	require.True(t, ok)
	assert.Equal(t, "export function Button() {}", node.Content)
}

func TestRepairStepActionBudget(t *testing.T) {
	t.Parallel()

	// The agent keeps reading and never writes.
	llm := &mockLLM{responses: []string{`{"kind":"read-file","target":"app/todos/page.tsx"}`}}
	agent := NewAgent(llm, 3, zap.NewNop())
	session := &schemas.RepairSession{ID: "s3"}

	err := agent.RepairStep(context.Background(), session, missingImportReport(), projectTree(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without writing a fix")
	assert.Len(t, session.Actions, 3)
	assert.Empty(t, session.WriteActions())
}

func TestRepairStepRejectsUnknownAction(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{responses: []string{`{"kind":"delete-everything","target":"/"}`}}
	agent := NewAgent(llm, 3, zap.NewNop())

	err := agent.RepairStep(context.Background(), &schemas.RepairSession{}, missingImportReport(), projectTree(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action kind")
}

func TestRepairStepEmptyReport(t *testing.T) {
	t.Parallel()

	agent := NewAgent(&mockLLM{}, 3, zap.NewNop())
	err := agent.RepairStep(context.Background(), &schemas.RepairSession{}, schemas.BuildErrorReport{}, filetree.NewDir())
	require.Error(t, err)
}
