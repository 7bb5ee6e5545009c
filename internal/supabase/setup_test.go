package supabase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumiralabs/berry/api/schemas"
	"github.com/lumiralabs/berry/internal/config"
)

type mockLLM struct {
	response string
	requests []schemas.GenerationRequest
}

func (m *mockLLM) Generate(_ context.Context, req schemas.GenerationRequest) (string, error) {
	m.requests = append(m.requests, req)
	return m.response, nil
}

func (m *mockLLM) Close() error { return nil }

func TestWriteEnv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	agent := NewSetupAgent(&mockLLM{}, config.SupabaseConfig{
		ProjectRef: "abc123",
		AnonKey:    "anon-key",
		ServiceKey: "service-key",
	}, zap.NewNop())

	require.NoError(t, agent.WriteEnv(dir))

	data, err := os.ReadFile(filepath.Join(dir, ".env.local"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "NEXT_PUBLIC_SUPABASE_URL=https://abc123.supabase.co")
	assert.Contains(t, content, "NEXT_PUBLIC_SUPABASE_ANON_KEY=anon-key")
	assert.Contains(t, content, "SUPABASE_SERVICE_ROLE_KEY=service-key")
}

func TestWriteEnvRequiresCredentials(t *testing.T) {
	t.Parallel()

	agent := NewSetupAgent(&mockLLM{}, config.SupabaseConfig{}, zap.NewNop())
	require.Error(t, agent.WriteEnv(t.TempDir()))
}

func TestGenerateMigrationStripsFences(t *testing.T) {
	t.Parallel()

	llm := &mockLLM{response: "```sql\nCREATE TABLE todos (id uuid primary key);\n```"}
	agent := NewSetupAgent(llm, config.SupabaseConfig{}, zap.NewNop())

	spec := &schemas.ProjectSpec{
		Name: "todo-app",
		Database: []schemas.Table{
			{Name: "todos", Schema: "CREATE TABLE todos (id uuid primary key)", Policy: "CREATE POLICY p ON todos"},
		},
	}

	sql, err := agent.GenerateMigration(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE todos (id uuid primary key);\n", sql)

	require.Len(t, llm.requests, 1)
	assert.Contains(t, llm.requests[0].UserPrompt, "CREATE POLICY")
}

func TestGenerateMigrationRequiresTables(t *testing.T) {
	t.Parallel()

	agent := NewSetupAgent(&mockLLM{}, config.SupabaseConfig{}, zap.NewNop())
	_, err := agent.GenerateMigration(context.Background(), &schemas.ProjectSpec{Name: "empty"})
	require.Error(t, err)
}

func TestWriteMigration(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	agent := NewSetupAgent(&mockLLM{}, config.SupabaseConfig{}, zap.NewNop())

	path, err := agent.WriteMigration(dir, "CREATE TABLE x (id int);\n")
	require.NoError(t, err)
	assert.Contains(t, path, "_initial_schema.sql")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE x (id int);\n", string(data))
}
