// internal/orchestrator/status.go
package orchestrator

import (
	"os"
	"path/filepath"
)

// ProjectStatus summarizes the durable on-disk state of a project: which
// pipeline stages have left their artifacts behind. It is computed from the
// filesystem alone, without invoking any model.
type ProjectStatus struct {
	SpecPresent           bool // Compiled spec document exists.
	ScaffoldPresent       bool // Project directory holds a package.json.
	DependenciesInstalled bool // node_modules has been populated.
	EnvConfigured         bool // .env.local has been written.
	MigrationCount        int  // Migration files under supabase/migrations.
}

// InspectProject reports the state of the project whose spec lives at
// specPath and whose working tree lives at projectDir.
func InspectProject(specPath, projectDir string) ProjectStatus {
	var status ProjectStatus

	if info, err := os.Stat(specPath); err == nil && !info.IsDir() {
		status.SpecPresent = true
	}
	if info, err := os.Stat(filepath.Join(projectDir, "package.json")); err == nil && !info.IsDir() {
		status.ScaffoldPresent = true
	}
	if info, err := os.Stat(filepath.Join(projectDir, "node_modules")); err == nil && info.IsDir() {
		status.DependenciesInstalled = true
	}
	if info, err := os.Stat(filepath.Join(projectDir, ".env.local")); err == nil && !info.IsDir() {
		status.EnvConfigured = true
	}

	entries, err := os.ReadDir(filepath.Join(projectDir, "supabase", "migrations"))
	if err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".sql" {
				status.MigrationCount++
			}
		}
	}
	return status
}
