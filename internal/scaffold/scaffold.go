// internal/scaffold/scaffold.go
//
// Package scaffold manages the boilerplate project template: cloning it for
// new projects and moving project trees between disk and their in-memory
// form.
package scaffold

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"go.uber.org/zap"

	"github.com/lumiralabs/berry/internal/filetree"
)

// Manager clones the template and converts project trees to and from disk.
type Manager struct {
	logger      *zap.Logger
	templateURL string
}

// NewManager creates a scaffold manager for the given template repository.
func NewManager(templateURL string, logger *zap.Logger) *Manager {
	return &Manager{
		logger:      logger.Named("scaffold"),
		templateURL: templateURL,
	}
}

// Clone fetches the template into dir with a shallow checkout, strips the
// template's git history, and initializes a fresh repository so the project
// starts with its own.
func (m *Manager) Clone(ctx context.Context, dir string) error {
	m.logger.Info("Cloning project template",
		zap.String("url", m.templateURL),
		zap.String("dir", dir),
	)

	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:   m.templateURL,
		Depth: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to clone template %s: %w", m.templateURL, err)
	}

	if err := os.RemoveAll(filepath.Join(dir, ".git")); err != nil {
		return fmt.Errorf("failed to strip template history: %w", err)
	}
	if _, err := git.PlainInit(dir, false); err != nil {
		return fmt.Errorf("failed to initialize project repository: %w", err)
	}
	return nil
}

// Load reads the project directory into an in-memory tree. The .git and
// node_modules directories are not part of the project tree.
func Load(dir string) (*filetree.Node, error) {
	root := filetree.NewDir()
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if name == ".git" || name == "node_modules" || name == ".next" {
				return filepath.SkipDir
			}
			return root.Insert(filepath.ToSlash(rel), filetree.NewDir())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return root.Insert(filepath.ToSlash(rel), filetree.NewFile(string(data)))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load project tree from %s: %w", dir, err)
	}
	return root, nil
}

// Write materializes the tree under dir, replacing file contents wholesale.
// Files on disk that are absent from the tree are left untouched.
func Write(tree *filetree.Node, dir string) error {
	return tree.Walk(func(path string, node *filetree.Node) error {
		target := filepath.Join(dir, filepath.FromSlash(path))
		if node.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return os.WriteFile(target, []byte(node.Content), 0o644)
	})
}
