// internal/buildverify/verifier.go
//
// Package buildverify materializes an in-memory project tree into a build
// workspace and runs the project's build command against it, capturing the
// combined diagnostic output for the repair stage.
package buildverify

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lumiralabs/berry/api/schemas"
	"github.com/lumiralabs/berry/internal/config"
	"github.com/lumiralabs/berry/internal/filetree"
)

// Result is the outcome of one verification pass.
type Result struct {
	Success        bool
	RawDiagnostics string
}

// Verifier runs the configured build command in an isolated workspace.
type Verifier struct {
	logger *zap.Logger
	cfg    config.BuildConfig
}

// NewVerifier creates a build verifier.
func NewVerifier(cfg config.BuildConfig, logger *zap.Logger) *Verifier {
	return &Verifier{
		logger: logger.Named("build_verifier"),
		cfg:    cfg,
	}
}

// Materialize writes the tree's files under dir, creating directories as
// needed. File writes within one directory level run concurrently.
func Materialize(ctx context.Context, tree *filetree.Node, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// Directories first, sequentially; file writes fan out.
	var files []string
	fileNodes := make(map[string]*filetree.Node)
	err := tree.Walk(func(path string, node *filetree.Node) error {
		target := filepath.Join(dir, filepath.FromSlash(path))
		if node.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		files = append(files, path)
		fileNodes[path] = node
		return nil
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(16)
	for _, path := range files {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			target := filepath.Join(dir, filepath.FromSlash(path))
			return os.WriteFile(target, []byte(fileNodes[path].Content), 0o644)
		})
	}
	return g.Wait()
}

// Verify materializes the tree into dir and runs the build command there,
// bounded by the configured wall-clock timeout. A non-zero exit is a failed
// Result, even when the build printed nothing; a timeout is reported as a
// *BuildTimeoutError rather than a failed Result.
func (v *Verifier) Verify(ctx context.Context, tree *filetree.Node, dir string) (Result, error) {
	if err := Materialize(ctx, tree, dir); err != nil {
		return Result{}, err
	}

	v.logger.Info("Running build verification",
		zap.Strings("command", v.cfg.Command),
		zap.Duration("timeout", v.cfg.Timeout),
	)

	output, err := v.run(ctx, dir, v.cfg.Command)
	if err != nil {
		var timeoutErr *schemas.BuildTimeoutError
		if errors.As(err, &timeoutErr) {
			return Result{}, err
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Empty diagnostics on failure is still a failure; the caller
			// handles the empty body explicitly.
			return Result{Success: false, RawDiagnostics: output}, nil
		}
		return Result{}, err
	}

	return Result{Success: true, RawDiagnostics: output}, nil
}

// Install resolves project dependencies in dir (npm install). Run once per
// session before the first verification pass.
func (v *Verifier) Install(ctx context.Context, dir string) error {
	v.logger.Info("Installing project dependencies", zap.String("dir", dir))
	_, err := v.run(ctx, dir, []string{"npm", "install"})
	return err
}

// run executes argv in dir with the configured timeout, returning combined
// stdout and stderr.
func (v *Verifier) run(ctx context.Context, dir string, argv []string) (string, error) {
	buildCtx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(buildCtx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	err := cmd.Run()
	duration := time.Since(start)

	if buildCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		v.logger.Error("Build command exceeded wall-clock budget",
			zap.Duration("timeout", v.cfg.Timeout))
		return combined.String(), &schemas.BuildTimeoutError{Timeout: v.cfg.Timeout}
	}
	if ctx.Err() != nil {
		// Caller cancellation, distinct from a build timeout.
		return combined.String(), ctx.Err()
	}

	v.logger.Debug("Build command finished",
		zap.Duration("duration", duration),
		zap.Bool("success", err == nil),
	)
	return combined.String(), err
}
