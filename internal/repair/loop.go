// internal/repair/loop.go
package repair

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumiralabs/berry/api/schemas"
	"github.com/lumiralabs/berry/internal/buildverify"
	"github.com/lumiralabs/berry/internal/erroranalyze"
	"github.com/lumiralabs/berry/internal/filetree"
)

// Loop is the bounded verify/analyze/repair state machine. It exclusively
// owns the project tree for the duration of one session; callers must not
// mutate the tree while Run is in progress, and only one session may run per
// project at a time.
type Loop struct {
	logger      *zap.Logger
	verifier    *buildverify.Verifier
	analyzer    *erroranalyze.Analyzer
	agent       *Agent
	maxAttempts int
}

// NewLoop creates a repair loop with the given attempt budget.
func NewLoop(verifier *buildverify.Verifier, analyzer *erroranalyze.Analyzer, agent *Agent, maxAttempts int, logger *zap.Logger) *Loop {
	return &Loop{
		logger:      logger.Named("repair_loop"),
		verifier:    verifier,
		analyzer:    analyzer,
		agent:       agent,
		maxAttempts: maxAttempts,
	}
}

// Run drives the tree to a successful build or exhausts the attempt budget.
// The attempt counter increments exactly once per full verify-analyze-repair
// cycle, regardless of how many tool actions a repair step takes, and
// identical consecutive error reports still consume attempts. A build
// timeout aborts the loop immediately without consuming the budget.
// Cancellation transitions the session to Exhausted, preserving the tree in
// its last-repaired state for inspection. The returned session is terminal.
func (l *Loop) Run(ctx context.Context, tree *filetree.Node, workDir string) (*schemas.RepairSession, error) {
	session := &schemas.RepairSession{
		ID:     uuid.New().String(),
		Status: schemas.SessionPending,
	}

	l.logger.Info("Repair session started",
		zap.String("session", session.ID),
		zap.Int("max_attempts", l.maxAttempts),
	)

	var lastReport schemas.BuildErrorReport
	for {
		// State: Verifying.
		result, err := l.verifier.Verify(ctx, tree, workDir)
		if err != nil {
			var timeoutErr *schemas.BuildTimeoutError
			if errors.As(err, &timeoutErr) {
				// A timed-out build is not repair-eligible and does not count
				// against the attempt budget.
				session.Status = schemas.SessionExhausted
				l.logger.Error("Build timed out; aborting repair session",
					zap.String("session", session.ID))
				return session, err
			}
			if ctx.Err() != nil {
				return l.cancel(session, ctx.Err())
			}
			return session, err
		}

		if result.Success {
			session.Status = schemas.SessionSucceeded
			l.logger.Info("Build verified green",
				zap.String("session", session.ID),
				zap.Int("attempts", session.Attempts),
			)
			return session, nil
		}

		// State: Analyzing. A fresh report every pass, never merged.
		report := l.analyzer.Analyze(result.RawDiagnostics)
		if session.Attempts > 0 && report.Equal(lastReport) {
			l.logger.Warn("Error report unchanged since previous attempt",
				zap.String("session", session.ID),
				zap.Int("attempt", session.Attempts),
			)
		}
		lastReport = report

		if session.Attempts == l.maxAttempts {
			session.Status = schemas.SessionExhausted
			l.logger.Error("Repair budget exhausted",
				zap.String("session", session.ID),
				zap.Int("attempts", session.Attempts),
				zap.Int("unresolved", len(report.Errors)),
			)
			return session, &schemas.RepairExhaustedError{
				Attempts: session.Attempts,
				Report:   report,
				Actions:  session.Actions,
			}
		}

		if report.Empty() {
			// Failed build with no parsable diagnostics: hand the agent a
			// single unknown entry so it still sees the failure.
			report.Errors = append(report.Errors, schemas.BuildError{
				Message:  "build failed with no diagnostic output",
				Category: schemas.CategoryUnknown,
			})
		}

		// State: Repairing. One step, then back to Verifying.
		if err := l.agent.RepairStep(ctx, session, report, tree); err != nil {
			if ctx.Err() != nil {
				return l.cancel(session, ctx.Err())
			}
			return session, err
		}
		session.Attempts++
	}
}

// cancel marks the session Exhausted on caller cancellation. The tree is left
// in its last-repaired state rather than rolled back.
func (l *Loop) cancel(session *schemas.RepairSession, cause error) (*schemas.RepairSession, error) {
	session.Status = schemas.SessionExhausted
	l.logger.Warn("Repair session cancelled",
		zap.String("session", session.ID),
		zap.Int("attempts", session.Attempts),
	)
	return session, cause
}
