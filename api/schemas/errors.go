package schemas

import (
	"fmt"
	"time"
)

// The pipeline's error taxonomy. Stage-level errors (validation, synthesis,
// assembly) always abort the pipeline; only ExternalServiceError is retried
// locally with backoff before escalating to a stage-level error.

// ValidationError reports a spec or artifact set that fails its schema. The
// Field names the offending path within the document.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed at %s: %s", e.Field, e.Reason)
}

// SynthesisError reports a failed or malformed generation phase. RawOutput
// carries the unparsed model response for diagnostics; no partial artifact set
// is ever persisted alongside it.
type SynthesisError struct {
	Phase     string
	RawOutput string
	Err       error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis phase %q failed: %v", e.Phase, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// AssemblyError reports a path collision or an unresolvable dynamic-segment
// rewrite. Assembly is deterministic, so this error is always reproducible and
// is treated as a defect rather than retried.
type AssemblyError struct {
	Path   string
	Reason string
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assembly failed for %q: %s", e.Path, e.Reason)
}

// BuildTimeoutError reports that the build verifier exceeded its wall-clock
// budget. It is distinct from an ordinary build failure: the repair agent does
// not act on it and the repair loop surfaces it immediately.
type BuildTimeoutError struct {
	Timeout time.Duration
}

func (e *BuildTimeoutError) Error() string {
	return fmt.Sprintf("build exceeded wall-clock budget of %s", e.Timeout)
}

// RepairExhaustedError is the terminal error of a repair session that reached
// its attempt budget. It carries the final unresolved report and the full
// action log for human follow-up.
type RepairExhaustedError struct {
	Attempts int
	Report   BuildErrorReport
	Actions  []RepairAction
}

func (e *RepairExhaustedError) Error() string {
	return fmt.Sprintf("repair exhausted after %d attempts with %d unresolved errors",
		e.Attempts, len(e.Report.Errors))
}

// ExternalServiceError wraps a transient model or build-tool failure. The
// caller retries it with backoff up to a small fixed count before escalating.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("external service %s failed: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
