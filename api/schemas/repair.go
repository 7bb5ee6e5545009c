package schemas

// ErrorCategory classifies a single build diagnostic.
type ErrorCategory string

const (
	CategoryMissingImport     ErrorCategory = "missing-import"
	CategoryTypeError         ErrorCategory = "type-error"
	CategoryMissingDependency ErrorCategory = "missing-dependency"
	CategorySyntaxError       ErrorCategory = "syntax-error"
	CategoryUnknown           ErrorCategory = "unknown"
)

// BuildError is one structured entry parsed from raw build diagnostics.
type BuildError struct {
	File     string        `json:"file"`
	Line     int           `json:"line,omitempty"`   // 0 when not resolvable.
	Column   int           `json:"column,omitempty"` // 0 when not resolvable.
	Message  string        `json:"message"`
	Category ErrorCategory `json:"category"`
}

// BuildErrorReport is the ordered decomposition of one verification pass.
// Reports are derived fresh on every pass and never merged across passes;
// duplicate entries for the same file are deliberately retained because
// distinct diagnostics may require distinct fixes.
type BuildErrorReport struct {
	Errors []BuildError `json:"errors"`
}

// Empty reports whether the report carries no entries.
func (r BuildErrorReport) Empty() bool { return len(r.Errors) == 0 }

// Equal reports whether two reports are entry-for-entry identical. The repair
// loop uses this only for observability: identical consecutive reports still
// consume an attempt.
func (r BuildErrorReport) Equal(other BuildErrorReport) bool {
	if len(r.Errors) != len(other.Errors) {
		return false
	}
	for i := range r.Errors {
		if r.Errors[i] != other.Errors[i] {
			return false
		}
	}
	return true
}

// ActionKind enumerates the tools available to the repair agent.
type ActionKind string

const (
	ActionReadFile            ActionKind = "read-file"
	ActionWriteFile           ActionKind = "write-file"
	ActionExploreDirectory    ActionKind = "explore-directory"
	ActionInspectDependencies ActionKind = "inspect-dependencies"
)

// RepairAction is one step chosen by the repair agent. Write actions carry a
// complete replacement file content in Payload; partial patches are never
// produced.
type RepairAction struct {
	Kind    ActionKind `json:"kind"`
	Target  string     `json:"target"`
	Payload string     `json:"payload,omitempty"`
}

// SessionStatus is the lifecycle state of a repair session.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionSucceeded SessionStatus = "succeeded"
	SessionExhausted SessionStatus = "exhausted"
)

// RepairSession tracks one bounded attempt sequence to drive a failing build
// to success. The action log records every tool invocation for audit; the
// session is summarized and discarded once it reaches a terminal status.
type RepairSession struct {
	ID       string         `json:"id"`
	Attempts int            `json:"attempts"`
	Actions  []RepairAction `json:"actions"`
	Status   SessionStatus  `json:"status"`
}

// Record appends an action to the session's audit log.
func (s *RepairSession) Record(action RepairAction) {
	s.Actions = append(s.Actions, action)
}

// WriteActions returns only the write-file entries of the action log, one per
// completed repair cycle.
func (s *RepairSession) WriteActions() []RepairAction {
	var writes []RepairAction
	for _, a := range s.Actions {
		if a.Kind == ActionWriteFile {
			writes = append(writes, a)
		}
	}
	return writes
}
