package apply

import (
	"errors"
	"fmt"
)

// FailureKind tags a per-entry failure so callers can react without parsing
// message text.
type FailureKind string

// Per-entry failure kinds. All of them leave the target in its pre-attempt
// state and the run resumable at the failed entry.
const (
	FailureSourceMissing FailureKind = "source_missing"
	FailureEntryMissing  FailureKind = "entry_missing"
	FailureIO            FailureKind = "io"
	FailureDeltaApply    FailureKind = "delta_apply"
	FailureUnknownState  FailureKind = "unknown_state"
)

// OperationError is the structured failure an operation surfaces to the
// engine. It is a value, not a crash: the engine persists the checkpoint and
// stops.
type OperationError struct {
	Kind FailureKind
	Path string
	Err  error
}

// Error implements error.
func (e *OperationError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Path, e.Kind, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *OperationError) Unwrap() error {
	return e.Err
}

// AsOperationError extracts an OperationError from an error chain.
func AsOperationError(err error) (*OperationError, bool) {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr, true
	}
	return nil, false
}

// ErrCheckpointConflict reports a stale incomplete checkpoint whose versions
// do not match the package; the operator declined to resolve it.
var ErrCheckpointConflict = errors.New("checkpoint conflict")

// ErrNothingToRollback reports a rollback request with no backup tree present.
var ErrNothingToRollback = errors.New("no backup tree present")
