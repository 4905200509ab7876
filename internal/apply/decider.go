package apply

import (
	"github.com/conn-castle/patchup/internal/checkpoint"
)

// ConflictChoice resolves a stale-checkpoint conflict.
type ConflictChoice int

// Conflict resolutions offered to the operator.
const (
	// ConflictAbort exits without touching the installation.
	ConflictAbort ConflictChoice = iota
	// ConflictRollback restores the installation from the backup tree, then
	// starts a fresh run of the new package.
	ConflictRollback
	// ConflictDiscard drops the stale checkpoint and backups and starts a
	// fresh run without restoring anything.
	ConflictDiscard
)

// FailureChoice resolves a failed run.
type FailureChoice int

// Failed-run resolutions offered to the operator.
const (
	// FailureKeep keeps the checkpoint and backups so a later apply resumes.
	FailureKeep FailureChoice = iota
	// FailureRollback restores the installation from the backup tree.
	FailureRollback
)

// Decider resolves the two operator decision points. Implementations range
// from interactive prompts to fixed policies; the engine never reads input
// itself, so runs are deterministic under test.
type Decider interface {
	ResolveCheckpointConflict(prior checkpoint.Checkpoint, pkgFrom string, pkgTo string) (ConflictChoice, error)
	ResolveFailedRun(lastError string) (FailureChoice, error)
}

// AutoDecider applies non-interactive defaults: conflicts abort, failed runs
// keep their state for a later resume. Used for unattended runs where
// blocking on a prompt is never acceptable.
type AutoDecider struct{}

// ResolveCheckpointConflict always aborts.
func (AutoDecider) ResolveCheckpointConflict(checkpoint.Checkpoint, string, string) (ConflictChoice, error) {
	return ConflictAbort, nil
}

// ResolveFailedRun always keeps run state.
func (AutoDecider) ResolveFailedRun(string) (FailureChoice, error) {
	return FailureKeep, nil
}
