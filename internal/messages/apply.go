package messages

// Engine, processor, backup, and rollback messages.
const (
	ApplyRootRequired = "installation root is required"

	ApplySourceMissingFmt    = "source file %s does not exist in the installation"
	ApplyPatchMissingFmt     = "patch entry for %s is missing from the package"
	ApplyPayloadMissingFmt   = "payload entry for %s is missing from the package"
	ApplyUnknownStateFmt     = "entry %s has unrecognized state %q"
	ApplyUnknownAlgorithmFmt = "entry %s requests unknown patch algorithm %q"
	ApplyDeltaFailedFmt      = "apply delta to %s: %w"
	ApplyDigestMismatchFmt   = "digest mismatch for %s after apply"
	ApplyBackupFailedFmt     = "back up %s: %w"
	ApplyRestoreFailedFmt    = "restore %s from backup: %w"
	ApplyRemoveFailedFmt     = "remove %s: %w"
	ApplyWriteFailedFmt      = "write %s: %w"

	EngineEntryFailedFmt      = "entry %d (%s) failed: %w"
	EngineSaveCheckpointFmt   = "persist checkpoint after entry %d: %w"
	EngineRunFailedFmt        = "update run stopped at entry %d of %d: %w"
	EngineCompletedFmt        = "Applied %d operations (%s -> %s).\n"
	EngineResumingFmt         = "Resuming interrupted run at operation %d of %d.\n"
	EngineFreshAfterCompleted = "Previous run completed; starting a new run with a fresh backup tree.\n"

	BackupNothingToRoll = "no backup tree present; nothing to roll back"
	BackupRestoreAllFmt = "restore backup tree into %s: %w"
	BackupClearFmt      = "clear backup tree %s: %w"

	RollbackDone          = "Installation restored from backup; checkpoint cleared.\n"
	RollbackCheckpointFmt = "delete checkpoint after rollback: %w"

	ConflictDetectedFmt = "Found an incomplete run for %s -> %s, but this package updates %s -> %s.\n"
	ConflictAborted     = "checkpoint conflict: stale incomplete run present; aborting without changes"
	FailedRunKeepState  = "Run state and backups were kept; re-run apply to resume, or run rollback.\n"
)
