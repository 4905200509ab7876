// Package apply contains the checkpointed update engine: the per-entry
// operation processor, the sequential run loop, and global rollback.
package apply

import "path/filepath"

// StateDirName is the well-known state directory under the installation root.
const StateDirName = ".patchup"

// StateDir returns the state directory for an installation.
func StateDir(installRoot string) string {
	return filepath.Join(installRoot, StateDirName)
}

// CheckpointPath returns the fixed checkpoint file location.
func CheckpointPath(installRoot string) string {
	return filepath.Join(StateDir(installRoot), "checkpoint.json")
}

// BackupRoot returns the backup shadow tree root.
func BackupRoot(installRoot string) string {
	return filepath.Join(StateDir(installRoot), "backup")
}

// LockPath returns the single-instance lock file location.
func LockPath(installRoot string) string {
	return filepath.Join(StateDir(installRoot), "lock")
}
