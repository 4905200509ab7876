package apply

import (
	"fmt"

	"github.com/conn-castle/patchup/internal/backup"
	"github.com/conn-castle/patchup/internal/checkpoint"
	"github.com/conn-castle/patchup/internal/messages"
)

// GlobalRollback restores every snapshot in the vault back into the
// installation and deletes the checkpoint. The vault itself is retained; it
// is cleared only when a later run starts fresh, so a failed restore can be
// retried. With no vault present there is nothing to undo and
// ErrNothingToRollback is returned.
//
// Files that an interrupted run newly created have no snapshot and are left
// in place; rollback restores modified and deleted files to their pre-run
// bytes but does not remove additions.
func GlobalRollback(vault *backup.Vault, installRoot string, store *checkpoint.Store) error {
	if !vault.Exists() {
		return fmt.Errorf("%s: %w", messages.BackupNothingToRoll, ErrNothingToRollback)
	}
	if err := vault.RestoreAll(installRoot); err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf(messages.RollbackCheckpointFmt, err)
	}
	return nil
}
