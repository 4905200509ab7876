package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conn-castle/patchup/internal/apply"
	"github.com/conn-castle/patchup/internal/backup"
	"github.com/conn-castle/patchup/internal/checkpoint"
	"github.com/conn-castle/patchup/internal/messages"
)

// statusDocument is the machine-readable status output.
type statusDocument struct {
	Checkpoint *checkpoint.Checkpoint `json:"checkpoint"`
	BackupRoot string                 `json:"backup_root,omitempty"`
	HasBackup  bool                   `json:"has_backup"`
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   messages.StatusUse,
		Short: messages.StatusShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := resolveSettings(opts)
			if err != nil {
				return err
			}
			root, err := settings.requireRoot()
			if err != nil {
				return err
			}
			store := checkpoint.NewStore(apply.CheckpointPath(root), checkpoint.RealSystem{})
			vault := backup.NewVault(apply.BackupRoot(root), backup.RealSystem{})
			cp := store.Load()
			hasBackup := vault.Exists()

			if outputJSON {
				doc := statusDocument{Checkpoint: cp, HasBackup: hasBackup}
				if hasBackup {
					doc.BackupRoot = vault.Root()
				}
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(doc)
			}

			out := cmd.OutOrStdout()
			if cp == nil {
				fmt.Fprint(out, messages.StatusNoState)
			} else {
				fmt.Fprintf(out, messages.StatusRunFmt, cp.FromVersion, cp.ToVersion, cp.StartedAt.Format(time.RFC3339))
				if cp.IsCompleted && cp.CompletedAt != nil {
					fmt.Fprintf(out, messages.StatusCompletedFmt, cp.CompletedAt.Format(time.RFC3339))
				} else {
					fmt.Fprintf(out, messages.StatusProgressFmt, cp.CurrentIndex)
				}
				if cp.LastError != "" {
					fmt.Fprintf(out, messages.StatusLastErrorFmt, cp.LastError)
				}
			}
			if hasBackup {
				fmt.Fprintf(out, messages.StatusBackupHeldFmt, vault.Root())
			} else {
				fmt.Fprint(out, messages.StatusBackupAbsent)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, messages.FlagJSON)
	return cmd
}
