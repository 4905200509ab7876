package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conn-castle/patchup/internal/apply"
	"github.com/conn-castle/patchup/internal/backup"
	"github.com/conn-castle/patchup/internal/checkpoint"
	"github.com/conn-castle/patchup/internal/instance"
	"github.com/conn-castle/patchup/internal/messages"
)

func newRollbackCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   messages.RollbackUse,
		Short: messages.RollbackShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := resolveSettings(opts)
			if err != nil {
				return err
			}
			root, err := settings.requireRoot()
			if err != nil {
				return err
			}
			if !yes {
				if !isTerminal() {
					return errors.New(messages.RequiresTerminalOrYes)
				}
				confirmed, err := promptYesNo(cmd.InOrStdin(), cmd.OutOrStdout(), messages.RollbackConfirmPrompt, false)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprint(cmd.OutOrStdout(), messages.RollbackDeclined)
					return nil
				}
			}

			if err := os.MkdirAll(apply.StateDir(root), 0o755); err != nil {
				return err
			}
			guard, err := instance.Acquire(apply.LockPath(root))
			if err != nil {
				return err
			}
			defer func() {
				_ = guard.Release()
			}()

			vault := backup.NewVault(apply.BackupRoot(root), backup.RealSystem{})
			store := checkpoint.NewStore(apply.CheckpointPath(root), checkpoint.RealSystem{})
			if err := apply.GlobalRollback(vault, root, store); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), messages.RollbackDone)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, messages.FlagYes)
	return cmd
}
