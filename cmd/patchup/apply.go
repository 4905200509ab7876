package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conn-castle/patchup/internal/apply"
	"github.com/conn-castle/patchup/internal/backup"
	"github.com/conn-castle/patchup/internal/checkpoint"
	"github.com/conn-castle/patchup/internal/delta"
	"github.com/conn-castle/patchup/internal/instance"
	"github.com/conn-castle/patchup/internal/messages"
	"github.com/conn-castle/patchup/internal/pkgfile"
	"github.com/conn-castle/patchup/internal/progress"
	"github.com/conn-castle/patchup/internal/prompt"
	"github.com/conn-castle/patchup/internal/terminal"
	"github.com/conn-castle/patchup/internal/vergate"
)

var isTerminal = terminal.IsInteractive

func newApplyCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	var skipVersionCheck bool

	cmd := &cobra.Command{
		Use:   messages.ApplyUse,
		Short: messages.ApplyShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := resolveSettings(opts)
			if err != nil {
				return err
			}
			root, err := settings.requireRoot()
			if err != nil {
				return err
			}
			if !yes && !isTerminal() {
				return errors.New(messages.RequiresTerminalOrYes)
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

			pkg, err := pkgfile.Open(args[0])
			if err != nil {
				return err
			}
			defer func() {
				_ = pkg.Close()
			}()
			manifest := pkg.Manifest()

			if !skipVersionCheck {
				artifact, err := settings.requireArtifact()
				if err != nil {
					return err
				}
				gate := vergate.New(vergate.WhatStringSource{})
				if !gate.Validate(manifest.FromVersion, artifact) {
					return fmt.Errorf(messages.VersionGateFailedFmt, artifact, manifest.FromVersion)
				}
			}

			var decider apply.Decider = apply.AutoDecider{}
			if !yes {
				decider = &interactiveDecider{ui: prompt.NewHuhUI()}
			}

			store := checkpoint.NewStore(apply.CheckpointPath(root), checkpoint.RealSystem{})
			vault := backup.NewVault(apply.BackupRoot(root), backup.RealSystem{})
			renderer := progress.NewRenderer(cmd.OutOrStdout(), settings.quiet)
			engine, err := apply.NewEngine(apply.Options{
				InstallRoot: root,
				Package:     pkg,
				Store:       store,
				Vault:       vault,
				Appliers:    map[string]apply.DeltaApplier{delta.Algorithm: delta.NewCodec()},
				Progress:    renderer.Handle,
				WarnWriter:  cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			cp, err := engine.Prepare(decider)
			if err != nil {
				return err
			}
			if runErr := engine.Run(cp); runErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), runErr)
				return resolveFailedRun(cmd, decider, cp, vault, store, root)
			}
			fmt.Fprintf(cmd.OutOrStdout(), messages.EngineCompletedFmt,
				len(manifest.Entries), manifest.FromVersion, manifest.ToVersion)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, messages.FlagYes)
	cmd.Flags().BoolVar(&skipVersionCheck, "skip-version-check", false, messages.FlagSkipVersionCheck)
	return cmd
}

// resolveFailedRun asks the decider what to do with a stopped run and always
// returns a silent nonzero exit; the run error was already printed.
func resolveFailedRun(cmd *cobra.Command, decider apply.Decider, cp *checkpoint.Checkpoint, vault *backup.Vault, store *checkpoint.Store, root string) error {
	choice, err := decider.ResolveFailedRun(cp.LastError)
	if err != nil {
		return err
	}
	if choice == apply.FailureRollback {
		if err := apply.GlobalRollback(vault, root, store); err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), messages.RollbackDone)
	} else {
		fmt.Fprint(cmd.OutOrStdout(), messages.FailedRunKeepState)
	}
	return &SilentExitError{Code: 1}
}
