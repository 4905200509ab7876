package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aymanbagabas/go-udiff"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/conn-castle/patchup/internal/apply"
	"github.com/conn-castle/patchup/internal/checkpoint"
	"github.com/conn-castle/patchup/internal/delta"
	"github.com/conn-castle/patchup/internal/messages"
	"github.com/conn-castle/patchup/internal/pkgfile"
)

// planDocument is the machine-readable plan output.
type planDocument struct {
	FromVersion string          `json:"from_version"`
	ToVersion   string          `json:"to_version"`
	Entries     []pkgfile.Entry `json:"entries"`
}

func newPlanCmd(opts *rootOptions) *cobra.Command {
	var outputJSON bool
	var showDiff bool

	cmd := &cobra.Command{
		Use:   messages.PlanUse,
		Short: messages.PlanShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := pkgfile.Open(args[0])
			if err != nil {
				return err
			}
			defer func() {
				_ = pkg.Close()
			}()
			manifest := pkg.Manifest()

			if outputJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(planDocument{
					FromVersion: manifest.FromVersion,
					ToVersion:   manifest.ToVersion,
					Entries:     manifest.Entries,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, messages.PlanHeaderFmt, manifest.FromVersion, manifest.ToVersion, len(manifest.Entries))
			var root string
			settings, settingsErr := resolveSettings(opts)
			if settingsErr == nil {
				root = settings.root
			}
			if showDiff {
				if settingsErr != nil {
					return settingsErr
				}
				if root, err = settings.requireRoot(); err != nil {
					return err
				}
			}
			if root != "" {
				store := checkpoint.NewStore(apply.CheckpointPath(root), checkpoint.RealSystem{})
				if cp := store.Load(); cp != nil && !cp.IsCompleted && cp.Matches(manifest.FromVersion, manifest.ToVersion) {
					fmt.Fprintf(out, messages.PlanResumeFmt, cp.CurrentIndex+1, len(manifest.Entries))
				}
			}
			for i, entry := range manifest.Entries {
				size := ""
				if entry.Size > 0 {
					size = fmt.Sprintf(messages.PlanEntrySizeFmt, humanize.Bytes(uint64(entry.Size)))
				}
				fmt.Fprintf(out, messages.PlanEntryFmt, i+1, entry.State, entry.Path, size)
				if showDiff && entry.State == pkgfile.StateModified {
					renderEntryDiff(out, pkg, entry, root)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, messages.FlagJSON)
	cmd.Flags().BoolVar(&showDiff, "diff", false, messages.FlagDiff)
	return cmd
}

// renderEntryDiff reconstructs a modified entry in memory and prints a unified
// diff against the installed file. Reconstruction failures and binary content
// degrade to a note; the plan never mutates anything.
func renderEntryDiff(out io.Writer, pkg *pkgfile.Package, entry pkgfile.Entry, root string) {
	if entry.PatchAlgorithm != delta.Algorithm {
		fmt.Fprintf(out, messages.PlanDiffFailedFmt, entry.Path, fmt.Errorf("unknown algorithm %q", entry.PatchAlgorithm))
		return
	}
	base, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(entry.Path)))
	if err != nil {
		fmt.Fprintf(out, messages.PlanDiffFailedFmt, entry.Path, err)
		return
	}
	patch, err := pkg.Patch(entry.Path)
	if err != nil {
		fmt.Fprintf(out, messages.PlanDiffFailedFmt, entry.Path, err)
		return
	}
	defer func() {
		_ = patch.Close()
	}()

	var target bytes.Buffer
	codec := delta.NewCodec()
	if err := codec.Apply(bytes.NewReader(base), int64(len(base)), patch, &target, nil); err != nil {
		fmt.Fprintf(out, messages.PlanDiffFailedFmt, entry.Path, err)
		return
	}
	if bytes.IndexByte(base, 0) >= 0 || bytes.IndexByte(target.Bytes(), 0) >= 0 {
		fmt.Fprintf(out, messages.PlanDiffBinaryFmt, entry.Path)
		return
	}
	diff := udiff.Unified(entry.Path+" (installed)", entry.Path+" (updated)", string(base), target.String())
	fmt.Fprint(out, diff)
}
