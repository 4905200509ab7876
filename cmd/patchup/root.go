package main

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conn-castle/patchup/internal/config"
	"github.com/conn-castle/patchup/internal/messages"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	root       string
	artifact   string
	quiet      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		Long:          messages.RootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", messages.FlagConfig)
	cmd.PersistentFlags().StringVar(&opts.root, "root", "", messages.FlagRoot)
	cmd.PersistentFlags().StringVar(&opts.artifact, "artifact", "", messages.FlagArtifact)
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, messages.FlagQuiet)

	cmd.AddCommand(
		newApplyCmd(opts),
		newPlanCmd(opts),
		newRollbackCmd(opts),
		newStatusCmd(opts),
		newCheckCmd(opts),
	)
	return cmd
}

// runSettings is the merged view of flags and patchup.toml. Flags win.
type runSettings struct {
	root     string
	artifact string
	feedURL  string
	quiet    bool
}

// resolveSettings merges the settings file under the root flags. With
// --config the file must exist; otherwise patchup.toml in the working
// directory is used when present.
func resolveSettings(opts *rootOptions) (runSettings, error) {
	var settings *config.Settings
	var err error
	if opts.configPath != "" {
		settings, err = config.Load(opts.configPath)
	} else {
		settings, err = config.LoadOptional(filepath.Join(".", config.DefaultFileName))
	}
	if err != nil {
		return runSettings{}, err
	}
	merged := runSettings{
		root:     firstNonEmpty(opts.root, settings.Paths.Root),
		artifact: firstNonEmpty(opts.artifact, settings.Paths.Artifact),
		feedURL:  settings.Update.FeedURL,
		quiet:    opts.quiet || settings.Output.Quiet,
	}
	return merged, nil
}

func (s runSettings) requireRoot() (string, error) {
	if s.root == "" {
		return "", errors.New(messages.RootDirRequired)
	}
	return s.root, nil
}

func (s runSettings) requireArtifact() (string, error) {
	if s.artifact == "" {
		return "", errors.New(messages.ArtifactRequired)
	}
	return s.artifact, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
