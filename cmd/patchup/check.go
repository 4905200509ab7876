package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conn-castle/patchup/internal/messages"
	"github.com/conn-castle/patchup/internal/update"
	"github.com/conn-castle/patchup/internal/vergate"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var feedURL string
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   messages.CheckUse,
		Short: messages.CheckShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := resolveSettings(opts)
			if err != nil {
				return err
			}
			artifact, err := settings.requireArtifact()
			if err != nil {
				return err
			}
			feed := firstNonEmpty(feedURL, settings.feedURL)
			if feed == "" {
				return errors.New(messages.FeedURLRequired)
			}

			versions, err := vergate.WhatStringSource{}.ReadVersions(artifact)
			if err != nil {
				return err
			}
			result, err := update.Check(cmd.Context(), feed, versions.Build)
			if err != nil {
				return err
			}

			if outputJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(result)
			}
			if result.Outdated {
				fmt.Fprintf(cmd.OutOrStdout(), messages.FeedOutdatedFmt, result.Current, result.Latest, result.Package)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), messages.FeedUpToDateFmt, result.Current, result.Latest)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&feedURL, "feed", "", messages.FlagFeed)
	cmd.Flags().BoolVar(&outputJSON, "json", false, messages.FlagJSON)
	return cmd
}
