// Package messages centralizes user-facing strings and format constants.
package messages

// Root command and shared CLI messages.
const (
	RootUse   = "patchup"
	RootShort = "Apply versioned update packages to an installed software tree"
	RootLong  = "patchup applies a versioned, ordered set of file mutations (add, binary-patch,\n" +
		"delete) to an installed software tree. Progress is checkpointed after every\n" +
		"operation, every touched file is backed up first, and any interrupted or failed\n" +
		"run can be resumed or rolled back to the pre-update snapshot."

	ApplyUse   = "apply <package>"
	ApplyShort = "Apply an update package to the installation"

	PlanUse   = "plan <package>"
	PlanShort = "Show what an update package would do without writing anything"

	RollbackUse   = "rollback"
	RollbackShort = "Restore the installation from the backup tree and clear the checkpoint"

	StatusUse   = "status"
	StatusShort = "Show the current checkpoint record and backup state"

	CheckUse   = "check"
	CheckShort = "Check the release feed for a newer version"

	FlagRoot             = "installation root directory"
	FlagArtifact         = "path to the installed artifact carrying embedded version strings"
	FlagYes              = "assume non-interactive defaults for all decision points"
	FlagSkipVersionCheck = "skip the installed-version gate (use with care)"
	FlagConfig           = "path to a patchup.toml settings file"
	FlagJSON             = "emit machine-readable JSON"
	FlagFeed             = "release feed URL"
	FlagQuiet            = "suppress progress output"
	FlagDiff             = "include text previews of modified files"

	VersionTemplate  = "patchup {{.Version}}\n"
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"

	PromptYesDefaultFmt = "%s [Y/n]: "
	PromptNoDefaultFmt  = "%s [y/N]: "

	RequiresTerminalOrYes = "this command prompts for decisions; run in an interactive terminal or pass --yes"

	ConflictPromptTitle    = "An earlier update run did not finish. How should it be resolved?"
	ConflictOptionRollback = "Roll back to the pre-update snapshot, then apply this package"
	ConflictOptionDiscard  = "Discard the old run state and apply this package as-is"
	ConflictOptionAbort    = "Abort without touching the installation"

	FailedRunRollbackPrompt = "Roll back to the pre-update snapshot now?"
	RollbackConfirmPrompt   = "Restore the installation from the backup tree and clear the checkpoint?"
	RollbackDeclined        = "Rollback cancelled; nothing was changed.\n"

	StatusNoState       = "No update run state; the installation is not mid-update.\n"
	StatusRunFmt        = "Run %s -> %s started %s\n"
	StatusProgressFmt   = "  progress: next entry index %d\n"
	StatusCompletedFmt  = "  completed: %s\n"
	StatusLastErrorFmt  = "  last error: %s\n"
	StatusBackupHeldFmt = "  backup tree: present at %s\n"
	StatusBackupAbsent  = "  backup tree: none\n"

	PlanHeaderFmt     = "Update %s -> %s (%d operations, dry-run):\n"
	PlanEntryFmt      = "  %3d. %-7s %s%s\n"
	PlanResumeFmt     = "An incomplete run exists; apply would resume at operation %d of %d.\n"
	PlanEntrySizeFmt  = " (%s)"
	PlanDiffFailedFmt = "  (no preview for %s: %v)\n"
	PlanDiffBinaryFmt = "  (binary file %s, no preview)\n"

	ProgressEntryFmt = "[%d/%d] %s %s\n"
	ProgressBytesFmt = "        %s of %s\n"

	RootDirRequired     = "installation root is required (flag --root or patchup.toml)"
	ArtifactRequired    = "installed artifact path is required (flag --artifact or patchup.toml)"
	FeedURLRequired     = "release feed URL is required (flag --feed or patchup.toml)"
	PackagePathRequired = "update package path is required"
)
