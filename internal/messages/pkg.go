package messages

// Package reader, checkpoint, version gate, config, and feed messages.
const (
	PkgOpenFmt              = "open update package %s: %w"
	PkgMetadataMissing      = "update package has no UpdateInfo metadata entry"
	PkgMetadataDuplicate    = "update package has more than one UpdateInfo metadata entry"
	PkgMetadataDecodeFmt    = "decode UpdateInfo metadata: %w"
	PkgMetadataVersionFmt   = "unsupported metadata version %d"
	PkgEntryPathInvalidFmt  = "entry path %q is not a clean relative path"
	PkgEntryStateInvalidFmt = "entry %s has invalid state %q"
	PkgEntryAlgoRequiredFmt = "modified entry %s must name a patch algorithm"
	PkgEntryNotFoundFmt     = "package entry %s not found"
	PkgEntryIsDirFmt        = "package entry %s is a directory"

	CheckpointSaveFmt  = "save checkpoint %s: %w"
	CheckpointClearFmt = "delete checkpoint %s: %w"

	VersionGateFailedFmt = "installed artifact %s does not match package source version %s"

	ConfigReadFmt   = "read settings file %s: %w"
	ConfigDecodeFmt = "decode settings file %s: %w"

	FeedCreateRequestFmt  = "create feed request: %w"
	FeedFetchFmt          = "fetch release feed: %w"
	FeedFetchStatusFmt    = "fetch release feed: unexpected status %s"
	FeedDecodeFmt         = "decode release feed: %w"
	FeedMissingVersion    = "release feed has no version field"
	FeedInvalidVersionFmt = "invalid version %q in release feed: %w"
	FeedUpToDateFmt       = "Installed version %s is up to date (feed has %s).\n"
	FeedOutdatedFmt       = "Update available: installed %s, feed has %s.\npackage: %s\n"

	InstanceOpenLockFmt = "open lock file %s: %w"
	InstanceHeldFmt     = "another patchup instance is already running (lock %s held)"
)
