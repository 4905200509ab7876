// Package pkgfile reads update package containers: a zip archive holding one
// UpdateInfo metadata entry plus payloads and binary patches keyed by the
// relative paths they update.
package pkgfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/conn-castle/patchup/internal/messages"
)

// MetadataEntryName is the logical name of the metadata entry inside the container.
const MetadataEntryName = "UpdateInfo"

// PatchSuffix is appended to an entry's relative path to locate its binary patch.
const PatchSuffix = ".patch"

// MetadataVersion is the metadata schema version this reader understands.
const MetadataVersion = 1

// Sentinel errors for package-level failure kinds.
var (
	ErrMetadataMissing = errors.New("metadata entry missing")
	ErrEntryNotFound   = errors.New("package entry not found")
)

// State classifies a file entry's operation.
type State string

// Entry states, in the order they are meaningful to the engine.
const (
	StateNew      State = "new"
	StateModified State = "modified"
	StateDeleted  State = "deleted"
)

// Entry is one file-level operation in the package manifest.
// Order within the manifest is execution order.
type Entry struct {
	Path             string `json:"path"`
	State            State  `json:"state"`
	PatchAlgorithm   string `json:"patch_algorithm,omitempty"`
	EstimatedApplyMS int64  `json:"estimated_apply_ms,omitempty"`
	Size             int64  `json:"size,omitempty"`
	Digest           string `json:"digest,omitempty"`
}

// Manifest is the parsed UpdateInfo metadata.
type Manifest struct {
	MetadataVersion int     `json:"metadata_version"`
	FromVersion     string  `json:"from_version"`
	ToVersion       string  `json:"to_version"`
	Entries         []Entry `json:"entries"`
}

// Package is an open update container. It owns the underlying archive handle
// and must be closed when processing ends, regardless of outcome.
type Package struct {
	rc       *zip.ReadCloser
	manifest Manifest
	// byPath maps normalized logical paths to archive entries, built once at
	// open so lookups never rescan the archive directory.
	byPath map[string]*zip.File
}

// Open opens the container at containerPath, indexes its entries, and parses
// the UpdateInfo metadata. Absence or malformation of the metadata is a hard
// error; the handle is closed before returning in every error path.
func Open(containerPath string) (*Package, error) {
	rc, err := zip.OpenReader(containerPath)
	if err != nil {
		return nil, fmt.Errorf(messages.PkgOpenFmt, containerPath, err)
	}
	pkg := &Package{rc: rc, byPath: make(map[string]*zip.File, len(rc.File))}
	metadataCount := 0
	var metadataFile *zip.File
	for _, file := range rc.File {
		name := NormalizePath(file.Name)
		if name == MetadataEntryName {
			metadataCount++
			metadataFile = file
			continue
		}
		pkg.byPath[name] = file
	}
	if metadataCount == 0 {
		_ = rc.Close()
		return nil, fmt.Errorf("%s: %w", messages.PkgMetadataMissing, ErrMetadataMissing)
	}
	if metadataCount > 1 {
		_ = rc.Close()
		return nil, errors.New(messages.PkgMetadataDuplicate)
	}
	manifest, err := decodeManifest(metadataFile)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	pkg.manifest = manifest
	return pkg, nil
}

// Manifest returns the parsed package metadata. The returned value is owned
// by the package and must be treated as read-only.
func (p *Package) Manifest() Manifest {
	return p.manifest
}

// Payload returns a reader over the full-content payload stored at the
// entry's relative path. The caller closes the reader.
func (p *Package) Payload(relPath string) (io.ReadCloser, error) {
	return p.open(NormalizePath(relPath))
}

// Patch returns a reader over the binary patch stored at relPath + ".patch".
// The caller closes the reader.
func (p *Package) Patch(relPath string) (io.ReadCloser, error) {
	return p.open(NormalizePath(relPath) + PatchSuffix)
}

// HasEntry reports whether a payload or patch entry exists at the given
// logical path.
func (p *Package) HasEntry(logicalPath string) bool {
	_, ok := p.byPath[NormalizePath(logicalPath)]
	return ok
}

// EntrySize returns the uncompressed size of the entry at logicalPath, or 0
// when the entry is absent.
func (p *Package) EntrySize(logicalPath string) int64 {
	file, ok := p.byPath[NormalizePath(logicalPath)]
	if !ok {
		return 0
	}
	return int64(file.UncompressedSize64)
}

// Close releases the underlying archive handle.
func (p *Package) Close() error {
	return p.rc.Close()
}

func (p *Package) open(name string) (io.ReadCloser, error) {
	file, ok := p.byPath[name]
	if !ok {
		return nil, fmt.Errorf(messages.PkgEntryNotFoundFmt+": %w", name, ErrEntryNotFound)
	}
	if file.FileInfo().IsDir() {
		return nil, fmt.Errorf(messages.PkgEntryIsDirFmt+": %w", name, ErrEntryNotFound)
	}
	reader, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open package entry %s: %w", name, err)
	}
	return reader, nil
}

func decodeManifest(file *zip.File) (Manifest, error) {
	reader, err := file.Open()
	if err != nil {
		return Manifest{}, fmt.Errorf(messages.PkgMetadataDecodeFmt, err)
	}
	defer func() {
		_ = reader.Close()
	}()
	var manifest Manifest
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&manifest); err != nil {
		return Manifest{}, fmt.Errorf(messages.PkgMetadataDecodeFmt, err)
	}
	if err := validateManifest(manifest); err != nil {
		return Manifest{}, err
	}
	return manifest, nil
}

func validateManifest(manifest Manifest) error {
	if manifest.MetadataVersion != MetadataVersion {
		return fmt.Errorf(messages.PkgMetadataVersionFmt, manifest.MetadataVersion)
	}
	for _, entry := range manifest.Entries {
		if !isCleanRelPath(entry.Path) {
			return fmt.Errorf(messages.PkgEntryPathInvalidFmt, entry.Path)
		}
		switch entry.State {
		case StateNew, StateModified, StateDeleted:
		default:
			return fmt.Errorf(messages.PkgEntryStateInvalidFmt, entry.Path, entry.State)
		}
		if entry.State == StateModified && strings.TrimSpace(entry.PatchAlgorithm) == "" {
			return fmt.Errorf(messages.PkgEntryAlgoRequiredFmt, entry.Path)
		}
	}
	return nil
}

// NormalizePath converts a logical path to the container's single separator
// convention: forward slashes, no leading "./" or "/".
func NormalizePath(logicalPath string) string {
	normalized := strings.ReplaceAll(logicalPath, "\\", "/")
	normalized = path.Clean(normalized)
	normalized = strings.TrimPrefix(normalized, "/")
	if normalized == "." {
		return ""
	}
	return normalized
}

func isCleanRelPath(relPath string) bool {
	if strings.TrimSpace(relPath) == "" {
		return false
	}
	normalized := NormalizePath(relPath)
	if normalized == "" || normalized != relPath {
		return false
	}
	if normalized == ".." || strings.HasPrefix(normalized, "../") {
		return false
	}
	return true
}
