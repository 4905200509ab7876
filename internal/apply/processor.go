package apply

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/conn-castle/patchup/internal/backup"
	"github.com/conn-castle/patchup/internal/messages"
	"github.com/conn-castle/patchup/internal/pkgfile"
)

// tempSuffix marks in-flight replacement files next to their targets, so a
// crash leaves the target untouched and the leftover identifiable.
const tempSuffix = ".patchup-new"

// DeltaApplier reconstructs a target file from a base snapshot and a patch
// stream. Implementations are keyed by algorithm name in the processor.
type DeltaApplier interface {
	Name() string
	Apply(base io.ReaderAt, baseSize int64, patch io.Reader, target io.Writer, progress func(done int64, total int64)) error
}

// Processor executes one manifest entry at a time against the installation
// root. Every failure path restores the target from its snapshot before
// returning, so a failed entry can be retried on the next run.
type Processor struct {
	root     string
	pkg      *pkgfile.Package
	vault    *backup.Vault
	appliers map[string]DeltaApplier
	sys      System
}

// NewProcessor builds a processor over the open package and backup vault.
func NewProcessor(root string, pkg *pkgfile.Package, vault *backup.Vault, appliers map[string]DeltaApplier, sys System) *Processor {
	return &Processor{root: root, pkg: pkg, vault: vault, appliers: appliers, sys: sys}
}

// TargetPath returns the installation location for a manifest entry path.
func (p *Processor) TargetPath(relPath string) string {
	return filepath.Join(p.root, filepath.FromSlash(relPath))
}

// Apply executes a single entry. onBytes, when non-nil, receives byte-level
// progress for the entry. The returned error, when non-nil, is always an
// *OperationError wrapping the cause.
func (p *Processor) Apply(entry pkgfile.Entry, onBytes func(done int64, total int64)) error {
	switch entry.State {
	case pkgfile.StateModified:
		return p.applyModified(entry, onBytes)
	case pkgfile.StateNew:
		return p.applyNew(entry, onBytes)
	case pkgfile.StateDeleted:
		return p.applyDeleted(entry)
	default:
		return &OperationError{
			Kind: FailureUnknownState,
			Path: entry.Path,
			Err:  fmt.Errorf(messages.ApplyUnknownStateFmt, entry.Path, entry.State),
		}
	}
}

// applyModified patches an existing file in place. The backup snapshot doubles
// as the patch base, so a re-run after a mid-entry failure patches the
// original bytes, never a partial result.
func (p *Processor) applyModified(entry pkgfile.Entry, onBytes func(done int64, total int64)) error {
	targetPath := p.TargetPath(entry.Path)
	if _, err := p.sys.Stat(targetPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &OperationError{
				Kind: FailureSourceMissing,
				Path: entry.Path,
				Err:  fmt.Errorf(messages.ApplySourceMissingFmt, entry.Path),
			}
		}
		return &OperationError{Kind: FailureIO, Path: entry.Path, Err: err}
	}
	if err := p.vault.Backup(entry.Path, targetPath); err != nil {
		return &OperationError{Kind: FailureIO, Path: entry.Path, Err: err}
	}

	applier, ok := p.appliers[entry.PatchAlgorithm]
	if !ok {
		return &OperationError{
			Kind: FailureDeltaApply,
			Path: entry.Path,
			Err:  fmt.Errorf(messages.ApplyUnknownAlgorithmFmt, entry.Path, entry.PatchAlgorithm),
		}
	}

	patch, err := p.pkg.Patch(entry.Path)
	if err != nil {
		if errors.Is(err, pkgfile.ErrEntryNotFound) {
			return &OperationError{
				Kind: FailureEntryMissing,
				Path: entry.Path,
				Err:  fmt.Errorf(messages.ApplyPatchMissingFmt, entry.Path),
			}
		}
		return &OperationError{Kind: FailureIO, Path: entry.Path, Err: err}
	}
	defer func() {
		_ = patch.Close()
	}()

	base, err := p.sys.Open(p.vault.PathFor(entry.Path))
	if err != nil {
		return &OperationError{Kind: FailureIO, Path: entry.Path, Err: err}
	}
	defer func() {
		_ = base.Close()
	}()
	baseInfo, err := base.Stat()
	if err != nil {
		return &OperationError{Kind: FailureIO, Path: entry.Path, Err: err}
	}

	tempPath := targetPath + tempSuffix
	out, err := p.sys.Create(tempPath)
	if err != nil {
		return &OperationError{Kind: FailureIO, Path: entry.Path, Err: err}
	}

	hasher := blake3.New()
	applyErr := applier.Apply(base, baseInfo.Size(), patch, io.MultiWriter(out, hasher), onBytes)
	closeErr := out.Close()
	if applyErr == nil {
		applyErr = closeErr
	}
	if applyErr == nil && entry.Digest != "" {
		if hex.EncodeToString(hasher.Sum(nil)) != entry.Digest {
			applyErr = fmt.Errorf(messages.ApplyDigestMismatchFmt, entry.Path)
		}
	}
	if applyErr != nil {
		_ = p.sys.Remove(tempPath)
		if restoreErr := p.vault.RestoreOne(entry.Path, targetPath); restoreErr != nil {
			return &OperationError{Kind: FailureIO, Path: entry.Path, Err: restoreErr}
		}
		return &OperationError{
			Kind: FailureDeltaApply,
			Path: entry.Path,
			Err:  fmt.Errorf(messages.ApplyDeltaFailedFmt, entry.Path, applyErr),
		}
	}
	if err := p.sys.Rename(tempPath, targetPath); err != nil {
		_ = p.sys.Remove(tempPath)
		_ = p.vault.RestoreOne(entry.Path, targetPath)
		return &OperationError{Kind: FailureIO, Path: entry.Path, Err: err}
	}
	return nil
}

// applyNew materializes a full payload at the target path. An existing file at
// the path is snapshotted first so rollback can put it back.
func (p *Processor) applyNew(entry pkgfile.Entry, onBytes func(done int64, total int64)) error {
	targetPath := p.TargetPath(entry.Path)
	backedUp := false
	if _, err := p.sys.Stat(targetPath); err == nil {
		if err := p.vault.Backup(entry.Path, targetPath); err != nil {
			return &OperationError{Kind: FailureIO, Path: entry.Path, Err: err}
		}
		backedUp = true
	} else if !errors.Is(err, os.ErrNotExist) {
		return &OperationError{Kind: FailureIO, Path: entry.Path, Err: err}
	}

	payload, err := p.pkg.Payload(entry.Path)
	if err != nil {
		if errors.Is(err, pkgfile.ErrEntryNotFound) {
			return &OperationError{
				Kind: FailureEntryMissing,
				Path: entry.Path,
				Err:  fmt.Errorf(messages.ApplyPayloadMissingFmt, entry.Path),
			}
		}
		return &OperationError{Kind: FailureIO, Path: entry.Path, Err: err}
	}
	defer func() {
		_ = payload.Close()
	}()

	if err := p.sys.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return &OperationError{Kind: FailureIO, Path: entry.Path, Err: err}
	}
	tempPath := targetPath + tempSuffix
	out, err := p.sys.Create(tempPath)
	if err != nil {
		return &OperationError{Kind: FailureIO, Path: entry.Path, Err: err}
	}

	total := entry.Size
	if total == 0 {
		total = p.pkg.EntrySize(entry.Path)
	}
	hasher := blake3.New()
	writeErr := copyWithProgress(io.MultiWriter(out, hasher), payload, total, onBytes)
	closeErr := out.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr == nil && entry.Digest != "" {
		if hex.EncodeToString(hasher.Sum(nil)) != entry.Digest {
			writeErr = fmt.Errorf(messages.ApplyDigestMismatchFmt, entry.Path)
		}
	}
	if writeErr != nil {
		_ = p.sys.Remove(tempPath)
		if backedUp {
			_ = p.vault.RestoreOne(entry.Path, targetPath)
		}
		return &OperationError{
			Kind: FailureIO,
			Path: entry.Path,
			Err:  fmt.Errorf(messages.ApplyWriteFailedFmt, entry.Path, writeErr),
		}
	}
	if err := p.sys.Rename(tempPath, targetPath); err != nil {
		_ = p.sys.Remove(tempPath)
		if backedUp {
			_ = p.vault.RestoreOne(entry.Path, targetPath)
		}
		return &OperationError{Kind: FailureIO, Path: entry.Path, Err: err}
	}
	return nil
}

// applyDeleted removes the target after snapshotting it. An already-absent
// target is success, which makes re-running a previously completed delete a
// no-op during resume.
func (p *Processor) applyDeleted(entry pkgfile.Entry) error {
	targetPath := p.TargetPath(entry.Path)
	if _, err := p.sys.Stat(targetPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &OperationError{Kind: FailureIO, Path: entry.Path, Err: err}
	}
	if err := p.vault.Backup(entry.Path, targetPath); err != nil {
		return &OperationError{Kind: FailureIO, Path: entry.Path, Err: err}
	}
	if err := p.sys.Remove(targetPath); err != nil {
		_ = p.vault.RestoreOne(entry.Path, targetPath)
		return &OperationError{
			Kind: FailureIO,
			Path: entry.Path,
			Err:  fmt.Errorf(messages.ApplyRemoveFailedFmt, entry.Path, err),
		}
	}
	return nil
}

func copyWithProgress(dst io.Writer, src io.Reader, total int64, onBytes func(done int64, total int64)) error {
	if onBytes == nil {
		_, err := io.Copy(dst, src)
		return err
	}
	onBytes(0, total)
	buf := make([]byte, 64*1024)
	var done int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return err
			}
			done += int64(n)
			onBytes(done, total)
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}
