// Package backup maintains the shadow tree of pre-mutation file snapshots
// for the current update run.
package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/conn-castle/patchup/internal/fsutil"
	"github.com/conn-castle/patchup/internal/messages"
)

// System abstracts the filesystem operations the vault needs.
type System interface {
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	RemoveAll(path string) error
	WalkDir(root string, fn fs.WalkDirFunc) error
	CopyFile(src string, dst string) error
}

// RealSystem implements System using the OS filesystem.
type RealSystem struct{}

// Stat returns a FileInfo describing the named file.
func (RealSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// MkdirAll creates a directory named path, along with any necessary parents.
func (RealSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// RemoveAll removes path and any children it contains.
func (RealSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// WalkDir walks the file tree rooted at root.
func (RealSystem) WalkDir(root string, fn fs.WalkDirFunc) error {
	return filepath.WalkDir(root, fn)
}

// CopyFile copies src to dst atomically, creating parent directories.
func (RealSystem) CopyFile(src string, dst string) error {
	return fsutil.CopyFile(src, dst)
}

// Vault is the shadow tree, keyed by relative path. A file present at
// root/<relativePath> means that path's pre-update bytes are preserved.
type Vault struct {
	root string
	sys  System
}

// NewVault creates a vault rooted at root.
func NewVault(root string, sys System) *Vault {
	return &Vault{root: root, sys: sys}
}

// Root returns the vault's root directory.
func (v *Vault) Root() string {
	return v.root
}

// PathFor returns the shadow location for a relative path.
func (v *Vault) PathFor(relPath string) string {
	return filepath.Join(v.root, filepath.FromSlash(relPath))
}

// Exists reports whether the vault holds any snapshots.
func (v *Vault) Exists() bool {
	info, err := v.sys.Stat(v.root)
	return err == nil && info.IsDir()
}

// Has reports whether a snapshot exists for the relative path.
func (v *Vault) Has(relPath string) bool {
	_, err := v.sys.Stat(v.PathFor(relPath))
	return err == nil
}

// Backup preserves targetPath's current bytes under the relative path. A
// snapshot already present is left untouched: within one run the vault holds
// the pre-update bytes, taken exactly once before the first mutation.
func (v *Vault) Backup(relPath string, targetPath string) error {
	backupPath := v.PathFor(relPath)
	if _, err := v.sys.Stat(backupPath); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf(messages.ApplyBackupFailedFmt, relPath, err)
	}
	if err := v.sys.MkdirAll(filepath.Dir(backupPath), 0o755); err != nil {
		return fmt.Errorf(messages.ApplyBackupFailedFmt, relPath, err)
	}
	if err := v.sys.CopyFile(targetPath, backupPath); err != nil {
		return fmt.Errorf(messages.ApplyBackupFailedFmt, relPath, err)
	}
	return nil
}

// RestoreOne copies the snapshot for relPath back over targetPath. A missing
// snapshot is a no-op: the path was never backed up, so there is nothing to
// restore.
func (v *Vault) RestoreOne(relPath string, targetPath string) error {
	backupPath := v.PathFor(relPath)
	if _, err := v.sys.Stat(backupPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf(messages.ApplyRestoreFailedFmt, relPath, err)
	}
	if err := v.sys.CopyFile(backupPath, targetPath); err != nil {
		return fmt.Errorf(messages.ApplyRestoreFailedFmt, relPath, err)
	}
	return nil
}

// RestoreAll copies every snapshot in the vault to its relative path under
// installRoot, creating parent directories as needed.
func (v *Vault) RestoreAll(installRoot string) error {
	err := v.sys.WalkDir(v.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(v.root, path)
		if err != nil {
			return err
		}
		return v.sys.CopyFile(path, filepath.Join(installRoot, rel))
	})
	if err != nil {
		return fmt.Errorf(messages.BackupRestoreAllFmt, installRoot, err)
	}
	return nil
}

// Clear deletes the entire shadow tree. Called only when a run is confirmed
// complete and a new run begins.
func (v *Vault) Clear() error {
	if err := v.sys.RemoveAll(v.root); err != nil {
		return fmt.Errorf(messages.BackupClearFmt, v.root, err)
	}
	return nil
}
