package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/conn-castle/patchup/internal/fsutil"
	"github.com/conn-castle/patchup/internal/messages"
)

// System abstracts the filesystem operations the store needs. Each package
// defines its own System so tests can inject faults without shared state.
type System interface {
	ReadFile(name string) ([]byte, error)
	WriteFileAtomic(filename string, data []byte, perm os.FileMode) error
	Remove(name string) error
	MkdirAll(path string, perm os.FileMode) error
}

// RealSystem implements System using the OS filesystem.
type RealSystem struct{}

// ReadFile reads the named file and returns the contents.
func (RealSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// WriteFileAtomic writes data via a temp file renamed into place.
func (RealSystem) WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	return fsutil.WriteFileAtomic(filename, data, perm)
}

// Remove removes the named file.
func (RealSystem) Remove(name string) error {
	return os.Remove(name)
}

// MkdirAll creates a directory named path, along with any necessary parents.
func (RealSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Store loads and persists the checkpoint record at a fixed path.
type Store struct {
	path string
	sys  System
}

// NewStore creates a store for the record at path.
func NewStore(path string, sys System) *Store {
	return &Store{path: path, sys: sys}
}

// Path returns the checkpoint file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted record, or nil when no usable record exists.
// A missing file, unreadable file, or malformed record all mean "no prior
// run"; load failures never propagate as fatal.
func (s *Store) Load() *Checkpoint {
	data, err := s.sys.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil
	}
	if !cp.valid() {
		return nil
	}
	return &cp
}

// Save persists the full record as an all-or-nothing write. The write goes
// through a temp file and rename so a crash never leaves a truncated record.
func (s *Store) Save(cp *Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf(messages.CheckpointSaveFmt, s.path, err)
	}
	data = append(data, '\n')
	if err := s.sys.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf(messages.CheckpointSaveFmt, s.path, err)
	}
	return nil
}

// Clear removes the checkpoint file. A missing file is not an error.
func (s *Store) Clear() error {
	if err := s.sys.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf(messages.CheckpointClearFmt, s.path, err)
	}
	return nil
}
