// Package instance enforces cross-process exclusivity for update runs via an
// advisory file lock. Exactly one patchup process may mutate an installation
// at a time.
package instance

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/conn-castle/patchup/internal/messages"
)

// ErrHeld reports that another process already holds the lock.
var ErrHeld = errors.New("instance lock held")

var flockFn = unix.Flock

// Guard is a held exclusive lock. It is acquired before any filesystem
// mutation and released unconditionally on process exit.
type Guard struct {
	file *os.File
	path string
}

// Acquire opens or creates the lock file at path and takes an exclusive
// advisory lock without blocking. Contention yields ErrHeld: the operator
// decides what to do, the process never waits.
func Acquire(path string) (*Guard, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf(messages.InstanceOpenLockFmt, path, err)
	}
	if err := flockFn(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = file.Close()
		if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
			return nil, fmt.Errorf(messages.InstanceHeldFmt+": %w", path, ErrHeld)
		}
		return nil, fmt.Errorf(messages.InstanceOpenLockFmt, path, err)
	}
	return &Guard{file: file, path: path}, nil
}

// Release unlocks and closes the lock file. Safe to call on a nil guard.
func (g *Guard) Release() error {
	if g == nil || g.file == nil {
		return nil
	}
	if err := flockFn(int(g.file.Fd()), unix.LOCK_UN); err != nil {
		_ = g.file.Close()
		return err
	}
	err := g.file.Close()
	g.file = nil
	return err
}

// Path returns the lock file location.
func (g *Guard) Path() string {
	return g.path
}
