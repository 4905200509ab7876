package instance

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patchup.lock")
	guard, err := Acquire(path)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if guard.Path() != path {
		t.Fatalf("path = %q, want %q", guard.Path(), path)
	}
	if err := guard.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestSecondAcquireFailsWhileHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patchup.lock")
	guard, err := Acquire(path)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer func() {
		_ = guard.Release()
	}()

	_, err = Acquire(path)
	if !errors.Is(err, ErrHeld) {
		t.Fatalf("second acquire err = %v, want ErrHeld", err)
	}
}

func TestAcquirePossibleAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patchup.lock")
	first, err := Acquire(path)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	second, err := Acquire(path)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if err := second.Release(); err != nil {
		t.Fatalf("second release: %v", err)
	}
}

func TestReleaseNilGuardIsSafe(t *testing.T) {
	var guard *Guard
	if err := guard.Release(); err != nil {
		t.Fatalf("nil release: %v", err)
	}
}

func TestAcquireUnwritableDir(t *testing.T) {
	_, err := Acquire(filepath.Join(t.TempDir(), "no", "such", "dir", "lock"))
	if err == nil {
		t.Fatal("expected error for missing lock directory")
	}
}
