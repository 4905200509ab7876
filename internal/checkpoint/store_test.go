package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func storeAt(t *testing.T, dir string) *Store {
	t.Helper()
	return NewStore(filepath.Join(dir, "checkpoint.json"), RealSystem{})
}

func TestLoadMissingFileYieldsNil(t *testing.T) {
	store := storeAt(t, t.TempDir())
	if cp := store.Load(); cp != nil {
		t.Fatalf("expected nil checkpoint, got %+v", cp)
	}
}

func TestLoadCorruptFileYieldsNil(t *testing.T) {
	dir := t.TempDir()
	store := storeAt(t, dir)
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}
	if cp := store.Load(); cp != nil {
		t.Fatalf("expected nil checkpoint for corrupt file, got %+v", cp)
	}
}

func TestLoadRejectsRecordsMissingVersions(t *testing.T) {
	dir := t.TempDir()
	store := storeAt(t, dir)
	if err := os.WriteFile(store.Path(), []byte(`{"current_index": 3}`), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if cp := store.Load(); cp != nil {
		t.Fatalf("expected nil checkpoint for versionless record, got %+v", cp)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := storeAt(t, dir)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cp := New("4.2.0.0", "4.2.1.0", now)
	cp.CurrentIndex = 2
	cp.LastError = "entry 2 failed"
	if err := store.Save(cp); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := store.Load()
	if loaded == nil {
		t.Fatal("load returned nil")
	}
	if loaded.FromVersion != "4.2.0.0" || loaded.ToVersion != "4.2.1.0" {
		t.Fatalf("versions = %s -> %s", loaded.FromVersion, loaded.ToVersion)
	}
	if loaded.CurrentIndex != 2 {
		t.Fatalf("current_index = %d, want 2", loaded.CurrentIndex)
	}
	if loaded.LastError != "entry 2 failed" {
		t.Fatalf("last_error = %q", loaded.LastError)
	}
	if !loaded.StartedAt.Equal(now) {
		t.Fatalf("started_at = %v, want %v", loaded.StartedAt, now)
	}
	if loaded.IsCompleted || loaded.CompletedAt != nil {
		t.Fatal("fresh record must not be completed")
	}
}

func TestMarkCompleted(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cp := New("1.0.0.0", "1.0.1.0", now)
	cp.CurrentIndex = 5
	cp.LastError = "stale"
	cp.MarkCompleted(now.Add(time.Minute))
	if !cp.IsCompleted {
		t.Fatal("IsCompleted not set")
	}
	if cp.CompletedAt == nil || !cp.CompletedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("completed_at = %v", cp.CompletedAt)
	}
	if cp.LastError != "" {
		t.Fatalf("last_error = %q, want empty", cp.LastError)
	}
}

func TestMatches(t *testing.T) {
	cp := New("1.0.0.0", "2.0.0.0", time.Now())
	if !cp.Matches("1.0.0.0", "2.0.0.0") {
		t.Fatal("expected match")
	}
	if cp.Matches("1.0.0.0", "3.0.0.0") {
		t.Fatal("expected mismatch on to_version")
	}
	if cp.Matches("0.9.0.0", "2.0.0.0") {
		t.Fatal("expected mismatch on from_version")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	store := storeAt(t, dir)
	if err := store.Clear(); err != nil {
		t.Fatalf("clear of missing file: %v", err)
	}
	if err := store.Save(New("1.0.0.0", "1.0.1.0", time.Now())); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Fatal("checkpoint file still present after clear")
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestSaveLeavesNoPartialFiles(t *testing.T) {
	dir := t.TempDir()
	store := storeAt(t, dir)
	if err := store.Save(New("1.0.0.0", "1.0.1.0", time.Now())); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dir entries = %d, want 1 (no temp leftovers)", len(entries))
	}
}
