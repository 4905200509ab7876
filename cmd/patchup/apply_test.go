package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conn-castle/patchup/internal/apply"
	"github.com/conn-castle/patchup/internal/checkpoint"
	"github.com/conn-castle/patchup/internal/delta"
	"github.com/conn-castle/patchup/internal/pkgfile"
	"github.com/conn-castle/patchup/internal/testutil"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := execute(append([]string{"patchup"}, args...), strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func stubTerminal(t *testing.T, interactive bool) {
	t.Helper()
	old := isTerminal
	isTerminal = func() bool { return interactive }
	t.Cleanup(func() { isTerminal = old })
}

func testManifest(entries ...pkgfile.Entry) pkgfile.Manifest {
	return pkgfile.Manifest{
		MetadataVersion: pkgfile.MetadataVersion,
		FromVersion:     "4.2.0.100",
		ToVersion:       "4.2.0.101",
		Entries:         entries,
	}
}

func TestApplyCommandEndToEnd(t *testing.T) {
	oldApp := []byte("app contents for build 100\n")
	newApp := []byte("app contents for build 101\n")
	payload := []byte("fresh helper\n")
	root := t.TempDir()
	testutil.SeedTree(t, root, map[string][]byte{
		"bin/app": oldApp,
		"old.cfg": []byte("stale"),
	})
	artifact := filepath.Join(root, "bin", "acmed")
	testutil.WriteArtifact(t, artifact, "4.2.0.100", "4.2-0-build.100")
	pkgPath := testutil.WritePackage(t, t.TempDir(), "update.pkg", testutil.PackageSpec{
		Metadata: testManifest(
			pkgfile.Entry{Path: "bin/app", State: pkgfile.StateModified, PatchAlgorithm: delta.Algorithm},
			pkgfile.Entry{Path: "share/helper", State: pkgfile.StateNew, Size: int64(len(payload))},
			pkgfile.Entry{Path: "old.cfg", State: pkgfile.StateDeleted},
		),
		Files: map[string][]byte{
			"bin/app.patch": delta.Build(oldApp, newApp),
			"share/helper":  payload,
		},
	})

	stdout, stderr, err := runCLI(t, "", "apply", pkgPath, "--root", root, "--artifact", artifact, "--yes")
	if err != nil {
		t.Fatalf("apply: %v (stderr: %s)", err, stderr)
	}
	if !strings.Contains(stdout, "Applied 3 operations (4.2.0.100 -> 4.2.0.101)") {
		t.Fatalf("stdout = %q, want completion notice", stdout)
	}

	tree := testutil.ReadTree(t, root)
	if string(tree["bin/app"]) != string(newApp) {
		t.Fatalf("bin/app = %q, want patched", tree["bin/app"])
	}
	if string(tree["share/helper"]) != string(payload) {
		t.Fatalf("share/helper = %q, want payload", tree["share/helper"])
	}
	if _, ok := tree["old.cfg"]; ok {
		t.Fatal("old.cfg should be deleted")
	}
	store := checkpoint.NewStore(apply.CheckpointPath(root), checkpoint.RealSystem{})
	if cp := store.Load(); cp == nil || !cp.IsCompleted {
		t.Fatalf("checkpoint = %+v, want completed", cp)
	}
}

func TestApplyVersionGateBlocksMismatch(t *testing.T) {
	root := t.TempDir()
	artifact := filepath.Join(root, "bin", "acmed")
	testutil.WriteArtifact(t, artifact, "9.9.9.9", "9.9-0")
	pkgPath := testutil.WritePackage(t, t.TempDir(), "update.pkg", testutil.PackageSpec{
		Metadata: testManifest(),
	})

	_, _, err := runCLI(t, "", "apply", pkgPath, "--root", root, "--artifact", artifact, "--yes")
	if err == nil || !strings.Contains(err.Error(), "does not match") {
		t.Fatalf("err = %v, want version gate failure", err)
	}
}

func TestApplySkipVersionCheckNeedsNoArtifact(t *testing.T) {
	root := t.TempDir()
	payload := []byte("x")
	pkgPath := testutil.WritePackage(t, t.TempDir(), "update.pkg", testutil.PackageSpec{
		Metadata: testManifest(pkgfile.Entry{Path: "f", State: pkgfile.StateNew}),
		Files:    map[string][]byte{"f": payload},
	})

	_, stderr, err := runCLI(t, "", "apply", pkgPath, "--root", root, "--yes", "--skip-version-check")
	if err != nil {
		t.Fatalf("apply: %v (stderr: %s)", err, stderr)
	}
	if content, readErr := os.ReadFile(filepath.Join(root, "f")); readErr != nil || string(content) != "x" {
		t.Fatalf("f = %q (%v)", content, readErr)
	}
}

func TestApplyFailedRunKeepsStateAndExitsSilently(t *testing.T) {
	root := t.TempDir()
	pkgPath := testutil.WritePackage(t, t.TempDir(), "update.pkg", testutil.PackageSpec{
		Metadata: testManifest(
			pkgfile.Entry{Path: "absent.bin", State: pkgfile.StateModified, PatchAlgorithm: delta.Algorithm},
		),
		Files: map[string][]byte{"absent.bin.patch": delta.Build(nil, []byte("y"))},
	})

	stdout, stderr, err := runCLI(t, "", "apply", pkgPath, "--root", root, "--yes", "--skip-version-check")
	var silent *SilentExitError
	if !errors.As(err, &silent) || silent.Code != 1 {
		t.Fatalf("err = %v, want silent exit 1", err)
	}
	if !strings.Contains(stderr, "absent.bin") {
		t.Fatalf("stderr = %q, want the failed entry named", stderr)
	}
	if !strings.Contains(stdout, "kept") {
		t.Fatalf("stdout = %q, want keep-state notice", stdout)
	}
	store := checkpoint.NewStore(apply.CheckpointPath(root), checkpoint.RealSystem{})
	cp := store.Load()
	if cp == nil || cp.LastError == "" || cp.CurrentIndex != 0 {
		t.Fatalf("checkpoint = %+v, want failed state retained", cp)
	}
}

func TestApplyWithoutYesRequiresTerminal(t *testing.T) {
	stubTerminal(t, false)
	root := t.TempDir()
	pkgPath := testutil.WritePackage(t, t.TempDir(), "update.pkg", testutil.PackageSpec{
		Metadata: testManifest(),
	})

	_, _, err := runCLI(t, "", "apply", pkgPath, "--root", root, "--skip-version-check")
	if err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("err = %v, want terminal requirement", err)
	}
}

func TestApplyRequiresRoot(t *testing.T) {
	t.Chdir(t.TempDir())
	pkgPath := testutil.WritePackage(t, t.TempDir(), "update.pkg", testutil.PackageSpec{
		Metadata: testManifest(),
	})
	_, _, err := runCLI(t, "", "apply", pkgPath, "--yes")
	if err == nil || !strings.Contains(err.Error(), "installation root") {
		t.Fatalf("err = %v, want root requirement", err)
	}
}
