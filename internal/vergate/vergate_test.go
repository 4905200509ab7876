package vergate

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/conn-castle/patchup/internal/testutil"
)

type stubSource struct {
	versions Versions
	err      error
}

func (s stubSource) ReadVersions(string) (Versions, error) {
	return s.versions, s.err
}

func TestProductStrategyMatchesFirstTwoComponents(t *testing.T) {
	gate := New(stubSource{versions: Versions{Product: "4-2-nightly-77", Build: "9.9.9.9"}})
	if !gate.Validate("4.2", "ignored") {
		t.Fatal("product strategy should match 4-2 against 4.2")
	}
}

func TestProductStrategyRequiresTwoComponents(t *testing.T) {
	gate := New(stubSource{versions: Versions{Product: "42"}})
	if gate.Validate("42", "ignored") {
		t.Fatal("single-component product must not match")
	}
}

func TestBuildStrategyExactEquality(t *testing.T) {
	gate := New(stubSource{versions: Versions{Build: "4.2.1.0"}})
	if !gate.Validate("4.2.1.0", "ignored") {
		t.Fatal("exact build match should pass")
	}
	if gate.Validate("4.2.1.1", "ignored") {
		t.Fatal("different build must not pass on strategy 2")
	}
}

func TestCrossFieldStrategy(t *testing.T) {
	// Build 4.2.7.123 matches expected 4.2.0.7: major and minor equal, and the
	// build's third component equals the expected's fourth.
	gate := New(stubSource{versions: Versions{Build: "4.2.7.123"}})
	if !gate.Validate("4.2.0.7", "ignored") {
		t.Fatal("cross-field strategy should pass")
	}
	if gate.Validate("4.3.0.7", "ignored") {
		t.Fatal("minor mismatch must fail")
	}
	if gate.Validate("4.2.0.8", "ignored") {
		t.Fatal("revision mismatch must fail")
	}
}

func TestStrategyOrderFirstMatchWins(t *testing.T) {
	// Product matches even though the build string would not.
	gate := New(stubSource{versions: Versions{Product: "1-5", Build: "junk"}})
	if !gate.Validate("1.5", "ignored") {
		t.Fatal("product strategy should win before build parsing")
	}
}

func TestFailsClosedOnUnparsableStrings(t *testing.T) {
	gate := New(stubSource{versions: Versions{Build: "not.a.version.x", Product: "weird"}})
	if gate.Validate("4.2.0.7", "ignored") {
		t.Fatal("unparsable build must fail closed")
	}
}

func TestFailsClosedOnThreePartExpected(t *testing.T) {
	gate := New(stubSource{versions: Versions{Build: "4.2.7.123"}})
	if gate.Validate("4.2.7", "ignored") {
		t.Fatal("three-part expected must fail strategy 3")
	}
}

func TestFailsClosedOnSourceError(t *testing.T) {
	gate := New(stubSource{err: errors.New("missing artifact")})
	if gate.Validate("4.2.0.0", "ignored") {
		t.Fatal("source error must fail closed")
	}
}

func TestWhatStringSourceReadsMarkers(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "bin", "app")
	testutil.WriteArtifact(t, artifact, "4.2.1.0", "4-2-stable")

	versions, err := WhatStringSource{}.ReadVersions(artifact)
	if err != nil {
		t.Fatalf("read versions: %v", err)
	}
	if versions.Build != "4.2.1.0" {
		t.Fatalf("build = %q, want 4.2.1.0", versions.Build)
	}
	if versions.Product != "4-2-stable" {
		t.Fatalf("product = %q, want 4-2-stable", versions.Product)
	}
}

func TestWhatStringSourceMissingArtifact(t *testing.T) {
	_, err := WhatStringSource{}.ReadVersions(filepath.Join(t.TempDir(), "absent"))
	if err == nil {
		t.Fatal("expected error for missing artifact")
	}
}

func TestGateWithWhatStringSourceEndToEnd(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "app")
	testutil.WriteArtifact(t, artifact, "4.2.1.0", "9-9-other")

	gate := New(WhatStringSource{})
	if !gate.Validate("4.2.1.0", artifact) {
		t.Fatal("gate should pass on exact build match")
	}
	if gate.Validate("5.0.0.0", artifact) {
		t.Fatal("gate should fail on mismatch")
	}
	if gate.Validate("4.2.0.0", filepath.Join(dir, "missing")) {
		t.Fatal("gate should fail closed on missing artifact")
	}
}
