// Package testutil provides shared test fixtures: update-package archives,
// seeded install trees, and artifacts with embedded version strings.
package testutil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
)

// PackageSpec describes an update package to synthesize for a test.
// Metadata is marshaled into the UpdateInfo entry; Files maps logical entry
// names (payloads at the relative path, patches at path+".patch") to bytes.
type PackageSpec struct {
	Metadata any
	Files    map[string][]byte
	// OmitMetadata suppresses the UpdateInfo entry.
	OmitMetadata bool
	// ExtraMetadataEntries adds duplicate UpdateInfo entries.
	ExtraMetadataEntries int
}

// WritePackage builds a package zip under dir and returns its path.
// t is the active test; dir is the output directory; name is the file name.
func WritePackage(t *testing.T, dir string, name string, spec PackageSpec) string {
	t.Helper()
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	if !spec.OmitMetadata {
		data, err := json.Marshal(spec.Metadata)
		if err != nil {
			t.Fatalf("marshal metadata: %v", err)
		}
		writeZipEntry(t, writer, "UpdateInfo", data)
		for i := 0; i < spec.ExtraMetadataEntries; i++ {
			writeZipEntry(t, writer, "./UpdateInfo", data)
		}
	}
	for entryName, content := range spec.Files {
		writeZipEntry(t, writer, entryName, content)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write package: %v", err)
	}
	return path
}

func writeZipEntry(t *testing.T, writer *zip.Writer, name string, content []byte) {
	t.Helper()
	entry, err := writer.Create(name)
	if err != nil {
		t.Fatalf("create zip entry %s: %v", name, err)
	}
	if _, err := entry.Write(content); err != nil {
		t.Fatalf("write zip entry %s: %v", name, err)
	}
}

// SeedTree writes the given relative-path -> content files under root.
// t is the active test; root is the tree root.
func SeedTree(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

// ReadTree returns every regular file under root keyed by slash-separated
// relative path. t is the active test; root is the tree root.
func ReadTree(t *testing.T, root string) map[string][]byte {
	t.Helper()
	out := make(map[string][]byte)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = content
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return out
}

// WriteArtifact writes a fake installed artifact embedding what-string
// version markers. t is the active test; path is the artifact location;
// build and product are the embedded version strings.
func WriteArtifact(t *testing.T, path string, build string, product string) {
	t.Helper()
	var buf bytes.Buffer
	buf.Write([]byte{0x7f, 'E', 'L', 'F', 0x00})
	buf.WriteString("@(#)build:" + build)
	buf.WriteByte(0x00)
	buf.Write(bytes.Repeat([]byte{0xCC}, 64))
	buf.WriteString("@(#)product:" + product)
	buf.WriteByte(0x00)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for artifact: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o755); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}
