package vergate

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// What-string markers embedded in shipped artifacts. The build marker carries
// the dotted build version, the product marker the dash-delimited product
// version.
const (
	buildMarker   = "@(#)build:"
	productMarker = "@(#)product:"
)

// maxArtifactScan caps how much of an artifact is read while scanning for
// markers. Version strings sit in early data sections in practice.
const maxArtifactScan = 16 * 1024 * 1024

// WhatStringSource reads versions from SCCS-style what-strings embedded in
// the artifact's bytes.
type WhatStringSource struct{}

// ReadVersions scans the artifact for the build and product markers.
func (WhatStringSource) ReadVersions(artifactPath string) (Versions, error) {
	file, err := os.Open(artifactPath)
	if err != nil {
		return Versions{}, fmt.Errorf("open artifact %s: %w", artifactPath, err)
	}
	defer func() {
		_ = file.Close()
	}()
	data, err := io.ReadAll(io.LimitReader(file, maxArtifactScan))
	if err != nil {
		return Versions{}, fmt.Errorf("read artifact %s: %w", artifactPath, err)
	}
	return Versions{
		Build:   scanMarker(data, buildMarker),
		Product: scanMarker(data, productMarker),
	}, nil
}

// scanMarker extracts the string following marker, terminated by NUL, a
// control byte, or a quote. Returns "" when the marker is absent.
func scanMarker(data []byte, marker string) string {
	idx := bytes.Index(data, []byte(marker))
	if idx < 0 {
		return ""
	}
	start := idx + len(marker)
	end := start
	for end < len(data) {
		b := data[end]
		if b < 0x20 || b == '"' || b == 0x7f {
			break
		}
		end++
	}
	return string(bytes.TrimSpace(data[start:end]))
}
