// Package vergate checks an installed artifact's embedded version strings
// against the version a package expects to update from.
package vergate

import (
	"strconv"
	"strings"
)

// Versions carries the two version strings embedded in an installed artifact.
type Versions struct {
	// Build is the build version string (dotted numeric form).
	Build string
	// Product is the product version string (dash-delimited form).
	Product string
}

// Source reads the embedded version strings from an installed artifact.
// Implementations are platform-specific fact providers.
type Source interface {
	ReadVersions(artifactPath string) (Versions, error)
}

// Gate validates installed versions against an expected source version.
type Gate struct {
	source Source
}

// New creates a gate backed by the given version source.
func New(source Source) *Gate {
	return &Gate{source: source}
}

// Validate reports whether the artifact at installedPath matches expected.
// Three strategies run in order, first match wins:
//
//  1. The product string's first two dash-delimited components, joined by a
//     dot, equal expected.
//  2. The build string equals expected exactly.
//  3. Both the build string and expected parse as four-component dotted
//     versions whose major and minor match and whose build third component
//     equals expected's fourth component. This cross-field rule is a
//     historical equivalence between two differently-shaped version
//     identifiers for the same release; the order and shape of all three
//     strategies is deliberate and must not be unified.
//
// The gate fails closed: a missing artifact, unreadable strings, or parse
// failure in strategy 3 all yield false. It never returns an error.
func (g *Gate) Validate(expected string, installedPath string) bool {
	versions, err := g.source.ReadVersions(installedPath)
	if err != nil {
		return false
	}
	if productMatches(versions.Product, expected) {
		return true
	}
	if versions.Build != "" && versions.Build == expected {
		return true
	}
	return crossFieldMatches(versions.Build, expected)
}

func productMatches(product string, expected string) bool {
	parts := strings.Split(product, "-")
	if len(parts) < 2 {
		return false
	}
	return parts[0]+"."+parts[1] == expected
}

func crossFieldMatches(build string, expected string) bool {
	buildParts, ok := parseFourPart(build)
	if !ok {
		return false
	}
	expectedParts, ok := parseFourPart(expected)
	if !ok {
		return false
	}
	return buildParts[0] == expectedParts[0] &&
		buildParts[1] == expectedParts[1] &&
		buildParts[2] == expectedParts[3]
}

func parseFourPart(raw string) ([4]int, bool) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 4 {
		return [4]int{}, false
	}
	var out [4]int
	for i, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil {
			return [4]int{}, false
		}
		out[i] = value
	}
	return out, true
}
