// Package config reads patchup.toml, the optional settings file that supplies
// defaults for flags shared across commands.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/patchup/internal/messages"
)

// DefaultFileName is the settings file looked up in the working directory
// when --config is not given.
const DefaultFileName = "patchup.toml"

// Settings is the parsed patchup.toml. Flags override any value set here.
type Settings struct {
	Paths  PathsSettings  `toml:"paths"`
	Update UpdateSettings `toml:"update"`
	Output OutputSettings `toml:"output"`
}

// PathsSettings locates the managed installation.
type PathsSettings struct {
	// Root is the installation root directory.
	Root string `toml:"root"`
	// Artifact is the installed file carrying embedded version strings.
	Artifact string `toml:"artifact"`
}

// UpdateSettings configures the release feed check.
type UpdateSettings struct {
	FeedURL string `toml:"feed_url"`
}

// OutputSettings configures presentation.
type OutputSettings struct {
	Quiet bool `toml:"quiet"`
}

// Load reads and parses the settings file at path. Unknown keys are rejected
// so a typo never silently falls back to a default.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(messages.ConfigReadFmt, path, err)
	}
	return Parse(data, path)
}

// LoadOptional behaves like Load but treats a missing file as empty settings.
// Any other failure, including a malformed file, still errors.
func LoadOptional(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf(messages.ConfigReadFmt, path, err)
	}
	return Parse(data, path)
}

// Parse parses settings TOML. data is the TOML content; source is used in
// error messages.
func Parse(data []byte, source string) (*Settings, error) {
	var settings Settings
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&settings); err != nil {
		return nil, fmt.Errorf(messages.ConfigDecodeFmt, source, err)
	}
	return &settings, nil
}
