package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conn-castle/patchup/internal/config"
)

func TestResolveSettingsFlagsWin(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "patchup.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
[paths]
root = "/from/config"
artifact = "/from/config/bin"

[output]
quiet = true
`), 0o644))

	settings, err := resolveSettings(&rootOptions{
		configPath: configPath,
		root:       "/from/flag",
	})
	require.NoError(t, err)
	require.Equal(t, "/from/flag", settings.root)
	require.Equal(t, "/from/config/bin", settings.artifact)
	require.True(t, settings.quiet)
}

func TestResolveSettingsDefaultFileOptional(t *testing.T) {
	t.Chdir(t.TempDir())
	settings, err := resolveSettings(&rootOptions{root: "/r"})
	require.NoError(t, err)
	require.Equal(t, "/r", settings.root)
}

func TestResolveSettingsDefaultFilePickedUp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultFileName), []byte(`
[update]
feed_url = "https://updates.example.com/feed.json"
`), 0o644))
	t.Chdir(dir)

	settings, err := resolveSettings(&rootOptions{})
	require.NoError(t, err)
	require.Equal(t, "https://updates.example.com/feed.json", settings.feedURL)
}

func TestResolveSettingsExplicitConfigMustExist(t *testing.T) {
	_, err := resolveSettings(&rootOptions{configPath: filepath.Join(t.TempDir(), "absent.toml")})
	require.Error(t, err)
}

func TestRequireRootAndArtifact(t *testing.T) {
	var empty runSettings
	_, err := empty.requireRoot()
	require.Error(t, err)
	_, err = empty.requireArtifact()
	require.Error(t, err)

	full := runSettings{root: "/r", artifact: "/a"}
	root, err := full.requireRoot()
	require.NoError(t, err)
	require.Equal(t, "/r", root)
	artifact, err := full.requireArtifact()
	require.NoError(t, err)
	require.Equal(t, "/a", artifact)
}
