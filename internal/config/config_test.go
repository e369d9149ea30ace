package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFilesAreSkipped(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadLaterFilesWin(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.json", `{"bucket":"base","host":"http://base:1"}`)
	override := writeFile(t, dir, "override.json", `{"bucket":"local"}`)

	cfg, err := Load(base, override)
	require.NoError(t, err)

	// The override replaces only the fields it sets.
	assert.Equal(t, "local", cfg.Bucket)
	assert.Equal(t, "http://base:1", cfg.Host)
	assert.Equal(t, Default().ListenAddr, cfg.ListenAddr)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	bad := writeFile(t, t.TempDir(), "bad.json", `{`)
	_, err := Load(bad)
	assert.Error(t, err)
}

func TestRemoteMapping(t *testing.T) {
	cfg := Default()
	cfg.Host = "http://db:9000"
	cfg.Bucket = "events"
	cfg.TimeoutSeconds = 3

	rc := cfg.Remote()
	assert.Equal(t, "http://db:9000", rc.Host)
	assert.Equal(t, "events", rc.Bucket)
	assert.Equal(t, 3*time.Second, rc.Timeout)
	assert.Equal(t, cfg.IOPoolSize, rc.IOPoolSize)
}
