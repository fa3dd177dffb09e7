package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateHome points the global config lookup at an empty directory.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolateHome(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "", cfg.DefaultProvider)
	assert.Equal(t, "durable", cfg.PermissionProfile)
	assert.Equal(t, 256, cfg.EventBuffer)
	assert.Equal(t, filepath.Join(home, ".clubhouse", "workspaces.yaml"), cfg.WorkspacePrefs)
}

func TestLoadGlobalConfig(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".clubhouse")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	global := `{"default_provider": "codex", "event_buffer": 512}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(global), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "codex", cfg.DefaultProvider)
	assert.Equal(t, 512, cfg.EventBuffer)
	assert.Equal(t, "durable", cfg.PermissionProfile, "unset keys keep their defaults")
}

func TestLoadLocalOverridesGlobal(t *testing.T) {
	home := isolateHome(t)
	dir := filepath.Join(home, ".clubhouse")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"default_provider": "codex"}`), 0o644))

	local := filepath.Join(t.TempDir(), "clubhouse.json")
	require.NoError(t, os.WriteFile(local,
		[]byte(`{"default_provider": "opencode", "permission_profile": "quick"}`), 0o644))

	cfg, err := Load(local)
	require.NoError(t, err)

	assert.Equal(t, "opencode", cfg.DefaultProvider)
	assert.Equal(t, "quick", cfg.PermissionProfile)
}

func TestLoadEnvOverridesEverything(t *testing.T) {
	isolateHome(t)
	local := filepath.Join(t.TempDir(), "clubhouse.json")
	require.NoError(t, os.WriteFile(local, []byte(`{"default_provider": "opencode"}`), 0o644))

	t.Setenv("CLUBHOUSE_DEFAULT_PROVIDER", "claude")
	t.Setenv("CLUBHOUSE_EVENT_BUFFER", "1024")

	cfg, err := Load(local)
	require.NoError(t, err)

	assert.Equal(t, "claude", cfg.DefaultProvider)
	assert.Equal(t, 1024, cfg.EventBuffer)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	isolateHome(t)
	t.Setenv("CLUBHOUSE_DEFAULT_PROVIDER", "gemini")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoadRejectsBadBuffer(t *testing.T) {
	isolateHome(t)
	t.Setenv("CLUBHOUSE_EVENT_BUFFER", "0")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoadRejectsBadProfile(t *testing.T) {
	isolateHome(t)
	t.Setenv("CLUBHOUSE_PERMISSION_PROFILE", "reckless")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoadMissingLocalFileIsFine(t *testing.T) {
	isolateHome(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Equal(t, "durable", cfg.PermissionProfile)
}
