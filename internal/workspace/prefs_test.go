package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	p := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, "", p.ProviderFor("/tmp/ws"))
}

func TestLoadUnparseableFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "workspaces.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - not: [valid"), 0o644))

	p := Load(path)
	assert.Equal(t, "", p.ProviderFor("/tmp/ws"))
}

func TestSetPersistsAcrossLoads(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "workspaces.yaml")
	p := Load(path)

	require.NoError(t, p.Set("/home/dev/api", "codex"))
	require.NoError(t, p.Set("/home/dev/web", "opencode"))

	reloaded := Load(path)
	assert.Equal(t, "codex", reloaded.ProviderFor("/home/dev/api"))
	assert.Equal(t, "opencode", reloaded.ProviderFor("/home/dev/web"))
	assert.Equal(t, "", reloaded.ProviderFor("/home/dev/other"))
}

func TestRemove(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "workspaces.yaml")
	p := Load(path)

	require.NoError(t, p.Set("/home/dev/api", "codex"))
	require.NoError(t, p.Remove("/home/dev/api"))

	assert.Equal(t, "", p.ProviderFor("/home/dev/api"))
	assert.Equal(t, "", Load(path).ProviderFor("/home/dev/api"))
}

func TestSetOverwrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "workspaces.yaml")
	p := Load(path)

	require.NoError(t, p.Set("/home/dev/api", "codex"))
	require.NoError(t, p.Set("/home/dev/api", "claude"))

	assert.Equal(t, "claude", Load(path).ProviderFor("/home/dev/api"))
}
