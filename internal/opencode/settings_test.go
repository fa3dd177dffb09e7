package opencode

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const endpoint = "http://127.0.0.1:41999"

func readSettings(t *testing.T, workspace string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(workspace, SettingsFileName))
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	return parsed
}

func hookSection(t *testing.T, parsed map[string]any) map[string]any {
	t.Helper()
	exp, ok := parsed["experimental"].(map[string]any)
	require.True(t, ok, "experimental section missing")
	hook, ok := exp["hook"].(map[string]any)
	require.True(t, ok, "hook section missing")
	return hook
}

func entryURL(t *testing.T, entry any) string {
	t.Helper()
	m, ok := entry.(map[string]any)
	require.True(t, ok)
	argv, ok := m["command"].([]any)
	require.True(t, ok)
	require.NotEmpty(t, argv)
	url, _ := argv[len(argv)-1].(string)
	return url
}

func TestWriteHooksFreshWorkspace(t *testing.T) {
	t.Parallel()
	workspace := t.TempDir()

	require.NoError(t, WriteHooks(workspace, "agent-1", endpoint, "cafe01"))

	hook := hookSection(t, readSettings(t, workspace))

	completed, ok := hook["session_completed"].([]any)
	require.True(t, ok)
	require.Len(t, completed, 1)
	assert.Equal(t, endpoint+"/hook/agent-1/stop", entryURL(t, completed[0]))

	edited, ok := hook["file_edited"].(map[string]any)
	require.True(t, ok)
	allFiles, ok := edited["*"].([]any)
	require.True(t, ok)
	require.Len(t, allFiles, 1)
	assert.Equal(t, endpoint+"/hook/agent-1/postToolUse", entryURL(t, allFiles[0]))
}

func TestWriteHooksIdempotent(t *testing.T) {
	t.Parallel()
	workspace := t.TempDir()

	require.NoError(t, WriteHooks(workspace, "agent-1", endpoint, "nonce-one"))
	require.NoError(t, WriteHooks(workspace, "agent-2", endpoint, "nonce-two"))

	hook := hookSection(t, readSettings(t, workspace))

	completed, _ := hook["session_completed"].([]any)
	require.Len(t, completed, 1, "rewrite must replace, not accumulate")
	assert.Contains(t, entryURL(t, completed[0]), "agent-2")

	edited, _ := hook["file_edited"].(map[string]any)
	allFiles, _ := edited["*"].([]any)
	require.Len(t, allFiles, 1)
	assert.Contains(t, entryURL(t, allFiles[0]), "agent-2")
}

func TestWriteHooksPreservesUserContent(t *testing.T) {
	t.Parallel()
	workspace := t.TempDir()

	existing := `{
  "$schema": "https://opencode.ai/config.json",
  "model": "anthropic/claude-sonnet-4-5",
  "permission": {"edit": "allow"},
  "experimental": {
    "disabled_providers": ["azure"],
    "hook": {
      "session_completed": [
        {"command": ["say", "done"]}
      ]
    }
  }
}`
	require.NoError(t, os.WriteFile(filepath.Join(workspace, SettingsFileName), []byte(existing), 0o644))

	require.NoError(t, WriteHooks(workspace, "agent-1", endpoint, "cafe01"))

	parsed := readSettings(t, workspace)

	assert.Equal(t, "https://opencode.ai/config.json", parsed["$schema"])
	assert.Equal(t, "anthropic/claude-sonnet-4-5", parsed["model"])
	perm, ok := parsed["permission"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "allow", perm["edit"])

	// Sibling experimental keys survive next to the hook section.
	exp, ok := parsed["experimental"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"azure"}, exp["disabled_providers"])

	hook := hookSection(t, parsed)
	completed, _ := hook["session_completed"].([]any)
	require.Len(t, completed, 2)

	// The user entry keeps its position; ours is appended.
	first, _ := completed[0].(map[string]any)
	assert.Equal(t, []any{"say", "done"}, first["command"])
	assert.Contains(t, entryURL(t, completed[1]), "/hook/agent-1/stop")
}

func TestLoadToleratesCorruptFile(t *testing.T) {
	t.Parallel()
	workspace := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workspace, SettingsFileName), []byte("{oops"), 0o644))

	require.NoError(t, WriteHooks(workspace, "agent-1", endpoint, "cafe01"))

	hook := hookSection(t, readSettings(t, workspace))
	completed, _ := hook["session_completed"].([]any)
	require.Len(t, completed, 1)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	workspace := t.TempDir()

	s, err := Load(workspace)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workspace, SettingsFileName), s.FilePath())
}
