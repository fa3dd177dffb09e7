package claude

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const endpoint = "http://127.0.0.1:41999"

func readSettings(t *testing.T, workspace string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(workspace, SettingsDir, SettingsFileName))
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	return parsed
}

func categoryEntries(t *testing.T, parsed map[string]any, category string) []any {
	t.Helper()
	hooks, ok := parsed["hooks"].(map[string]any)
	require.True(t, ok, "hooks object missing")
	entries, ok := hooks[category].([]any)
	require.True(t, ok, "category %s missing", category)
	return entries
}

func entryCommand(t *testing.T, entry any) string {
	t.Helper()
	m, ok := entry.(map[string]any)
	require.True(t, ok)
	inner, ok := m["hooks"].([]any)
	require.True(t, ok)
	require.Len(t, inner, 1)
	hook, ok := inner[0].(map[string]any)
	require.True(t, ok)
	cmd, _ := hook["command"].(string)
	return cmd
}

func TestWriteHooksFreshWorkspace(t *testing.T) {
	t.Parallel()
	workspace := t.TempDir()

	require.NoError(t, WriteHooks(workspace, "agent-1", endpoint, "cafe01"))

	parsed := readSettings(t, workspace)
	for _, category := range HookCategories {
		entries := categoryEntries(t, parsed, category)
		require.Len(t, entries, 1, "category %s", category)

		cmd := entryCommand(t, entries[0])
		assert.Contains(t, cmd, "/hook/agent-1/"+category)
		assert.Contains(t, cmd, "X-Clubhouse-Nonce: cafe01")
	}
}

func TestWriteHooksIdempotent(t *testing.T) {
	t.Parallel()
	workspace := t.TempDir()

	require.NoError(t, WriteHooks(workspace, "agent-1", endpoint, "nonce-one"))
	require.NoError(t, WriteHooks(workspace, "agent-2", endpoint, "nonce-two"))

	parsed := readSettings(t, workspace)
	for _, category := range HookCategories {
		entries := categoryEntries(t, parsed, category)
		require.Len(t, entries, 1, "rewrite must replace, not accumulate")

		cmd := entryCommand(t, entries[0])
		assert.Contains(t, cmd, "agent-2")
		assert.Contains(t, cmd, "nonce-two")
		assert.NotContains(t, cmd, "agent-1")
	}
}

func TestWriteHooksPreservesUserContent(t *testing.T) {
	t.Parallel()
	workspace := t.TempDir()
	dir := filepath.Join(workspace, SettingsDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	existing := `{
  "permissions": {"allow": ["Bash(git:*)"]},
  "model": "opus",
  "hooks": {
    "PreToolUse": [
      {"matcher": "Bash", "hooks": [{"type": "command", "command": "say tool"}]}
    ]
  }
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFileName), []byte(existing), 0o644))

	require.NoError(t, WriteHooks(workspace, "agent-1", endpoint, "cafe01"))

	parsed := readSettings(t, workspace)

	// Unrelated top-level keys survive byte-for-byte in meaning.
	assert.Equal(t, "opus", parsed["model"])
	perms, ok := parsed["permissions"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"Bash(git:*)"}, perms["allow"])

	// The user hook keeps its position; ours is appended after it.
	entries := categoryEntries(t, parsed, "PreToolUse")
	require.Len(t, entries, 2)
	assert.Equal(t, "say tool", entryCommand(t, entries[0]))
	assert.Contains(t, entryCommand(t, entries[1]), "/hook/agent-1/PreToolUse")
}

func TestLoadToleratesCorruptFile(t *testing.T) {
	t.Parallel()
	workspace := t.TempDir()
	dir := filepath.Join(workspace, SettingsDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFileName), []byte("{not json"), 0o644))

	require.NoError(t, WriteHooks(workspace, "agent-1", endpoint, "cafe01"))

	parsed := readSettings(t, workspace)
	entries := categoryEntries(t, parsed, "Stop")
	require.Len(t, entries, 1)
}

func TestLoadToleratesEmptyFile(t *testing.T) {
	t.Parallel()
	workspace := t.TempDir()
	dir := filepath.Join(workspace, SettingsDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFileName), nil, 0o644))

	s, err := Load(workspace)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SettingsFileName), s.FilePath())
	require.NoError(t, s.Save())
}

func TestSaveEndsWithNewline(t *testing.T) {
	t.Parallel()
	workspace := t.TempDir()

	require.NoError(t, WriteHooks(workspace, "agent-1", endpoint, "cafe01"))

	data, err := os.ReadFile(filepath.Join(workspace, SettingsDir, SettingsFileName))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "\n"))
}
