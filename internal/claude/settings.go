// Package claude reads and writes Claude Code's per-workspace settings
// file, merging this system's hook registrations into it without touching
// anything the user put there.
package claude

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/masra91/clubhouse/internal/hookcfg"
)

// SettingsFileName is the name of the Claude settings file.
const SettingsFileName = "settings.local.json"

// SettingsDir is the directory containing Claude settings.
const SettingsDir = ".claude"

// HookCategories are the hook event categories registered for Claude, in
// write order. The category name is also the event hint segment of the
// callback URL.
var HookCategories = []string{"PreToolUse", "PostToolUse", "Stop", "Notification"}

// Settings represents a Claude settings file with flexible JSON structure.
// Uses map[string]any to preserve unknown fields during modification.
type Settings struct {
	data     map[string]any
	filePath string
}

// Load reads and parses Claude settings from the workspace directory.
// A missing, empty, or unparseable file yields empty settings: hook
// registration must succeed on a fresh workspace, and a corrupt file is
// the tool's problem, not ours.
func Load(workspacePath string) (*Settings, error) {
	return loadFromPath(filepath.Join(workspacePath, SettingsDir, SettingsFileName))
}

func loadFromPath(settingsPath string) (*Settings, error) {
	s := &Settings{
		data:     make(map[string]any),
		filePath: settingsPath,
	}

	data, err := os.ReadFile(settingsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading settings file %s: %w", settingsPath, err)
	}

	if len(data) == 0 {
		return s, nil
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		// Corrupt file: treat as empty config.
		return s, nil
	}
	s.data = parsed
	return s, nil
}

// FilePath returns the path to the settings file.
func (s *Settings) FilePath() string {
	return s.filePath
}

// hookList returns the entry list for one category, nil if absent.
func (s *Settings) hookList(category string) []any {
	hooks, ok := s.data["hooks"].(map[string]any)
	if !ok {
		return nil
	}
	entries, _ := hooks[category].([]any)
	return entries
}

// setHookList replaces the entry list for one category, creating the
// hooks object if needed.
func (s *Settings) setHookList(category string, entries []any) {
	hooks, ok := s.data["hooks"].(map[string]any)
	if !ok {
		hooks = make(map[string]any)
		s.data["hooks"] = hooks
	}
	hooks[category] = entries
}

// hookEntry builds one Claude hook matcher entry running the callback
// command for the given category.
func hookEntry(endpoint, agentID, category, nonce string) map[string]any {
	return map[string]any{
		"matcher": "*",
		"hooks": []any{
			map[string]any{
				"type":    "command",
				"command": hookcfg.CallbackCommand(endpoint, agentID, category, nonce),
			},
		},
	}
}

// isOwnEntry reports whether a matcher entry carries a command this
// system wrote. User entries, whatever their shape, are never matched.
func isOwnEntry(entry any) bool {
	m, ok := entry.(map[string]any)
	if !ok {
		return false
	}
	inner, _ := m["hooks"].([]any)
	for _, h := range inner {
		hm, ok := h.(map[string]any)
		if !ok {
			continue
		}
		if cmd, _ := hm["command"].(string); hookcfg.IsOwnCommand(cmd) {
			return true
		}
	}
	return false
}

// RegisterHooks merges a fresh callback entry into every supported hook
// category, replacing any entry this system wrote before.
func (s *Settings) RegisterHooks(agentID, endpoint, nonce string) {
	for _, category := range HookCategories {
		fresh := hookEntry(endpoint, agentID, category, nonce)
		s.setHookList(category, hookcfg.Merge(s.hookList(category), fresh, isOwnEntry))
	}
}

// Save writes the settings to disk using atomic write (temp file +
// rename), creating the .claude directory if needed.
func (s *Settings) Save() error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing settings: %w", err)
	}
	data = append(data, '\n')

	return atomicWrite(s.filePath, data)
}

// WriteHooks loads, merges, and saves in one call. A failed write
// surfaces to the caller: an agent with no hook registration would
// silently never report events.
func WriteHooks(workspacePath, agentID, endpoint, nonce string) error {
	settings, err := Load(workspacePath)
	if err != nil {
		return fmt.Errorf("loading claude settings: %w", err)
	}
	settings.RegisterHooks(agentID, endpoint, nonce)
	if err := settings.Save(); err != nil {
		return fmt.Errorf("saving claude settings: %w", err)
	}
	return nil
}

// atomicWrite writes data to a file atomically using temp file + rename.
func atomicWrite(filePath string, data []byte) error {
	dir := filepath.Dir(filePath)
	tmpFile, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, filePath); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", filePath, err)
	}

	tmpPath = ""
	return nil
}
