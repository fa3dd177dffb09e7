// Package opencode reads and writes OpenCode's opencode.json, merging
// this system's hook registrations into the experimental hook section
// while preserving every other field byte-for-byte semantically.
package opencode

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/masra91/clubhouse/internal/hookcfg"
)

// SettingsFileName is the name of the OpenCode settings file, at the
// workspace root.
const SettingsFileName = "opencode.json"

// Hook categories OpenCode supports, with the event hint each callback
// URL carries. OpenCode hook bodies omit the event name, so the hint is
// what the ingestion server normalizes from.
const (
	categorySessionCompleted = "session_completed"
	categoryFileEdited       = "file_edited"

	hintStop     = "stop"
	hintPostTool = "postToolUse"
)

// Settings represents an OpenCode settings file. The experimental hook
// section is typed; everything else is preserved as raw JSON.
type Settings struct {
	extra    map[string]json.RawMessage
	hook     map[string]any
	filePath string
}

// Load reads and parses OpenCode settings from the workspace directory.
// Missing, empty, or corrupt files yield empty settings.
func Load(workspacePath string) (*Settings, error) {
	return loadFromPath(filepath.Join(workspacePath, SettingsFileName))
}

func loadFromPath(settingsPath string) (*Settings, error) {
	s := &Settings{
		extra:    make(map[string]json.RawMessage),
		hook:     make(map[string]any),
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

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// Corrupt file: treat as empty config.
		return s, nil
	}

	if expRaw, ok := raw["experimental"]; ok {
		var exp map[string]any
		if err := json.Unmarshal(expRaw, &exp); err == nil {
			if hook, ok := exp["hook"].(map[string]any); ok {
				s.hook = hook
			}
			delete(exp, "hook")
			// Keep sibling experimental keys around for save.
			if len(exp) > 0 {
				rest, err := json.Marshal(exp)
				if err == nil {
					raw["experimental"] = rest
				}
			} else {
				delete(raw, "experimental")
			}
		}
	}
	s.extra = raw
	return s, nil
}

// FilePath returns the path to the settings file.
func (s *Settings) FilePath() string {
	return s.filePath
}

// isOwnEntry matches hook entries whose command argv targets the loopback
// ingestion server.
func isOwnEntry(entry any) bool {
	m, ok := entry.(map[string]any)
	if !ok {
		return false
	}
	argv, _ := m["command"].([]any)
	for _, arg := range argv {
		if str, ok := arg.(string); ok && hookcfg.IsOwnCommand(str) {
			return true
		}
	}
	return false
}

// argvEntry builds one OpenCode hook entry with a command array.
func argvEntry(endpoint, agentID, hint, nonce string) map[string]any {
	argv := hookcfg.CallbackArgv(endpoint, agentID, hint, nonce)
	anyArgv := make([]any, len(argv))
	for i, a := range argv {
		anyArgv[i] = a
	}
	return map[string]any{"command": anyArgv}
}

// RegisterHooks merges fresh callback entries into the session_completed
// list and the file_edited pattern map, replacing any stale entries this
// system wrote before.
func (s *Settings) RegisterHooks(agentID, endpoint, nonce string) {
	completed, _ := s.hook[categorySessionCompleted].([]any)
	s.hook[categorySessionCompleted] = hookcfg.Merge(
		completed, argvEntry(endpoint, agentID, hintStop, nonce), isOwnEntry)

	// file_edited entries are keyed by glob pattern; ours watches all files.
	edited, _ := s.hook[categoryFileEdited].(map[string]any)
	if edited == nil {
		edited = make(map[string]any)
	}
	allFiles, _ := edited["*"].([]any)
	edited["*"] = hookcfg.Merge(
		allFiles, argvEntry(endpoint, agentID, hintPostTool, nonce), isOwnEntry)
	s.hook[categoryFileEdited] = edited
}

// Save writes the settings to disk using atomic write, reassembling the
// experimental.hook section around preserved fields.
func (s *Settings) Save() error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	result := make(map[string]any)
	for k, v := range s.extra {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("unmarshaling preserved field %s: %w", k, err)
		}
		result[k] = val
	}

	if len(s.hook) > 0 {
		exp, _ := result["experimental"].(map[string]any)
		if exp == nil {
			exp = make(map[string]any)
		}
		exp["hook"] = s.hook
		result["experimental"] = exp
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing settings: %w", err)
	}
	data = append(data, '\n')

	return atomicWrite(s.filePath, data)
}

// WriteHooks loads, merges, and saves in one call. Write failures
// propagate to the caller.
func WriteHooks(workspacePath, agentID, endpoint, nonce string) error {
	settings, err := Load(workspacePath)
	if err != nil {
		return fmt.Errorf("loading opencode settings: %w", err)
	}
	settings.RegisterHooks(agentID, endpoint, nonce)
	if err := settings.Save(); err != nil {
		return fmt.Errorf("saving opencode settings: %w", err)
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
