// Package workspace stores per-workspace provider preferences: a small
// yaml map of workspace path to provider id, consulted by the resolver
// before availability probing kicks in.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultPrefsFile is the global preference file location, under the
// user's home directory.
const DefaultPrefsFile = ".clubhouse/workspaces.yaml"

// Prefs is a provider preference store backed by one yaml file. Safe for
// concurrent use.
type Prefs struct {
	mu       sync.RWMutex
	filePath string
	byPath   map[string]string
}

// Load reads the preference file. A missing or unparseable file yields an
// empty store; preferences are a convenience, never a startup blocker.
func Load(filePath string) *Prefs {
	p := &Prefs{
		filePath: filePath,
		byPath:   make(map[string]string),
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return p
	}

	var parsed map[string]string
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return p
	}
	if parsed != nil {
		p.byPath = parsed
	}
	return p
}

// DefaultPath returns the global preference file path, or "" when the
// home directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultPrefsFile)
}

// ProviderFor returns the stored provider id for a workspace, empty when
// none is set. Implements provider.PrefStore.
func (p *Prefs) ProviderFor(workspacePath string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.byPath[workspacePath]
}

// Set records a preference and persists the file.
func (p *Prefs) Set(workspacePath, providerID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byPath[workspacePath] = providerID
	return p.save()
}

// Remove deletes a preference and persists the file.
func (p *Prefs) Remove(workspacePath string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.byPath, workspacePath)
	return p.save()
}

func (p *Prefs) save() error {
	dir := filepath.Dir(p.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(p.byPath)
	if err != nil {
		return fmt.Errorf("serializing workspace prefs: %w", err)
	}

	tmpPath := p.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing workspace prefs: %w", err)
	}
	if err := os.Rename(tmpPath, p.filePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming workspace prefs: %w", err)
	}
	return nil
}
