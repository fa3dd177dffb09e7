// Package config loads the clubhouse application configuration from the
// global config file, an optional local override, and environment
// variables, in that priority order (env highest).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Configuration represents the clubhouse runtime configuration.
type Configuration struct {
	DefaultProvider   string `koanf:"default_provider" validate:"omitempty,oneof=claude copilot codex opencode"`
	PermissionProfile string `koanf:"permission_profile" validate:"required,oneof=quick durable"`
	EventBuffer       int    `koanf:"event_buffer" validate:"min=1,max=65536"`
	WorkspacePrefs    string `koanf:"workspace_prefs" validate:"required"`
}

// Load loads configuration from global, local, and environment sources.
// Priority: environment variables > local config > global config > defaults.
func Load(localConfigPath string) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range GetDefaults() {
		k.Set(key, value)
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		globalPath := filepath.Join(homeDir, ".clubhouse", "config.json")
		if _, err := os.Stat(globalPath); err == nil {
			if err := k.Load(file.Provider(globalPath), json.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load global config: %w", err)
			}
		}
	}

	if localConfigPath != "" {
		if _, err := os.Stat(localConfigPath); err == nil {
			if err := k.Load(file.Provider(localConfigPath), json.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load local config: %w", err)
			}
		}
	}

	k.Load(env.Provider("CLUBHOUSE_", ".", envTransform), nil)

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.WorkspacePrefs = expandHomePath(cfg.WorkspacePrefs)

	return &cfg, nil
}

// envTransform converts environment variable names to config keys.
// Example: CLUBHOUSE_DEFAULT_PROVIDER -> default_provider
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "CLUBHOUSE_"))
}

// expandHomePath expands ~ to the user's home directory.
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}
