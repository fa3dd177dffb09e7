package config

// GetDefaults returns the default configuration values.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"default_provider":   "",
		"permission_profile": "durable",
		"event_buffer":       256,
		"workspace_prefs":    "~/.clubhouse/workspaces.yaml",
	}
}
