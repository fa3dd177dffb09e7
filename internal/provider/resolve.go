package provider

import "fmt"

// PrefStore supplies a stored provider preference for a workspace. An
// empty return means no preference.
type PrefStore interface {
	ProviderFor(workspacePath string) string
}

// resolveOrder is the fixed fallback order when neither an explicit id nor
// a workspace preference applies.
var resolveOrder = []string{"claude", "copilot", "codex", "opencode"}

// Resolve picks the provider governing a workspace. Precedence: explicit
// id, stored workspace preference, first installed tool in the fixed
// order, then the overall default. prefs may be nil.
func (r *Registry) Resolve(workspacePath, explicit string, prefs PrefStore) (Provider, error) {
	if explicit != "" {
		p := r.Get(explicit)
		if p == nil {
			return nil, fmt.Errorf("provider: unknown id %q", explicit)
		}
		return p, nil
	}

	if prefs != nil {
		if id := prefs.ProviderFor(workspacePath); id != "" {
			if p := r.Get(id); p != nil {
				return p, nil
			}
		}
	}

	for _, id := range resolveOrder {
		if p := r.Get(id); p != nil && Installed(p) {
			return p, nil
		}
	}

	// Nothing installed; fall back to the first registered default so
	// callers can still materialize commands and surface a launch error.
	if p := r.Get(resolveOrder[0]); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("provider: no providers registered")
}

// Resolve picks a provider using the default registry.
func Resolve(workspacePath, explicit string, prefs PrefStore) (Provider, error) {
	return Default.Resolve(workspacePath, explicit, prefs)
}
