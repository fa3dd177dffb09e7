// Package provider defines the adapter contract for external CLI coding
// agents and one concrete implementation per supported tool (Claude Code,
// Copilot CLI, Codex CLI, OpenCode). Providers are stateless: they turn
// abstract intent into tool-specific command lines, config fragments, and
// normalized events. All implementations must be safe for concurrent use.
package provider

import (
	"time"
)

// Conventions describes the file and directory layout a tool expects for
// its own configuration. Paths are relative to the workspace root unless
// noted otherwise. Used by config materialization only, never by the
// ingestion server.
type Conventions struct {
	// ConfigDir is the tool's per-workspace configuration directory.
	ConfigDir string

	// InstructionsFile is the tool's project instructions file.
	InstructionsFile string

	// LegacyInstructionsFile is the older, local-only instructions file,
	// empty if the tool never had one.
	LegacyInstructionsFile string

	// MCPConfigFile is where the tool reads MCP server definitions.
	MCPConfigFile string

	// SkillsDir holds reusable skill/command definitions.
	SkillsDir string

	// AgentTemplatesDir holds custom agent templates.
	AgentTemplatesDir string

	// LocalSettingsFile is the settings file hook registrations merge into.
	LocalSettingsFile string
}

// Caps contains static feature flags for a tool. Callers branch on these
// rather than on provider identity.
type Caps struct {
	// Headless indicates support for non-interactive single-shot runs.
	Headless bool

	// StructuredOutput indicates the headless mode can emit a structured
	// stream rather than plain text.
	StructuredOutput bool

	// Hooks indicates the tool supports lifecycle hook callbacks.
	Hooks bool

	// SessionResume indicates a previous session can be resumed.
	SessionResume bool

	// Permissions indicates the tool has a permission model at all.
	Permissions bool
}

// SpawnOptions configures an interactive or headless agent invocation.
type SpawnOptions struct {
	// Cwd is the workspace the agent operates in. Required.
	Cwd string

	// Model selects a specific model, empty for the tool default.
	Model string

	// AllowedTools / DisallowedTools are permission entries in the tool's
	// own syntax. Tools without per-tool flags ignore them.
	AllowedTools    []string
	DisallowedTools []string

	// SystemPrompt is extra system-level instruction text.
	SystemPrompt string

	// Mission is the task text. Required for headless commands.
	Mission string

	// FreeAgent skips the tool's permission prompts entirely. Mapped to a
	// tool-specific bypass flag, or to nothing for tools without one.
	FreeAgent bool
}

// SpawnCommand is a fully materialized process invocation.
type SpawnCommand struct {
	Binary string
	Args   []string
	Env    map[string]string
}

// OutputKind identifies how headless stdout should be parsed.
type OutputKind string

const (
	OutputStreamJSON OutputKind = "stream-json"
	OutputText       OutputKind = "text"
)

// HeadlessCommand is a SpawnCommand plus the stdout format the caller
// should expect.
type HeadlessCommand struct {
	SpawnCommand
	Output OutputKind
}

// HookRegistration carries everything a provider needs to write a hook
// callback into the tool's config: where to POST and the per-instance
// secret the server will check.
type HookRegistration struct {
	// Endpoint is the ingestion server base, e.g. "http://127.0.0.1:49213".
	Endpoint string

	// Nonce is the per-spawn secret sent back in the X-Clubhouse-Nonce
	// header by the registered callback.
	Nonce string
}

// AgentKind selects a default permission profile.
type AgentKind string

const (
	// AgentQuick gets broad file-tool access for short-lived tasks.
	AgentQuick AgentKind = "quick"

	// AgentDurable gets narrower, git/package-manager-scoped shell
	// permissions for long-running agents.
	AgentDurable AgentKind = "durable"
)

// ModelOption is one selectable model.
type ModelOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Kind is the closed set of normalized hook event kinds.
type Kind string

const (
	KindPreTool           Kind = "pre_tool"
	KindPostTool          Kind = "post_tool"
	KindToolError         Kind = "tool_error"
	KindStop              Kind = "stop"
	KindNotification      Kind = "notification"
	KindPermissionRequest Kind = "permission_request"
)

// HookEvent is a normalized lifecycle event from a spawned agent.
// Unrecognized raw events never produce a HookEvent; ParseHookEvent
// returns nil instead of inventing a kind outside the closed set.
type HookEvent struct {
	Kind      Kind           `json:"kind"`
	ToolName  string         `json:"toolName,omitempty"`
	ToolInput map[string]any `json:"toolInput,omitempty"`
	Message   string         `json:"message,omitempty"`
	ToolVerb  string         `json:"toolVerb,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Provider is the adapter for one external CLI agent tool. Implementations
// are immutable value types; one static instance per tool is registered at
// package init.
type Provider interface {
	// ID returns the unique lowercase identifier (e.g. "claude").
	ID() string

	// DisplayName returns the full product name for UI use.
	DisplayName() string

	// ShortName returns a compact label for dense UI surfaces.
	ShortName() string

	// Conventions returns the tool's file layout.
	Conventions() Conventions

	// Capabilities returns the tool's static feature flags.
	Capabilities() Caps

	// BuildSpawnCommand maps options to an interactive invocation.
	// opts.Cwd is required.
	BuildSpawnCommand(opts SpawnOptions) (SpawnCommand, error)

	// BuildHeadlessCommand maps options to a single-shot invocation.
	// Returns nil when opts.Mission is empty; this precondition is
	// identical across all providers.
	BuildHeadlessCommand(opts SpawnOptions) *HeadlessCommand

	// WriteHooksConfig idempotently merges this system's callback
	// registration into the tool's settings file under workspacePath.
	// Re-running replaces stale registrations instead of accumulating
	// them; user-authored entries and unrelated keys are preserved.
	// No-op for tools without the Hooks capability.
	WriteHooksConfig(workspacePath, agentID string, reg HookRegistration) error

	// ParseHookEvent normalizes a tool-native event payload. Returns nil
	// for non-object input and unknown event names; never panics.
	ParseHookEvent(raw map[string]any) *HookEvent

	// HookEventField returns the key the tool's payloads carry the event
	// name under. The server injects the URL event hint there when the
	// payload omits it.
	HookEventField() string

	// ToolVerb returns a human gerund phrase for a tool name, or "" when
	// the tool is unknown; callers fall back to "Using {toolName}".
	ToolVerb(toolName string) string

	// DefaultPermissions returns a permission list in the tool's own
	// syntax for the given agent kind.
	DefaultPermissions(kind AgentKind) []string

	// ModelOptions lists selectable models, probing the installed binary
	// where the tool supports it and falling back to a static list. Never
	// returns an error; the fallback always includes a "default" entry.
	ModelOptions() []ModelOption
}

// FallbackVerb is the caller-side default when a provider has no verb for
// a tool name.
func FallbackVerb(toolName string) string {
	if toolName == "" {
		return ""
	}
	return "Using " + toolName
}
