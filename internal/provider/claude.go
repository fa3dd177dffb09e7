package provider

import (
	"fmt"
	"strings"

	"github.com/masra91/clubhouse/internal/claude"
)

// ClaudeCode implements Provider for the Claude Code CLI.
// Interactive: claude [--model m] [--allowedTools t]... [mission]
// Headless:    claude -p <mission> --output-format stream-json --verbose
type ClaudeCode struct{}

// NewClaudeCode creates the Claude Code provider.
func NewClaudeCode() *ClaudeCode {
	return &ClaudeCode{}
}

func (c *ClaudeCode) ID() string          { return "claude" }
func (c *ClaudeCode) DisplayName() string { return "Claude Code" }
func (c *ClaudeCode) ShortName() string   { return "Claude" }

func (c *ClaudeCode) Conventions() Conventions {
	return Conventions{
		ConfigDir:              ".claude",
		InstructionsFile:       "CLAUDE.md",
		LegacyInstructionsFile: "CLAUDE.local.md",
		MCPConfigFile:          ".mcp.json",
		SkillsDir:              ".claude/skills",
		AgentTemplatesDir:      ".claude/agents",
		LocalSettingsFile:      ".claude/settings.local.json",
	}
}

func (c *ClaudeCode) Capabilities() Caps {
	return Caps{
		Headless:         true,
		StructuredOutput: true,
		Hooks:            true,
		SessionResume:    true,
		Permissions:      true,
	}
}

func (c *ClaudeCode) BuildSpawnCommand(opts SpawnOptions) (SpawnCommand, error) {
	if opts.Cwd == "" {
		return SpawnCommand{}, fmt.Errorf("claude: cwd is required")
	}

	var args []string
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	for _, tool := range opts.AllowedTools {
		args = append(args, "--allowedTools", tool)
	}
	for _, tool := range opts.DisallowedTools {
		args = append(args, "--disallowedTools", tool)
	}
	if opts.SystemPrompt != "" {
		args = append(args, "--append-system-prompt", opts.SystemPrompt)
	}
	if opts.FreeAgent {
		args = append(args, "--dangerously-skip-permissions")
	}
	if opts.Mission != "" {
		args = append(args, opts.Mission)
	}

	return SpawnCommand{Binary: "claude", Args: args}, nil
}

func (c *ClaudeCode) BuildHeadlessCommand(opts SpawnOptions) *HeadlessCommand {
	if opts.Mission == "" {
		return nil
	}

	args := []string{"-p", opts.Mission, "--output-format", "stream-json", "--verbose"}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.SystemPrompt != "" {
		args = append(args, "--append-system-prompt", opts.SystemPrompt)
	}
	// Headless runs must never block on a permission prompt.
	args = append(args, "--dangerously-skip-permissions")

	return &HeadlessCommand{
		SpawnCommand: SpawnCommand{Binary: "claude", Args: args},
		Output:       OutputStreamJSON,
	}
}

func (c *ClaudeCode) WriteHooksConfig(workspacePath, agentID string, reg HookRegistration) error {
	return claude.WriteHooks(workspacePath, agentID, reg.Endpoint, reg.Nonce)
}

func (c *ClaudeCode) HookEventField() string { return "hook_event_name" }

// claudeEventKinds maps Claude's PascalCase hook event names to the closed
// kind set. SubagentStop folds into stop; permission prompts surface as
// PermissionRequest.
var claudeEventKinds = map[string]Kind{
	"PreToolUse":        KindPreTool,
	"PostToolUse":       KindPostTool,
	"Stop":              KindStop,
	"SubagentStop":      KindStop,
	"Notification":      KindNotification,
	"PermissionRequest": KindPermissionRequest,
}

func (c *ClaudeCode) ParseHookEvent(raw map[string]any) *HookEvent {
	if raw == nil {
		return nil
	}
	name, _ := raw["hook_event_name"].(string)
	kind, ok := claudeEventKinds[name]
	if !ok {
		return nil
	}

	ev := &HookEvent{Kind: kind}
	ev.ToolName, _ = raw["tool_name"].(string)
	if input, ok := raw["tool_input"].(map[string]any); ok {
		ev.ToolInput = input
	}
	ev.Message, _ = raw["message"].(string)

	// A PostToolUse whose tool_response reports failure is a tool error.
	if kind == KindPostTool {
		if resp, ok := raw["tool_response"].(map[string]any); ok {
			if isErr, _ := resp["is_error"].(bool); isErr {
				ev.Kind = KindToolError
			} else if success, ok := resp["success"].(bool); ok && !success {
				ev.Kind = KindToolError
			}
		}
	}
	return ev
}

var claudeToolVerbs = map[string]string{
	"Bash":         "Running command",
	"Edit":         "Editing file",
	"Write":        "Writing file",
	"Read":         "Reading file",
	"Glob":         "Searching files",
	"Grep":         "Searching code",
	"WebFetch":     "Fetching web page",
	"WebSearch":    "Searching the web",
	"Task":         "Delegating to subagent",
	"NotebookEdit": "Editing notebook",
	"TodoWrite":    "Updating todo list",
}

func (c *ClaudeCode) ToolVerb(toolName string) string {
	return claudeToolVerbs[toolName]
}

func (c *ClaudeCode) DefaultPermissions(kind AgentKind) []string {
	if kind == AgentQuick {
		return []string{
			"Read(**)",
			"Write(**)",
			"Edit(**)",
			"Glob(**)",
			"Grep(**)",
			"Bash(*)",
		}
	}
	return []string{
		"Read(**)",
		"Edit(**)",
		"Bash(git:*)",
		"Bash(npm:*)",
		"Bash(pnpm:*)",
		"Bash(yarn:*)",
		"Bash(go:*)",
	}
}

func (c *ClaudeCode) ModelOptions() []ModelOption {
	// The claude binary has no model listing command; report the known
	// aliases. A missing binary changes nothing here.
	return []ModelOption{
		{ID: "default", Label: "Default"},
		{ID: "sonnet", Label: "Claude Sonnet"},
		{ID: "opus", Label: "Claude Opus"},
		{ID: "haiku", Label: "Claude Haiku"},
	}
}

// joinPromptParts combines a system prompt and mission into one text block
// for tools that take a single prompt value.
func joinPromptParts(systemPrompt, mission string) string {
	parts := make([]string, 0, 2)
	if systemPrompt != "" {
		parts = append(parts, systemPrompt)
	}
	if mission != "" {
		parts = append(parts, mission)
	}
	return strings.Join(parts, "\n\n")
}
