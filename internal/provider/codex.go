package provider

import "fmt"

// CodexCLI implements Provider for the OpenAI Codex CLI.
// Interactive spawn takes at most a model flag, a bypass flag, and one
// positional prompt; empty options produce an empty argument list.
type CodexCLI struct{}

// NewCodexCLI creates the Codex CLI provider.
func NewCodexCLI() *CodexCLI {
	return &CodexCLI{}
}

func (c *CodexCLI) ID() string          { return "codex" }
func (c *CodexCLI) DisplayName() string { return "OpenAI Codex CLI" }
func (c *CodexCLI) ShortName() string   { return "Codex" }

func (c *CodexCLI) Conventions() Conventions {
	return Conventions{
		ConfigDir:         ".codex",
		InstructionsFile:  "AGENTS.md",
		MCPConfigFile:     ".codex/config.toml",
		SkillsDir:         ".codex/prompts",
		AgentTemplatesDir: ".codex/agents",
		LocalSettingsFile: ".codex/config.toml",
	}
}

func (c *CodexCLI) Capabilities() Caps {
	return Caps{
		Headless:         true,
		StructuredOutput: true,
		Hooks:            false,
		SessionResume:    true,
		Permissions:      true,
	}
}

func (c *CodexCLI) BuildSpawnCommand(opts SpawnOptions) (SpawnCommand, error) {
	if opts.Cwd == "" {
		return SpawnCommand{}, fmt.Errorf("codex: cwd is required")
	}

	var args []string
	if opts.Model != "" {
		args = append(args, "-m", opts.Model)
	}
	if opts.FreeAgent {
		args = append(args, "--full-auto")
	}
	if prompt := joinPromptParts(opts.SystemPrompt, opts.Mission); prompt != "" {
		args = append(args, prompt)
	}

	return SpawnCommand{Binary: "codex", Args: args}, nil
}

func (c *CodexCLI) BuildHeadlessCommand(opts SpawnOptions) *HeadlessCommand {
	if opts.Mission == "" {
		return nil
	}

	args := []string{"exec", "--json"}
	if opts.Model != "" {
		args = append(args, "-m", opts.Model)
	}
	// exec still honors approval policy; force it off for headless runs.
	args = append(args, "--full-auto", joinPromptParts(opts.SystemPrompt, opts.Mission))

	return &HeadlessCommand{
		SpawnCommand: SpawnCommand{Binary: "codex", Args: args},
		Output:       OutputStreamJSON,
	}
}

// WriteHooksConfig is a no-op: Codex has no hook mechanism in config.toml.
func (c *CodexCLI) WriteHooksConfig(workspacePath, agentID string, reg HookRegistration) error {
	return nil
}

func (c *CodexCLI) HookEventField() string { return "type" }

// codexEventKinds maps the type discriminator of Codex JSONL events. Both
// the exec stream shapes (item.*, turn.*) and the notify shape
// (agent-turn-complete) appear in the wild.
var codexEventKinds = map[string]Kind{
	"item.started":        KindPreTool,
	"item.completed":      KindPostTool,
	"turn.completed":      KindStop,
	"agent-turn-complete": KindStop,
	"turn.failed":         KindToolError,
	"error":               KindToolError,
	"notification":        KindNotification,
	"approval.requested":  KindPermissionRequest,
}

func (c *CodexCLI) ParseHookEvent(raw map[string]any) *HookEvent {
	if raw == nil {
		return nil
	}
	name, _ := raw["type"].(string)
	kind, ok := codexEventKinds[name]
	if !ok {
		return nil
	}

	ev := &HookEvent{Kind: kind}
	if item, ok := raw["item"].(map[string]any); ok {
		ev.ToolName, _ = item["type"].(string)
		ev.ToolInput = item
	}
	ev.Message, _ = raw["message"].(string)
	return ev
}

var codexToolVerbs = map[string]string{
	"command_execution": "Running command",
	"file_change":       "Editing file",
	"patch_apply":       "Applying patch",
	"web_search":        "Searching the web",
	"mcp_tool_call":     "Calling MCP tool",
	"reasoning":         "Thinking",
}

func (c *CodexCLI) ToolVerb(toolName string) string {
	return codexToolVerbs[toolName]
}

// DefaultPermissions for Codex are sandbox modes rather than per-command
// patterns; quick agents get workspace writes, durable agents stay
// read-only and escalate through approvals.
func (c *CodexCLI) DefaultPermissions(kind AgentKind) []string {
	if kind == AgentQuick {
		return []string{"workspace-write"}
	}
	return []string{"read-only"}
}

func (c *CodexCLI) ModelOptions() []ModelOption {
	return []ModelOption{
		{ID: "default", Label: "Default"},
		{ID: "gpt-5-codex", Label: "GPT-5 Codex"},
		{ID: "gpt-5", Label: "GPT-5"},
		{ID: "o4-mini", Label: "o4-mini"},
	}
}
