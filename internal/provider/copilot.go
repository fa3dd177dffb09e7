package provider

import "fmt"

// CopilotCLI implements Provider for the GitHub Copilot CLI.
// The system prompt and mission are baked into a single -p value.
type CopilotCLI struct{}

// NewCopilotCLI creates the Copilot CLI provider.
func NewCopilotCLI() *CopilotCLI {
	return &CopilotCLI{}
}

func (c *CopilotCLI) ID() string          { return "copilot" }
func (c *CopilotCLI) DisplayName() string { return "GitHub Copilot CLI" }
func (c *CopilotCLI) ShortName() string   { return "Copilot" }

func (c *CopilotCLI) Conventions() Conventions {
	return Conventions{
		ConfigDir:         ".copilot",
		InstructionsFile:  ".github/copilot-instructions.md",
		MCPConfigFile:     ".copilot/mcp-config.json",
		SkillsDir:         ".copilot/skills",
		AgentTemplatesDir: ".copilot/agents",
		LocalSettingsFile: ".copilot/config.json",
	}
}

func (c *CopilotCLI) Capabilities() Caps {
	return Caps{
		Headless:         true,
		StructuredOutput: false,
		Hooks:            false,
		SessionResume:    false,
		Permissions:      true,
	}
}

func (c *CopilotCLI) BuildSpawnCommand(opts SpawnOptions) (SpawnCommand, error) {
	if opts.Cwd == "" {
		return SpawnCommand{}, fmt.Errorf("copilot: cwd is required")
	}

	var args []string
	if prompt := joinPromptParts(opts.SystemPrompt, opts.Mission); prompt != "" {
		args = append(args, "-p", prompt)
	}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	for _, tool := range opts.AllowedTools {
		args = append(args, "--allow-tool", tool)
	}
	for _, tool := range opts.DisallowedTools {
		args = append(args, "--deny-tool", tool)
	}
	if opts.FreeAgent {
		args = append(args, "--yolo")
	}

	return SpawnCommand{Binary: "copilot", Args: args}, nil
}

func (c *CopilotCLI) BuildHeadlessCommand(opts SpawnOptions) *HeadlessCommand {
	if opts.Mission == "" {
		return nil
	}

	args := []string{"-p", joinPromptParts(opts.SystemPrompt, opts.Mission)}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	// No structured output mode; force prompt bypass so the run never
	// stalls waiting for approval.
	args = append(args, "--yolo")

	return &HeadlessCommand{
		SpawnCommand: SpawnCommand{Binary: "copilot", Args: args},
		Output:       OutputText,
	}
}

// WriteHooksConfig is a no-op: Copilot CLI has no hook mechanism.
func (c *CopilotCLI) WriteHooksConfig(workspacePath, agentID string, reg HookRegistration) error {
	return nil
}

func (c *CopilotCLI) HookEventField() string { return "kind" }

// copilotEventKinds maps the flat camelCase kind field used by Copilot
// session events.
var copilotEventKinds = map[string]Kind{
	"preToolUse":        KindPreTool,
	"toolStart":         KindPreTool,
	"postToolUse":       KindPostTool,
	"toolEnd":           KindPostTool,
	"toolError":         KindToolError,
	"stop":              KindStop,
	"turnComplete":      KindStop,
	"notification":      KindNotification,
	"permissionRequest": KindPermissionRequest,
}

func (c *CopilotCLI) ParseHookEvent(raw map[string]any) *HookEvent {
	if raw == nil {
		return nil
	}
	name, _ := raw["kind"].(string)
	kind, ok := copilotEventKinds[name]
	if !ok {
		return nil
	}

	ev := &HookEvent{Kind: kind}
	ev.ToolName, _ = raw["toolName"].(string)
	if input, ok := raw["toolInput"].(map[string]any); ok {
		ev.ToolInput = input
	}
	ev.Message, _ = raw["message"].(string)
	return ev
}

var copilotToolVerbs = map[string]string{
	"shell":  "Running command",
	"write":  "Writing file",
	"edit":   "Editing file",
	"view":   "Reading file",
	"search": "Searching files",
	"fetch":  "Fetching web page",
}

func (c *CopilotCLI) ToolVerb(toolName string) string {
	return copilotToolVerbs[toolName]
}

func (c *CopilotCLI) DefaultPermissions(kind AgentKind) []string {
	if kind == AgentQuick {
		return []string{"write", "shell(*)"}
	}
	return []string{
		"write",
		"shell(git:*)",
		"shell(npm:*)",
		"shell(pnpm:*)",
	}
}

func (c *CopilotCLI) ModelOptions() []ModelOption {
	// No listing command; static catalog of the models the CLI accepts.
	return []ModelOption{
		{ID: "default", Label: "Default"},
		{ID: "claude-sonnet-4.5", Label: "Claude Sonnet 4.5"},
		{ID: "gpt-5", Label: "GPT-5"},
		{ID: "o4-mini", Label: "o4-mini"},
	}
}
