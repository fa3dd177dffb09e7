package provider

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/masra91/clubhouse/internal/opencode"
)

// OpenCodeCLI implements Provider for the OpenCode CLI.
// Interactive: opencode [--model m] [--prompt mission]
// Headless:    opencode run <mission> [--model m]
type OpenCodeCLI struct{}

// NewOpenCodeCLI creates the OpenCode provider.
func NewOpenCodeCLI() *OpenCodeCLI {
	return &OpenCodeCLI{}
}

func (o *OpenCodeCLI) ID() string          { return "opencode" }
func (o *OpenCodeCLI) DisplayName() string { return "OpenCode" }
func (o *OpenCodeCLI) ShortName() string   { return "OpenCode" }

func (o *OpenCodeCLI) Conventions() Conventions {
	return Conventions{
		ConfigDir:         ".opencode",
		InstructionsFile:  "AGENTS.md",
		MCPConfigFile:     "opencode.json",
		SkillsDir:         ".opencode/command",
		AgentTemplatesDir: ".opencode/agent",
		LocalSettingsFile: "opencode.json",
	}
}

func (o *OpenCodeCLI) Capabilities() Caps {
	return Caps{
		Headless:         true,
		StructuredOutput: false,
		Hooks:            true,
		SessionResume:    true,
		Permissions:      true,
	}
}

func (o *OpenCodeCLI) BuildSpawnCommand(opts SpawnOptions) (SpawnCommand, error) {
	if opts.Cwd == "" {
		return SpawnCommand{}, fmt.Errorf("opencode: cwd is required")
	}

	var args []string
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.Mission != "" {
		args = append(args, "--prompt", opts.Mission)
	}
	// Permissions live in opencode.json; there is no prompt-bypass flag,
	// so FreeAgent maps to nothing.

	return SpawnCommand{Binary: "opencode", Args: args}, nil
}

func (o *OpenCodeCLI) BuildHeadlessCommand(opts SpawnOptions) *HeadlessCommand {
	if opts.Mission == "" {
		return nil
	}

	args := []string{"run", opts.Mission}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}

	return &HeadlessCommand{
		SpawnCommand: SpawnCommand{Binary: "opencode", Args: args},
		Output:       OutputText,
	}
}

func (o *OpenCodeCLI) WriteHooksConfig(workspacePath, agentID string, reg HookRegistration) error {
	return opencode.WriteHooks(workspacePath, agentID, reg.Endpoint, reg.Nonce)
}

func (o *OpenCodeCLI) HookEventField() string { return "event" }

// opencodeEventKinds accepts the dotted bus event names OpenCode emits and
// the camelCase hint names its registered callback URLs carry. OpenCode's
// hook commands POST bodies without an event field, so the URL hint is the
// usual source.
var opencodeEventKinds = map[string]Kind{
	"tool.execute.before": KindPreTool,
	"preToolUse":          KindPreTool,
	"tool.execute.after":  KindPostTool,
	"postToolUse":         KindPostTool,
	"tool.execute.error":  KindToolError,
	"toolError":           KindToolError,
	"session.idle":        KindStop,
	"session.completed":   KindStop,
	"stop":                KindStop,
	"notification":        KindNotification,
	"permission.ask":      KindPermissionRequest,
	"permissionRequest":   KindPermissionRequest,
}

func (o *OpenCodeCLI) ParseHookEvent(raw map[string]any) *HookEvent {
	if raw == nil {
		return nil
	}
	name, _ := raw["event"].(string)
	kind, ok := opencodeEventKinds[name]
	if !ok {
		return nil
	}

	ev := &HookEvent{Kind: kind}
	ev.ToolName, _ = raw["tool"].(string)
	if input, ok := raw["args"].(map[string]any); ok {
		ev.ToolInput = input
	}
	ev.Message, _ = raw["message"].(string)
	return ev
}

var opencodeToolVerbs = map[string]string{
	"bash":     "Running command",
	"edit":     "Editing file",
	"write":    "Writing file",
	"read":     "Reading file",
	"glob":     "Searching files",
	"grep":     "Searching code",
	"webfetch": "Fetching web page",
	"task":     "Delegating to subagent",
}

func (o *OpenCodeCLI) ToolVerb(toolName string) string {
	return opencodeToolVerbs[toolName]
}

func (o *OpenCodeCLI) DefaultPermissions(kind AgentKind) []string {
	if kind == AgentQuick {
		return []string{"edit", "write", "bash *"}
	}
	return []string{
		"edit",
		"bash git *",
		"bash npm *",
		"bash pnpm *",
	}
}

// opencodeStaticModels is the fallback when the binary is absent or the
// probe fails.
var opencodeStaticModels = []ModelOption{
	{ID: "default", Label: "Default"},
	{ID: "anthropic/claude-sonnet-4-5", Label: "Claude Sonnet 4.5"},
	{ID: "openai/gpt-5", Label: "GPT-5"},
}

func (o *OpenCodeCLI) ModelOptions() []ModelOption {
	models, err := probeOpenCodeModels()
	if err != nil || len(models) == 0 {
		return opencodeStaticModels
	}
	return models
}

// probeOpenCodeModels runs `opencode models`, which prints one
// provider/model id per line.
func probeOpenCodeModels() ([]ModelOption, error) {
	if _, err := exec.LookPath("opencode"); err != nil {
		return nil, err
	}

	cmd := exec.Command("opencode", "models")
	cmd.WaitDelay = 5 * time.Second
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	options := []ModelOption{{ID: "default", Label: "Default"}}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		options = append(options, ModelOption{ID: id, Label: id})
	}
	return options, nil
}
