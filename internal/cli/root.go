// Package cli provides the cobra commands for the clubhouse agent
// coordinator: the ingestion server (serve), headless missions (run),
// and provider discovery (agents, models).
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "clubhouse",
	Short: "coordinate CLI coding agents behind one interface",
	Long: `clubhouse coordinates several CLI AI coding agents (Claude Code,
Copilot CLI, Codex CLI, OpenCode) as one uniform capability: it spawns
and configures them, receives their hook callbacks on a loopback
listener, and normalizes their events into a single stream.`,
	Example: `  # Start the hook ingestion server
  clubhouse serve

  # Run a one-shot headless mission in the current directory
  clubhouse run "fix the failing tests"

  # Show which agent CLIs are installed
  clubhouse agents

  # List models for a provider
  clubhouse models opencode`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a local config file")
}

// loadedConfigPath returns the --config flag value for a command.
func loadedConfigPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
