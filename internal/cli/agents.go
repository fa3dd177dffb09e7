package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/masra91/clubhouse/internal/provider"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Show supported agent CLIs and their install status",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, status := range provider.Default.Doctor() {
			installed := "not installed"
			if status.Installed {
				installed = "installed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-22s %s %s\n",
				status.ID, status.DisplayName, installed, capsSummary(status.Caps))
		}
		return nil
	},
}

func capsSummary(caps provider.Caps) string {
	summary := ""
	if caps.Headless {
		summary += " headless"
	}
	if caps.StructuredOutput {
		summary += " stream-json"
	}
	if caps.Hooks {
		summary += " hooks"
	}
	if caps.SessionResume {
		summary += " resume"
	}
	if caps.Permissions {
		summary += " permissions"
	}
	if summary == "" {
		return ""
	}
	return "[" + summary[1:] + "]"
}

var modelsCmd = &cobra.Command{
	Use:   "models [provider]",
	Short: "List model options for a provider",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := "claude"
		if len(args) == 1 {
			id = args[0]
		}
		p := provider.Get(id)
		if p == nil {
			return fmt.Errorf("unknown provider %q (known: %v)", id, provider.List())
		}
		for _, opt := range p.ModelOptions() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-34s %s\n", opt.ID, opt.Label)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(modelsCmd)
}
