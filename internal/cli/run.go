package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/masra91/clubhouse/internal/provider"
	"github.com/masra91/clubhouse/internal/supervisor"
)

var runCmd = &cobra.Command{
	Use:   "run <mission>",
	Short: "Run a one-shot headless mission in the current directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(cmd)
		if err != nil {
			return err
		}

		if _, err := rt.server.Start(); err != nil {
			return fmt.Errorf("starting hook server: %w", err)
		}
		defer rt.server.Stop()

		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}

		providerID, _ := cmd.Flags().GetString("provider")
		if providerID == "" {
			providerID = rt.cfg.DefaultProvider
		}
		model, _ := cmd.Flags().GetString("model")

		events, cancel := rt.server.Bus().Subscribe()
		defer cancel()

		reg, err := rt.sup.Spawn(supervisor.SpawnRequest{
			WorkspacePath: cwd,
			ProviderID:    providerID,
			Headless:      true,
			Profile:       provider.AgentKind(rt.cfg.PermissionProfile),
			Options: provider.SpawnOptions{
				Mission: args[0],
				Model:   model,
			},
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}

		done := make(chan struct{})
		go func() {
			rt.sup.Wait(reg.AgentID)
			close(done)
		}()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		status := newStatusRenderer(cmd.ErrOrStderr())
		defer status.Stop()

		for {
			select {
			case msg := <-events:
				if msg.AgentID != reg.AgentID {
					continue
				}
				status.Update(msg.Event)
			case <-sig:
				status.Stop()
				_ = rt.sup.Kill(reg.AgentID)
				return fmt.Errorf("interrupted")
			case <-done:
				return nil
			}
		}
	},
}

func init() {
	runCmd.Flags().String("provider", "", "Provider id (claude, copilot, codex, opencode)")
	runCmd.Flags().String("model", "", "Model id for the selected provider")
	rootCmd.AddCommand(runCmd)
}
