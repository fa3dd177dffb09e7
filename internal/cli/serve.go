package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/masra91/clubhouse/internal/bus"
	"github.com/masra91/clubhouse/internal/config"
	"github.com/masra91/clubhouse/internal/hookserver"
	"github.com/masra91/clubhouse/internal/metrics"
	"github.com/masra91/clubhouse/internal/provider"
	"github.com/masra91/clubhouse/internal/supervisor"
	"github.com/masra91/clubhouse/internal/workspace"
)

// runtime wires the server, supervisor, and fan-out bus together from a
// loaded configuration.
type runtime struct {
	cfg    *config.Configuration
	server *hookserver.Server
	sup    *supervisor.Supervisor
}

func buildRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load(loadedConfigPath(cmd))
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	b := bus.New(cfg.EventBuffer, func() { m.Dropped(metrics.DropSlowSubscribe) })
	prefs := workspace.Load(cfg.WorkspacePrefs)

	var server *hookserver.Server
	sup := supervisor.New(provider.Default, prefs, func() string { return server.Endpoint() }, m)
	server = hookserver.New(sup, provider.Default, b, m)

	return &runtime{cfg: cfg, server: server, sup: sup}, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hook ingestion server and wait",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime(cmd)
		if err != nil {
			return err
		}

		port, err := rt.server.Start()
		if err != nil {
			return fmt.Errorf("starting hook server: %w", err)
		}
		defer rt.server.Stop()

		fmt.Fprintf(cmd.OutOrStdout(), "hook server listening on http://127.0.0.1:%d\n", port)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
