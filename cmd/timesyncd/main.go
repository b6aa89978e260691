// Package main is the entrypoint for timesyncd, the client-side time sync
// daemon, and its one-shot developer commands.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aelexs/timesync/internal/config"
	"github.com/aelexs/timesync/internal/observability"
	"github.com/aelexs/timesync/internal/server"
)

const serviceName = "timesyncd"

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Authoritative user date and time for the client",
		Version:       server.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "",
		"YAML config file (default $"+config.EnvConfigFile+")")

	root.AddCommand(serveCmd(&configFile))
	root.AddCommand(nowCmd(&configFile))
	root.AddCommand(rangeCmd(&configFile))
	root.AddCommand(mockCmd(&configFile))
	root.AddCommand(driftCmd(&configFile))
	return root
}

func serveCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sync daemon and the developer HTTP surface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return server.Run(cmd.Context(), server.Params{
				Name:           serviceName,
				ConfigFile:     *configFile,
				PortFromConfig: func(cfg *config.Config) int { return cfg.HTTP.Port },
				Setup:          setup,
			}, server.Listeners{})
		},
	}
}

// withService loads config, builds and initializes the service, runs fn and
// tears everything down. Logs go to stderr; results go to stdout.
func withService(cmd *cobra.Command, configFile string, fn func(*components) error) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx, configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.InitLogger(observability.LogConfig{
		Level:       cfg.LogLevel,
		Format:      "text",
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Output:      cmd.ErrOrStderr(),
	})

	c, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = c.close() }()

	c.svc.Initialize(ctx, c.session.Authenticated())
	defer c.svc.Destroy(context.WithoutCancel(ctx))

	return fn(c)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
