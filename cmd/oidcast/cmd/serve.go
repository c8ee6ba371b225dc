package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/oidcast/pkg/api"
	"github.com/ssargent/oidcast/pkg/config"
	"github.com/ssargent/oidcast/pkg/di"
)

func newServeCmd(c *di.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start the oidcast REST API server.

Requests to /api/v1 must carry X-API-Key when an API key is configured.
/metrics is always open for scraping.

Examples:
  oidcast serve --port 8080
  oidcast serve --api-key mysecretkey --bind 0.0.0.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			applyServeFlags(cmd, cfg)
			return serve(cmd, c, cfg)
		},
	}
	addServeFlags(cmd)
	return cmd
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	cmd.Flags().String("bind", "127.0.0.1", "Address to bind server to")
	cmd.Flags().String("api-key", "", "API key required on /api/v1 (overrides the config file)")
}

// applyServeFlags overrides cfg with the flags the user actually set.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("bind") {
		cfg.Bind, _ = cmd.Flags().GetString("bind")
	}
	if cmd.Flags().Changed("api-key") {
		cfg.Security.APIKey, _ = cmd.Flags().GetString("api-key")
	}
}

func serve(cmd *cobra.Command, c *di.Container, cfg *config.Config) error {
	if c.Store() == nil {
		if err := c.Init(cfg, cmd.ErrOrStderr()); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverConfig := api.ServerConfig{
		Bind:   cfg.Bind,
		Port:   cfg.Port,
		APIKey: cfg.Security.APIKey,
	}
	return c.GetServerStarter().StartServer(ctx, c.Repositories(), serverConfig, c.Metrics(), c.Logger())
}
