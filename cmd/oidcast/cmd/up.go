package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/oidcast/pkg/config"
	"github.com/ssargent/oidcast/pkg/di"
)

func newUpCmd(c *di.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Bootstrap a config if needed and start the server",
		Long: `Start the server in one step. When no config file exists one is written
with a generated API key (as by init) before the server starts.

Examples:
  oidcast up
  oidcast up --config ./oidcast.yaml --port 9000`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{optionalConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath(cmd)
			cfg := configFrom(cmd)
			if !config.ConfigExists(path) {
				dataDir, _ := cmd.Flags().GetString("data-dir")
				var err error
				if cfg, err = config.BootstrapConfig(path, dataDir); err != nil {
					return err
				}
				cmd.Printf("Wrote %s\n", path)
				if printKeys, _ := cmd.Flags().GetBool("print-keys"); printKeys {
					cmd.Printf("API key: %s\n", cfg.Security.APIKey)
				}
			}
			applyServeFlags(cmd, cfg)
			return serve(cmd, c, cfg)
		},
	}
	addServeFlags(cmd)
	cmd.Flags().Bool("print-keys", false, "Print a generated API key to the console")
	return cmd
}
