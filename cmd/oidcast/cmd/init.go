package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/oidcast/pkg/config"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long: `Write a config file with a generated API key and the default tables.

The file goes to --config, or to the default location when --config is not
given. An existing file is left alone unless --force is set.

Examples:
  oidcast init
  oidcast init --config ./oidcast.yaml --data-dir ./data`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{optionalConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			path := configPath(cmd)

			if config.ConfigExists(path) && !force {
				cmd.Printf("Config already exists at %s. Use --force to overwrite.\n", path)
				return nil
			}

			dataDir, _ := cmd.Flags().GetString("data-dir")
			cfg, err := config.BootstrapConfig(path, dataDir)
			if err != nil {
				return err
			}
			cmd.Printf("Wrote %s\n", path)
			cmd.Printf("Data directory: %s\n", cfg.DataDir)
			cmd.Printf("API key: %s\n", cfg.Security.APIKey)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing config file")
	return cmd
}

func configPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	return config.GetDefaultConfigPath()
}
