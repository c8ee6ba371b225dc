package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/oidcast/pkg/config"
	"github.com/ssargent/oidcast/pkg/di"
)

type contextKey string

const configKey contextKey = "config"

// optionalConfig marks commands that run before a config file exists.
const optionalConfig = "optional-config"

var container *di.Container

// SetContainer injects the dependency container used by Execute.
func SetContainer(c *di.Container) {
	container = c
}

// NewRootCmd builds the command tree around c.
func NewRootCmd(c *di.Container) *cobra.Command {
	root := &cobra.Command{
		Use:   "oidcast",
		Short: "oidcast - records keyed by binary ObjectIds",
		Long: `oidcast stores records whose identifier columns hold 12-byte ObjectIds in
binary form while callers work with the familiar 24 character hex strings.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "Config file (default: "+config.GetDefaultConfigPath()+" when present)")
	root.PersistentFlags().StringP("data-dir", "d", "", "Data directory for the store (overrides the config file)")

	root.AddCommand(
		newNewCmd(),
		newNormalizeCmd(),
		newSchemaCmd(),
		newInitCmd(),
		newPutCmd(c),
		newGetCmd(c),
		newDeleteCmd(c),
		newQueryCmd(c),
		newServeCmd(c),
		newUpCmd(c),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	if container == nil {
		container = di.NewContainer()
	}
	err := NewRootCmd(container).Execute()
	if cerr := container.Close(); cerr != nil && err == nil {
		err = cerr
		fmt.Fprintln(os.Stderr, "Error:", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config, falls back to the default path when a file
// exists there and to the built-in defaults otherwise. --data-dir wins over
// the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" && config.ConfigExists(config.GetDefaultConfigPath()) {
		path = config.GetDefaultConfigPath()
	}

	cfg := config.DefaultConfig()
	if path != "" && (config.ConfigExists(path) || cmd.Annotations[optionalConfig] == "") {
		var err error
		if cfg, err = config.LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	return cfg, nil
}

func configFrom(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey).(*config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}

// initContainer opens the store for commands that need it.
func initContainer(cmd *cobra.Command, c *di.Container) error {
	if c.Store() != nil {
		return nil
	}
	return c.Init(configFrom(cmd), cmd.ErrOrStderr())
}
