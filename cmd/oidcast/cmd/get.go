package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/oidcast/pkg/di"
)

func newGetCmd(c *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> <key>",
		Short: "Get a record by primary key",
		Long: `Get a record by primary key and print it as JSON.

Example:
  oidcast get cats 507f1f77bcf86cd799439011`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initContainer(cmd, c); err != nil {
				return err
			}
			repo, err := c.Repository(args[0])
			if err != nil {
				return err
			}
			pk, err := repo.Definition().Table().PrimaryKey()
			if err != nil {
				return err
			}
			key, err := parameter(pk, args[1])
			if err != nil {
				return err
			}
			rec, err := repo.Find(cmd.Context(), key)
			if err != nil {
				return err
			}
			return printRecord(cmd.OutOrStdout(), rec)
		},
	}
}
