package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/oidcast/pkg/di"
)

func newDeleteCmd(c *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <key>",
		Short: "Delete a record by primary key",
		Long: `Delete a record by primary key.

Example:
  oidcast delete cats 507f1f77bcf86cd799439011`,
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
			if err := repo.Delete(cmd.Context(), rec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s from %s\n", args[1], args[0])
			return nil
		},
	}
}
