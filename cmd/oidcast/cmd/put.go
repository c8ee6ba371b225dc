package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/oidcast/pkg/di"
)

func newPutCmd(c *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "put <table> <column=value>...",
		Short: "Create a record",
		Long: `Create a record and print it as JSON.

Identifier columns take 24 character hex strings. When the primary key is an
identifier and is omitted (or not valid hex) a new one is assigned.

Examples:
  oidcast put cats name=Tom
  oidcast put cats id=507f1f77bcf86cd799439011 name=Felix`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initContainer(cmd, c); err != nil {
				return err
			}
			repo, err := c.Repository(args[0])
			if err != nil {
				return err
			}
			attrs, err := parseAssignments(repo.Definition().Table(), args[1:])
			if err != nil {
				return err
			}
			rec, err := repo.Create(cmd.Context(), attrs)
			if err != nil {
				return err
			}
			return printRecord(cmd.OutOrStdout(), rec)
		},
	}
}
