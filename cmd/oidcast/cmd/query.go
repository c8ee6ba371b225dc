package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/oidcast/pkg/di"
	"github.com/ssargent/oidcast/pkg/query"
)

func newQueryCmd(c *di.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <table> <column> <op> <value>...",
		Short: "Query records by one column",
		Long: `Print the records matching one condition as JSON lines, in primary key
order. Operators are =, <, <=, >, >= and in (which takes several values).
Values for identifier columns are normalized first, so hex strings compare
against the stored binary form.

Examples:
  oidcast query cats id '>' $(oidcast new --at 2024-05-01T00:00:00Z)
  oidcast query cats id in 507f1f77bcf86cd799439011 507f191e810c19729de860ea
  oidcast query cats name = Tom`,
		Args: cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := query.ParseOperator(args[2])
			if err != nil {
				return err
			}
			if op != query.OpIn && len(args) != 4 {
				return fmt.Errorf("operator %s takes exactly one value", op)
			}

			if err := initContainer(cmd, c); err != nil {
				return err
			}
			repo, err := c.Repository(args[0])
			if err != nil {
				return err
			}
			table := repo.Definition().Table()
			col, ok := table.Column(args[1])
			if !ok {
				return fmt.Errorf("%w: %s.%s", query.ErrUnknownColumn, table.Name, args[1])
			}

			values := make([]any, 0, len(args)-3)
			for _, raw := range args[3:] {
				v, err := parameter(col, raw)
				if err != nil {
					return err
				}
				values = append(values, v)
			}
			pred := query.Where(col.Name, op, values[0])
			if op == query.OpIn {
				pred = query.In(col.Name, values...)
			}

			recs, err := repo.Where(cmd.Context(), pred)
			if err != nil {
				return err
			}
			for _, rec := range recs {
				if err := printRecord(cmd.OutOrStdout(), rec); err != nil {
					return err
				}
			}
			if count, _ := cmd.Flags().GetBool("count"); count {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d record(s)\n", len(recs))
			}
			return nil
		},
	}
	cmd.Flags().Bool("count", false, "Report the number of matching records on stderr")
	return cmd
}
