package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/oidcast/pkg/objectid"
)

func newNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generate ObjectIds",
		Long: `Generate ObjectIds and print them as hex, one per line.

With --at the identifier carries the given time and zeros elsewhere, which
makes it a boundary for range queries rather than a unique key.

Examples:
  oidcast new
  oidcast new --count 5
  oidcast new --at 2024-05-01T00:00:00Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			at, _ := cmd.Flags().GetString("at")
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}

			var boundary time.Time
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %w", err)
				}
				boundary = t
			}

			out := cmd.OutOrStdout()
			for i := 0; i < count; i++ {
				id := objectid.New()
				if at != "" {
					id = objectid.FromTime(boundary)
				}
				fmt.Fprintln(out, id.Hex())
			}
			return nil
		},
	}
	cmd.Flags().IntP("count", "n", 1, "Number of identifiers to generate")
	cmd.Flags().String("at", "", "Generate a boundary identifier for this RFC3339 time")
	return cmd
}
