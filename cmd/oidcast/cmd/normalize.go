package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/oidcast/pkg/objectid"
)

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <value>...",
		Short: "Show how values bind as query parameters",
		Long: `Normalize each value the way identifier query parameters are normalized.
Valid 24 character hex strings become 12 binary bytes (printed as hex); any
other text is passed through unchanged.

Example:
  oidcast normalize 507f1f77bcf86cd799439011 hello`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, v := range args {
				if b, ok := objectid.Normalize(v).([]byte); ok {
					fmt.Fprintf(out, "%s\tbinary\t%x\n", v, b)
					continue
				}
				fmt.Fprintf(out, "%s\tpassthrough\n", v)
			}
			return nil
		},
	}
}
