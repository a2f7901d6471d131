package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"relmap/internal/meta"
)

func NewStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the registered strategy aliases per kind",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			reg := meta.NewRegistry()

			for _, k := range meta.Kinds {
				fmt.Fprintf(c.OutOrStdout(), "%s: %s\n", k, strings.Join(reg.Aliases(k), ", "))
			}

			return nil
		},
	}
}
