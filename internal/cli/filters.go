package cli

import (
	"fmt"
	"text/tabwriter"

	"snapfilter/internal/filters"

	"github.com/spf13/cobra"
)

func newFiltersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "filters",
		Short: "List the filter catalog in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := filters.NewManager()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range catalog.Names() {
				f, err := catalog.Get(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\n", f.Name(), f.DisplayName())
			}
			return w.Flush()
		},
	}
}
