package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd(opts *Options) *cobra.Command {
	var installedOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known renderers and whether they are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := opts.Registry.DetectAll()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RENDERER\tSTATUS\tVERSION\tFORMATS")
			for _, name := range opts.Registry.Names() {
				st := statuses[name]
				if installedOnly && !st.Installed {
					continue
				}
				status := "not installed"
				if st.Installed {
					status = "installed"
				}
				a, err := opts.Registry.Get(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					name, status, st.Version, strings.Join(a.SupportedFormats(), ","))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&installedOnly, "installed", false,
		"show only installed renderers")
	return cmd
}
