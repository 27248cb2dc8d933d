package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/renderscope-dev/renderscope/hardware"
)

func newSystemInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "system-info",
		Short: "Print the hardware snapshot stamped on results",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(hardware.Detect())
		},
	}
}
