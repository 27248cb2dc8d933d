package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/renderscope-dev/renderscope/adapter"
)

func newConvertCmd(opts *Options) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "convert <renderer> <scene>",
		Short: "Convert a scene into a renderer's native format",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, scene := args[0], args[1]
			a, err := opts.getAdapter(name)
			if err != nil {
				return err
			}
			conv, ok := a.(adapter.SceneConverter)
			if !ok {
				return fmt.Errorf("%s does not support scene conversion", a.DisplayName())
			}
			out, err := conv.ConvertScene(cmd.Context(), scene, target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "converted: %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "to", "", "target format")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
