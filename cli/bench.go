package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/renderscope-dev/renderscope/bench"
)

func newBenchCmd(opts *Options) *cobra.Command {
	var (
		configPath string
		renderers  []string
		scenes     []string
		repeat     int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a benchmark suite across renderers and scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			suite, err := bench.LoadSuite(configPath)
			if err != nil {
				return err
			}
			if len(renderers) > 0 {
				suite.Renderers = renderers
			}
			if len(scenes) > 0 {
				suite.Scenes = scenes
			}
			if repeat > 0 {
				suite.Repeat = repeat
			}

			runner := bench.NewRunner(opts.Registry, nil)
			report, err := runner.Run(cmd.Context(), suite)
			if err != nil {
				return err
			}

			written, err := bench.WriteReport(report, suite.OutputDir, suite.Formats)
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Fprintf(cmd.OutOrStdout(), "report written: %s\n", path)
			}
			if n := report.Failures(); n > 0 {
				return fmt.Errorf("%d of %d runs failed", n, len(report.Records))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "suite config file")
	cmd.Flags().StringSliceVar(&renderers, "renderers", nil, "renderers to benchmark (default: all installed)")
	cmd.Flags().StringSliceVar(&scenes, "scenes", nil, "scene files to render")
	cmd.Flags().IntVar(&repeat, "repeat", 0, "runs per renderer/scene pair")
	return cmd
}
