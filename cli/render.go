package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/renderscope-dev/renderscope/render"
)

func newRenderCmd(opts *Options) *cobra.Command {
	var (
		output   string
		settings = render.DefaultSettings()
		timeout  time.Duration
		trace    bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "render <renderer> <scene>",
		Short: "Render one scene with one renderer and report measurements",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, scene := args[0], args[1]
			a, err := opts.getAdapter(name)
			if err != nil {
				return err
			}

			settings.TimeBudget = timeout
			if trace {
				if settings.Extra == nil {
					settings.Extra = map[string]any{}
				}
				settings.Extra["trace"] = true
			}
			if output == "" {
				output = fmt.Sprintf("%s_render.png", name)
			}

			result, err := a.Render(cmd.Context(), scene, output, settings)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renderer:     %s\n", result.Renderer)
			fmt.Fprintf(cmd.OutOrStdout(), "scene:        %s\n", result.Scene)
			fmt.Fprintf(cmd.OutOrStdout(), "output:       %s\n", result.OutputPath)
			fmt.Fprintf(cmd.OutOrStdout(), "render time:  %.3fs\n", result.RenderTimeSeconds)
			fmt.Fprintf(cmd.OutOrStdout(), "peak memory:  %.1f MB\n", result.PeakMemoryMB)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output image path")
	cmd.Flags().IntVar(&settings.Width, "width", settings.Width, "image width")
	cmd.Flags().IntVar(&settings.Height, "height", settings.Height, "image height")
	cmd.Flags().IntVar(&settings.Samples, "samples", 0, "samples per pixel")
	cmd.Flags().IntVar(&settings.Threads, "threads", 0, "render threads (0 = renderer default)")
	cmd.Flags().BoolVar(&settings.GPU, "gpu", false, "use GPU rendering")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "kill the render after this duration")
	cmd.Flags().BoolVar(&trace, "trace", false, "trace spawned processes (Linux, needs eBPF)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}
