// Package cli implements the renderscope command tree.
package cli

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/renderscope-dev/renderscope/adapter"
	"github.com/renderscope-dev/renderscope/catalog"
	"github.com/renderscope-dev/renderscope/registry"
)

// Options carries shared command state.
type Options struct {
	Verbose  bool
	Registry *registry.Registry
	Catalog  *catalog.Catalog
}

// getAdapter looks up an adapter, filling in the catalog's install hint
// when the renderer is unknown or not installed.
func (o *Options) getAdapter(name string) (adapter.Adapter, error) {
	a, err := o.Registry.Get(name)
	if err != nil {
		var nf *adapter.NotFoundError
		if errors.As(err, &nf) && nf.InstallHint == "" {
			nf.InstallHint = o.Catalog.InstallHint(name)
		}
		return nil, err
	}
	return a, nil
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &Options{}

	root := &cobra.Command{
		Use:   "renderscope",
		Short: "Benchmark offline renderers on your scenes and hardware",
		Long: `renderscope detects installed renderers, runs them against scene
files with uniform settings, and reports render time and peak memory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
			if opts.Registry == nil {
				opts.Registry = registry.Default()
			}
			if opts.Catalog == nil {
				opts.Catalog = catalog.New("")
			}
		},
	}

	root.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false,
		"enable debug logging")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err}
	})

	root.AddCommand(
		newListCmd(opts),
		newRenderCmd(opts),
		newBenchCmd(opts),
		newSystemInfoCmd(),
		newConvertCmd(opts),
	)
	return root
}

type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// Execute runs the CLI and returns the process exit code: 0 on success,
// 2 on usage errors, 1 otherwise.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		slog.Error(err.Error())
		var usage *usageError
		if errors.As(err, &usage) {
			return 2
		}
		return 1
	}
	return 0
}
