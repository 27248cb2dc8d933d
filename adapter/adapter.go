// Package adapter defines the capability contract every renderer
// integration satisfies, plus the concrete integrations for the supported
// engines. An adapter either drives an external binary through the process
// execution engine, calls an in-process native binding through a timed
// region, or prefers the binding with a CLI fallback.
package adapter

import (
	"context"

	"github.com/renderscope-dev/renderscope/render"
)

// Adapter is the uniform contract over heterogeneous renderer
// integrations.
type Adapter interface {
	// Name is the canonical machine-readable identifier (e.g. "pbrt").
	Name() string
	// DisplayName is the human-readable name (e.g. "PBRT v4").
	DisplayName() string
	// Detect probes whether the renderer is installed and reports its
	// version. It never panics; internal failures read as not detected.
	Detect() (version string, ok bool)
	// SupportedFormats returns a fresh, caller-owned list of scene format
	// identifiers.
	SupportedFormats() []string
	// Render executes one render and returns the measured result or a
	// typed failure (NotFoundError, FormatError, RenderError).
	Render(ctx context.Context, scenePath, outputPath string, settings render.Settings) (*render.Result, error)
}

// SceneConverter is optionally implemented by adapters that can transcode
// scenes into their native format.
type SceneConverter interface {
	ConvertScene(ctx context.Context, source, targetFormat string) (string, error)
}

// Factory constructs one adapter instance. Registries may call it per
// lookup; adapters keep no cross-call state beyond their own detection
// cache.
type Factory func() (Adapter, error)

// Path identifies which integration mechanism a dual-path adapter
// resolved.
type Path string

const (
	// PathBinding executes in-process through a native binding.
	PathBinding Path = "binding"
	// PathCLI executes a separate-process binary.
	PathCLI Path = "cli"
)

// Builtin returns factories for every shipped integration, in
// registration order.
func Builtin() []Factory {
	return []Factory{
		func() (Adapter, error) { return NewPBRT(), nil },
		func() (Adapter, error) { return NewCycles(), nil },
		func() (Adapter, error) { return NewMitsuba(), nil },
		func() (Adapter, error) { return NewLuxCore(), nil },
		func() (Adapter, error) { return NewOSPRay(), nil },
		func() (Adapter, error) { return NewAppleseed(), nil },
		func() (Adapter, error) { return NewFilament(), nil },
	}
}
