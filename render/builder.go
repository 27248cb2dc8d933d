package render

import (
	"time"

	"github.com/renderscope-dev/renderscope/hardware"
)

// HardwareProvider supplies the hardware snapshot stamped on results.
// It must not fail; unavailable fields are zero values.
type HardwareProvider func() hardware.Info

// Builder accumulates measurement data for one render and produces exactly
// one Result. Adapters populate it during execution and call Build once.
type Builder struct {
	Renderer          string
	Scene             string
	OutputPath        string
	RenderTimeSeconds float64
	PeakMemoryMB      float64
	Settings          Settings
	Metadata          map[string]any

	// HardwareFunc overrides hardware detection, mainly for tests.
	HardwareFunc HardwareProvider
}

// Build stamps the hardware snapshot and timestamp and returns the Result.
func (b *Builder) Build() *Result {
	detect := b.HardwareFunc
	if detect == nil {
		detect = hardware.Detect
	}
	meta := b.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return &Result{
		Renderer:          b.Renderer,
		Scene:             b.Scene,
		OutputPath:        b.OutputPath,
		RenderTimeSeconds: b.RenderTimeSeconds,
		PeakMemoryMB:      b.PeakMemoryMB,
		Settings:          b.Settings,
		Hardware:          detect(),
		Timestamp:         time.Now().UTC().Format(time.RFC3339Nano),
		Metadata:          meta,
	}
}
