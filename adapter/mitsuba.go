package adapter

import (
	"context"
	"strings"
	"time"

	"github.com/renderscope-dev/renderscope/binding"
	"github.com/renderscope-dev/renderscope/core/monitor"
	"github.com/renderscope-dev/renderscope/render"
)

const (
	mitsubaBinding        = "mitsuba"
	mitsubaDefaultTimeout = 30 * time.Minute
)

// Variant preference order, most capable first. The binding's advertised
// variant list is intersected with one of these.
var (
	mitsubaGPUVariants = []string{"cuda_ad_rgb", "cuda_rgb", "llvm_ad_rgb", "llvm_rgb"}
	mitsubaCPUVariants = []string{"llvm_ad_rgb", "llvm_rgb", "scalar_rgb"}
)

// variantLister is optionally implemented by bindings that expose their
// compiled variant set.
type variantLister interface {
	Variants() []string
}

// Mitsuba drives the Mitsuba 3 engine through its in-process binding.
// Scene loading is timed separately from rendering when the binding
// supports it.
type Mitsuba struct{}

func NewMitsuba() *Mitsuba { return &Mitsuba{} }

func (a *Mitsuba) Name() string        { return "mitsuba3" }
func (a *Mitsuba) DisplayName() string { return "Mitsuba 3" }

func (a *Mitsuba) Detect() (string, bool) {
	r, ok := binding.Lookup(mitsubaBinding)
	if !ok {
		return "", false
	}
	return r.Version(), true
}

func (a *Mitsuba) SupportedFormats() []string {
	return []string{"xml", "gltf", "glb", "obj", "ply", "stl"}
}

func (a *Mitsuba) Render(ctx context.Context, scenePath, outputPath string, settings render.Settings) (*render.Result, error) {
	r, ok := binding.Lookup(mitsubaBinding)
	if !ok {
		return nil, &NotFoundError{
			Renderer:    a.DisplayName(),
			InstallHint: "build with the mitsuba binding enabled (see bindings/mitsuba)",
		}
	}
	if err := checkScene(a, scenePath, a.SupportedFormats()); err != nil {
		return nil, err
	}
	if err := ensureOutputDir(a.DisplayName(), outputPath); err != nil {
		return nil, err
	}

	variant := a.pickVariant(r, settings.GPU)

	if timeout := settings.ResolveTimeout(mitsubaDefaultTimeout); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	meta := map[string]any{"variant": variant}

	// Scene parsing dominates some workloads; report it apart from the
	// render when the binding can split the two.
	if loader, ok := r.(binding.SceneLoader); ok {
		loadStart := time.Now()
		if err := loader.LoadScene(ctx, scenePath); err != nil {
			return nil, &RenderError{
				Renderer: a.DisplayName(),
				Reason:   "scene load failed: " + err.Error(),
			}
		}
		meta["scene_load_time_seconds"] = time.Since(loadStart).Seconds()
	}

	region := monitor.Begin(0)
	err := r.Render(ctx, binding.Request{
		ScenePath:  scenePath,
		OutputPath: outputPath,
		Width:      settings.Width,
		Height:     settings.Height,
		Samples:    settings.Samples,
		Threads:    settings.Threads,
		GPU:        settings.GPU,
		Variant:    variant,
	})
	m := region.Measurement()
	if err != nil {
		return nil, &RenderError{Renderer: a.DisplayName(), Reason: err.Error()}
	}

	actual, err := verifyOutput(a.DisplayName(), outputPath, []string{".exr", ".png"}, "")
	if err != nil {
		return nil, err
	}

	meta["renderer_version"] = r.Version()
	meta["baseline_memory_mb"] = m.BaselineMemoryMB
	// GPU actually used, not merely requested: a GPU request degrades to a
	// CPU variant when no cuda variant is compiled in.
	meta["gpu_enabled"] = strings.HasPrefix(variant, "cuda")
	if settings.Samples > 0 {
		meta["spp"] = settings.Samples
	}

	b := render.Builder{
		Renderer:          a.Name(),
		Scene:             sceneStem(scenePath),
		OutputPath:        actual,
		RenderTimeSeconds: m.Elapsed.Seconds(),
		PeakMemoryMB:      m.PeakMemoryMB,
		Settings:          settings,
		Metadata:          meta,
	}
	return b.Build(), nil
}

// pickVariant chooses the first preferred variant the binding actually
// compiled in. A binding that does not advertise variants gets the safest
// default.
func (a *Mitsuba) pickVariant(r binding.Renderer, gpu bool) string {
	prefs := mitsubaCPUVariants
	if gpu {
		prefs = mitsubaGPUVariants
	}
	lister, ok := r.(variantLister)
	if !ok {
		return "scalar_rgb"
	}
	available := map[string]bool{}
	for _, v := range lister.Variants() {
		available[v] = true
	}
	for _, v := range prefs {
		if available[v] {
			return v
		}
	}
	return "scalar_rgb"
}

var _ Adapter = (*Mitsuba)(nil)
