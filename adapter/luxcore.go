package adapter

import (
	"context"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/renderscope-dev/renderscope/binding"
	"github.com/renderscope-dev/renderscope/core/monitor"
	"github.com/renderscope-dev/renderscope/render"
)

const (
	luxcoreBinding        = "luxcore"
	luxcoreDefaultTimeout = 30 * time.Minute
)

// LuxCore is a dual-path adapter: it prefers the in-process binding and
// falls back to the luxcoreconsole binary. The resolved path is cached per
// instance so detection and rendering agree on the mechanism.
type LuxCore struct {
	tool cliTool

	mu       sync.Mutex
	resolved bool
	path     Path
	version  string
}

func NewLuxCore() *LuxCore {
	return &LuxCore{tool: cliTool{
		Binaries:    []string{"luxcoreconsole", "luxcoreui"},
		VersionArgs: []string{"--help"},
		VersionPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)luxcore\s+v?(\d+\.\d+[.\d]*)`),
		},
	}}
}

func (a *LuxCore) Name() string        { return "luxcore" }
func (a *LuxCore) DisplayName() string { return "LuxCoreRender" }

func (a *LuxCore) SupportedFormats() []string { return []string{"lxs", "cfg", "scn"} }

// resolve picks the integration path once: binding first, then CLI.
func (a *LuxCore) resolve() (Path, string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.resolved {
		return a.path, a.version, a.path != ""
	}
	a.resolved = true
	if r, ok := binding.Lookup(luxcoreBinding); ok {
		a.path = PathBinding
		a.version = r.Version()
		return a.path, a.version, true
	}
	if version, ok := a.tool.Detect(); ok {
		a.path = PathCLI
		a.version = version
		return a.path, a.version, true
	}
	return "", "", false
}

func (a *LuxCore) Detect() (string, bool) {
	_, version, ok := a.resolve()
	return version, ok
}

// IntegrationPath reports which mechanism resolution selected.
func (a *LuxCore) IntegrationPath() (Path, bool) {
	path, _, ok := a.resolve()
	return path, ok
}

func (a *LuxCore) Render(ctx context.Context, scenePath, outputPath string, settings render.Settings) (*render.Result, error) {
	path, version, ok := a.resolve()
	if !ok {
		return nil, &NotFoundError{
			Renderer:    a.DisplayName(),
			InstallHint: "download LuxCoreRender from https://luxcorerender.org/download/ and put luxcoreconsole on PATH",
		}
	}
	if err := checkScene(a, scenePath, a.SupportedFormats()); err != nil {
		return nil, err
	}
	if err := ensureOutputDir(a.DisplayName(), outputPath); err != nil {
		return nil, err
	}
	if path == PathBinding {
		return a.renderBinding(ctx, version, scenePath, outputPath, settings)
	}
	return a.renderCLI(ctx, version, scenePath, outputPath, settings)
}

func (a *LuxCore) renderBinding(ctx context.Context, version, scenePath, outputPath string, settings render.Settings) (*render.Result, error) {
	r, ok := binding.Lookup(luxcoreBinding)
	if !ok {
		return nil, &RenderError{Renderer: a.DisplayName(), Reason: "binding unregistered after detection"}
	}
	if timeout := settings.ResolveTimeout(luxcoreDefaultTimeout); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	engine := "PATHCPU"
	if settings.GPU {
		engine = "PATHOCL"
		if v, ok := settings.ExtraString("engine"); ok {
			engine = v
		}
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
		Variant:    engine,
	})
	m := region.Measurement()
	if err != nil {
		return nil, &RenderError{Renderer: a.DisplayName(), Reason: err.Error()}
	}

	actual, verr := verifyOutput(a.DisplayName(), outputPath, []string{".png", ".exr"}, "")
	if verr != nil {
		return nil, verr
	}

	meta := map[string]any{
		"renderer_version":   version,
		"integration_path":   string(PathBinding),
		"engine":             engine,
		"gpu_enabled":        settings.GPU,
		"baseline_memory_mb": m.BaselineMemoryMB,
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

func (a *LuxCore) renderCLI(ctx context.Context, version, scenePath, outputPath string, settings render.Settings) (*render.Result, error) {
	binary, ok := a.tool.Binary()
	if !ok {
		return nil, &RenderError{Renderer: a.DisplayName(), Reason: "binary vanished after detection"}
	}

	args := []string{binary,
		"--scene", scenePath,
		"--film-output", outputPath,
		"--film-width", strconv.Itoa(settings.Width),
		"--film-height", strconv.Itoa(settings.Height),
	}
	if settings.Samples > 0 {
		args = append(args, "--halt-spp", strconv.Itoa(settings.Samples))
	}
	if settings.TimeBudget > 0 {
		args = append(args, "--halt-time", strconv.Itoa(int(settings.TimeBudget.Seconds())))
	}

	res, err := runRender(ctx, a.DisplayName(), execSpec(args, scenePath, settings, luxcoreDefaultTimeout))
	if err != nil {
		return nil, err
	}

	actual, err := verifyOutput(a.DisplayName(), outputPath, []string{".png", ".exr"}, res.Stderr)
	if err != nil {
		return nil, err
	}

	meta := processMetadata(version, binary, settings.GPU, res.Processes)
	meta["integration_path"] = string(PathCLI)

	b := render.Builder{
		Renderer:          a.Name(),
		Scene:             sceneStem(scenePath),
		OutputPath:        actual,
		RenderTimeSeconds: res.Elapsed.Seconds(),
		PeakMemoryMB:      res.PeakMemoryMB,
		Settings:          settings,
		Metadata:          meta,
	}
	return b.Build(), nil
}

var _ Adapter = (*LuxCore)(nil)
