package adapter

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/renderscope-dev/renderscope/render"
)

const filamentDefaultTimeout = 10 * time.Minute

// Filament drives Google Filament's gltf_viewer in headless screenshot
// mode. Filament is a real-time engine, so a render here is one frame.
type Filament struct {
	tool cliTool
}

func NewFilament() *Filament {
	return &Filament{tool: cliTool{
		Binaries:    []string{"gltf_viewer"},
		VersionArgs: []string{"--help"},
		VersionPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)filament\s+v?(\d+\.\d+[.\d]*)`),
		},
	}}
}

func (a *Filament) Name() string        { return "filament" }
func (a *Filament) DisplayName() string { return "Filament" }

func (a *Filament) Detect() (string, bool) { return a.tool.Detect() }

func (a *Filament) SupportedFormats() []string { return []string{"gltf", "glb"} }

func (a *Filament) Render(ctx context.Context, scenePath, outputPath string, settings render.Settings) (*render.Result, error) {
	version, ok := a.Detect()
	if !ok {
		return nil, &NotFoundError{
			Renderer:    a.DisplayName(),
			InstallHint: "build gltf_viewer from https://github.com/google/filament and put it on PATH",
		}
	}
	if err := checkScene(a, scenePath, a.SupportedFormats()); err != nil {
		return nil, err
	}
	if err := ensureOutputDir(a.DisplayName(), outputPath); err != nil {
		return nil, err
	}

	binary, _ := a.tool.Binary()
	args := []string{binary,
		"--headless",
		"--width", strconv.Itoa(settings.Width),
		"--height", strconv.Itoa(settings.Height),
		"--screenshot", outputPath,
		scenePath,
	}

	res, err := runRender(ctx, a.DisplayName(), execSpec(args, scenePath, settings, filamentDefaultTimeout))
	if err != nil {
		return nil, err
	}

	actual, err := verifyOutput(a.DisplayName(), outputPath, []string{".png", ".ppm"}, res.Stderr)
	if err != nil {
		return nil, err
	}

	b := render.Builder{
		Renderer:          a.Name(),
		Scene:             sceneStem(scenePath),
		OutputPath:        actual,
		RenderTimeSeconds: res.Elapsed.Seconds(),
		PeakMemoryMB:      res.PeakMemoryMB,
		Settings:          settings,
		Metadata:          processMetadata(version, binary, settings.GPU, res.Processes),
	}
	return b.Build(), nil
}

var _ Adapter = (*Filament)(nil)
