package adapter

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/renderscope-dev/renderscope/render"
)

const appleseedDefaultTimeout = 30 * time.Minute

// Appleseed drives the appleseed.cli renderer.
type Appleseed struct {
	tool cliTool
}

func NewAppleseed() *Appleseed {
	return &Appleseed{tool: cliTool{
		Binaries:    []string{"appleseed.cli", "appleseed"},
		VersionArgs: []string{"--version"},
		VersionPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)appleseed\s+(\d+\.\d+[.\d]*)`),
			regexp.MustCompile(`(\d+\.\d+[.\d]*)`),
		},
	}}
}

func (a *Appleseed) Name() string        { return "appleseed" }
func (a *Appleseed) DisplayName() string { return "appleseed" }

func (a *Appleseed) Detect() (string, bool) { return a.tool.Detect() }

func (a *Appleseed) SupportedFormats() []string { return []string{"appleseed"} }

func (a *Appleseed) Render(ctx context.Context, scenePath, outputPath string, settings render.Settings) (*render.Result, error) {
	version, ok := a.Detect()
	if !ok {
		return nil, &NotFoundError{
			Renderer:    a.DisplayName(),
			InstallHint: "download appleseed from https://appleseedhq.net/download.html and put appleseed.cli on PATH",
		}
	}
	if err := checkScene(a, scenePath, a.SupportedFormats()); err != nil {
		return nil, err
	}
	if err := ensureOutputDir(a.DisplayName(), outputPath); err != nil {
		return nil, err
	}

	binary, _ := a.tool.Binary()
	args := []string{binary, scenePath,
		"--output", outputPath,
		"--resolution", strconv.Itoa(settings.Width), strconv.Itoa(settings.Height),
	}
	if settings.Threads > 0 {
		args = append(args, "--threads", strconv.Itoa(settings.Threads))
	}
	if settings.Samples > 0 {
		args = append(args, "--samples", strconv.Itoa(settings.Samples))
	}

	res, err := runRender(ctx, a.DisplayName(), execSpec(args, scenePath, settings, appleseedDefaultTimeout))
	if err != nil {
		return nil, err
	}

	actual, err := verifyOutput(a.DisplayName(), outputPath, []string{".png", ".exr"}, res.Stderr)
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

var _ Adapter = (*Appleseed)(nil)
