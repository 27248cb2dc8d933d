package adapter

import (
	"context"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/renderscope-dev/renderscope/render"
)

const osprayDefaultTimeout = 30 * time.Minute

// OSPRay drives OSPRay Studio in batch mode, falling back to the sample
// viewers shipped with the SDK when Studio is absent.
type OSPRay struct {
	tool cliTool
}

func NewOSPRay() *OSPRay {
	return &OSPRay{tool: cliTool{
		Binaries:    []string{"ospStudio", "ospExamples", "ospTutorial"},
		VersionArgs: []string{"--version"},
		VersionPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)ospray\s+(?:studio\s+)?v?(\d+\.\d+[.\d]*)`),
			regexp.MustCompile(`v?(\d+\.\d+[.\d]*)`),
		},
	}}
}

func (a *OSPRay) Name() string        { return "ospray" }
func (a *OSPRay) DisplayName() string { return "OSPRay" }

func (a *OSPRay) Detect() (string, bool) { return a.tool.Detect() }

func (a *OSPRay) SupportedFormats() []string {
	return []string{"obj", "gltf", "glb", "ospray"}
}

func (a *OSPRay) Render(ctx context.Context, scenePath, outputPath string, settings render.Settings) (*render.Result, error) {
	version, ok := a.Detect()
	if !ok {
		return nil, &NotFoundError{
			Renderer:    a.DisplayName(),
			InstallHint: "download OSPRay Studio from https://github.com/RenderKit/ospray-studio/releases",
		}
	}
	if err := checkScene(a, scenePath, a.SupportedFormats()); err != nil {
		return nil, err
	}
	if err := ensureOutputDir(a.DisplayName(), outputPath); err != nil {
		return nil, err
	}

	binary, _ := a.tool.Binary()

	// Studio and the sample viewers both append the format extension to
	// the --image stem.
	stem := strings.TrimSuffix(outputPath, filepath.Ext(outputPath))

	var args []string
	if filepath.Base(binary) == "ospStudio" {
		renderer := "pathtracer"
		if v, ok := settings.ExtraString("renderer"); ok {
			renderer = v
		}
		args = []string{binary, "--batch",
			"--renderer", renderer,
			"--image", stem,
			"--resolution", strconv.Itoa(settings.Width) + "x" + strconv.Itoa(settings.Height),
		}
		if settings.Samples > 0 {
			args = append(args, "--spp", strconv.Itoa(settings.Samples))
		}
		args = append(args, scenePath)
	} else {
		args = []string{binary, "--image", stem, scenePath}
	}

	res, err := runRender(ctx, a.DisplayName(), execSpec(args, scenePath, settings, osprayDefaultTimeout))
	if err != nil {
		return nil, err
	}

	actual, err := verifyOutput(a.DisplayName(), outputPath, []string{".png", ".ppm", ".exr"}, res.Stderr)
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

var _ Adapter = (*OSPRay)(nil)
