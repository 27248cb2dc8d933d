package adapter

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/renderscope-dev/renderscope/render"
)

const cyclesDefaultTimeout = 30 * time.Minute

// Cycles drives Blender's Cycles engine in background mode. Render
// parameters cannot be passed on the Blender command line, so the adapter
// generates a short Python driver script per invocation.
type Cycles struct {
	tool cliTool
}

func NewCycles() *Cycles {
	return &Cycles{tool: cliTool{
		Binaries:    []string{"blender"},
		VersionArgs: []string{"--version"},
		VersionPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)blender\s+(\d+\.\d+[.\d]*)`),
		},
	}}
}

func (a *Cycles) Name() string        { return "cycles" }
func (a *Cycles) DisplayName() string { return "Blender Cycles" }

func (a *Cycles) Detect() (string, bool) { return a.tool.Detect() }

func (a *Cycles) SupportedFormats() []string {
	return []string{"blend", "gltf", "glb", "obj", "fbx", "stl", "ply", "abc", "usd"}
}

// cyclesImporters maps non-blend formats to the bpy import operator.
var cyclesImporters = map[string]string{
	"gltf": "bpy.ops.import_scene.gltf(filepath=%q)",
	"glb":  "bpy.ops.import_scene.gltf(filepath=%q)",
	"obj":  "bpy.ops.wm.obj_import(filepath=%q)",
	"fbx":  "bpy.ops.import_scene.fbx(filepath=%q)",
	"stl":  "bpy.ops.wm.stl_import(filepath=%q)",
	"ply":  "bpy.ops.wm.ply_import(filepath=%q)",
	"abc":  "bpy.ops.wm.alembic_import(filepath=%q)",
	"usd":  "bpy.ops.wm.usd_import(filepath=%q)",
}

func (a *Cycles) Render(ctx context.Context, scenePath, outputPath string, settings render.Settings) (*render.Result, error) {
	version, ok := a.Detect()
	if !ok {
		return nil, &NotFoundError{
			Renderer:    a.DisplayName(),
			InstallHint: "sudo apt install blender  (or download from https://www.blender.org/download/)",
		}
	}
	if err := checkScene(a, scenePath, a.SupportedFormats()); err != nil {
		return nil, err
	}
	if err := ensureOutputDir(a.DisplayName(), outputPath); err != nil {
		return nil, err
	}

	script, err := a.writeDriver(scenePath, outputPath, settings)
	if err != nil {
		return nil, &RenderError{Renderer: a.DisplayName(), Reason: err.Error()}
	}
	defer os.Remove(script)

	binary, _ := a.tool.Binary()
	args := []string{binary}
	if sceneExt(scenePath) == "blend" {
		args = append(args, scenePath)
	}
	args = append(args, "--background", "--python", script)

	res, err := runRender(ctx, a.DisplayName(), execSpec(args, scenePath, settings, cyclesDefaultTimeout))
	if err != nil {
		return nil, err
	}

	actual, err := verifyOutput(a.DisplayName(), outputPath, []string{".png"}, res.Stdout+"\n"+res.Stderr)
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

// writeDriver emits the per-run Python script and returns its path.
func (a *Cycles) writeDriver(scenePath, outputPath string, settings render.Settings) (string, error) {
	var b strings.Builder
	b.WriteString("import bpy\n")
	if op, ok := cyclesImporters[sceneExt(scenePath)]; ok {
		fmt.Fprintf(&b, "bpy.ops.wm.read_homefile(use_empty=True)\n")
		fmt.Fprintf(&b, op+"\n", scenePath)
	}
	b.WriteString("scene = bpy.context.scene\n")
	b.WriteString("scene.render.engine = 'CYCLES'\n")
	fmt.Fprintf(&b, "scene.render.resolution_x = %d\n", settings.Width)
	fmt.Fprintf(&b, "scene.render.resolution_y = %d\n", settings.Height)
	b.WriteString("scene.render.resolution_percentage = 100\n")
	if settings.Samples > 0 {
		fmt.Fprintf(&b, "scene.cycles.samples = %d\n", settings.Samples)
	}
	if settings.GPU {
		b.WriteString("scene.cycles.device = 'GPU'\n")
	} else {
		b.WriteString("scene.cycles.device = 'CPU'\n")
	}
	if settings.Threads > 0 {
		b.WriteString("scene.render.threads_mode = 'FIXED'\n")
		fmt.Fprintf(&b, "scene.render.threads = %d\n", settings.Threads)
	}
	fmt.Fprintf(&b, "scene.render.filepath = %q\n", outputPath)
	b.WriteString("bpy.ops.render.render(write_still=True)\n")

	f, err := os.CreateTemp("", "renderscope-cycles-*.py")
	if err != nil {
		return "", fmt.Errorf("create driver script: %w", err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write driver script: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write driver script: %w", err)
	}
	return f.Name(), nil
}

// cyclesExporters maps target formats to the bpy export operator.
var cyclesExporters = map[string]string{
	"blend": "bpy.ops.wm.save_as_mainfile(filepath=%q)",
	"gltf":  "bpy.ops.export_scene.gltf(filepath=%q)",
	"glb":   "bpy.ops.export_scene.gltf(filepath=%q)",
	"obj":   "bpy.ops.wm.obj_export(filepath=%q)",
	"fbx":   "bpy.ops.export_scene.fbx(filepath=%q)",
	"stl":   "bpy.ops.wm.stl_export(filepath=%q)",
	"ply":   "bpy.ops.wm.ply_export(filepath=%q)",
}

// ConvertScene transcodes through Blender's importers and exporters. The
// converted file lands next to the source with the target extension.
func (a *Cycles) ConvertScene(ctx context.Context, source, targetFormat string) (string, error) {
	if _, ok := a.Detect(); !ok {
		return "", &NotFoundError{Renderer: a.DisplayName()}
	}
	exportOp, ok := cyclesExporters[targetFormat]
	if !ok {
		return "", ErrConversionUnsupported
	}
	if err := checkScene(a, source, a.SupportedFormats()); err != nil {
		return "", err
	}

	stem := strings.TrimSuffix(source, "."+sceneExt(source))
	target := stem + "." + targetFormat

	var b strings.Builder
	b.WriteString("import bpy\n")
	if op, ok := cyclesImporters[sceneExt(source)]; ok {
		b.WriteString("bpy.ops.wm.read_homefile(use_empty=True)\n")
		fmt.Fprintf(&b, op+"\n", source)
	}
	fmt.Fprintf(&b, exportOp+"\n", target)

	script, err := os.CreateTemp("", "renderscope-convert-*.py")
	if err != nil {
		return "", fmt.Errorf("create conversion script: %w", err)
	}
	if _, err := script.WriteString(b.String()); err != nil {
		script.Close()
		os.Remove(script.Name())
		return "", fmt.Errorf("write conversion script: %w", err)
	}
	script.Close()
	defer os.Remove(script.Name())

	binary, _ := a.tool.Binary()
	args := []string{binary}
	if sceneExt(source) == "blend" {
		args = append(args, source)
	}
	args = append(args, "--background", "--python", script.Name())

	settings := render.DefaultSettings()
	if _, err := runRender(ctx, a.DisplayName(), execSpec(args, source, settings, 10*time.Minute)); err != nil {
		return "", err
	}
	if _, err := os.Stat(target); err != nil {
		return "", &RenderError{
			Renderer: a.DisplayName(),
			Reason:   fmt.Sprintf("converted file was not created at %s", target),
		}
	}
	return target, nil
}

var (
	_ Adapter        = (*Cycles)(nil)
	_ SceneConverter = (*Cycles)(nil)
)
