package render

import "github.com/renderscope-dev/renderscope/hardware"

// Result is the immutable outcome of one successful render. A fresh render
// produces a fresh Result; nothing mutates one after Build.
type Result struct {
	Renderer          string         `json:"renderer"`
	Scene             string         `json:"scene"`
	OutputPath        string         `json:"output_path"`
	RenderTimeSeconds float64        `json:"render_time_seconds"`
	PeakMemoryMB      float64        `json:"peak_memory_mb"`
	Settings          Settings       `json:"settings"`
	Hardware          hardware.Info  `json:"hardware"`
	Timestamp         string         `json:"timestamp"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}
