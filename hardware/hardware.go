// Package hardware detects the host environment stamped on every render
// result for reproducibility.
package hardware

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Info describes the detected host. Fields that cannot be determined are
// zero values; detection never fails.
type Info struct {
	CPU              string   `json:"cpu"`
	CPUCoresPhysical int      `json:"cpu_cores_physical"`
	CPUCoresLogical  int      `json:"cpu_cores_logical"`
	RAMGB            float64  `json:"ram_gb"`
	GPU              string   `json:"gpu,omitempty"`
	GPUVRAMGB        float64  `json:"gpu_vram_gb,omitempty"`
	OS               string   `json:"os"`
	GoVersion        string   `json:"go_version"`
	OptionalFeatures []string `json:"optional_features,omitempty"`
}

// Detect returns a best-effort snapshot of the current host.
func Detect() Info {
	info := Info{
		CPU:             detectCPU(),
		CPUCoresLogical: runtime.NumCPU(),
		RAMGB:           detectRAMGB(),
		OS:              detectOS(),
		GoVersion:       runtime.Version(),
	}
	info.CPUCoresPhysical = detectPhysicalCores()
	if info.CPUCoresPhysical == 0 {
		info.CPUCoresPhysical = info.CPUCoresLogical
	}
	info.GPU, info.GPUVRAMGB = detectGPU()
	if info.GPU != "" {
		info.OptionalFeatures = append(info.OptionalFeatures, "nvidia-smi")
	}
	return info
}

// detectGPU shells out to nvidia-smi. Absence of the tool or any failure
// simply means no GPU is reported.
func detectGPU() (string, float64) {
	bin, err := exec.LookPath("nvidia-smi")
	if err != nil {
		return "", 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin,
		"--query-gpu=name,memory.total", "--format=csv,noheader,nounits")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", 0
	}

	line := strings.TrimSpace(strings.SplitN(out.String(), "\n", 2)[0])
	if line == "" {
		return "", 0
	}
	parts := strings.SplitN(line, ",", 2)
	name := strings.TrimSpace(parts[0])
	vram := 0.0
	if len(parts) == 2 {
		if mb, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err == nil {
			vram = mb / 1024
		}
	}
	return name, vram
}
