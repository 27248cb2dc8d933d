//go:build !linux

package hardware

import "runtime"

func detectCPU() string { return runtime.GOARCH }

func detectPhysicalCores() int { return 0 }

func detectRAMGB() float64 { return 0 }

func detectOS() string { return runtime.GOOS }
