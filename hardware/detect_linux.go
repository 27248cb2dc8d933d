//go:build linux

package hardware

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
)

func detectCPU() string {
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return runtime.GOARCH
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "model name") {
			if _, value, ok := strings.Cut(line, ":"); ok {
				return strings.TrimSpace(value)
			}
		}
	}
	return runtime.GOARCH
}

// detectPhysicalCores counts distinct (physical id, core id) pairs.
func detectPhysicalCores() int {
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return 0
	}
	defer f.Close()

	cores := map[string]struct{}{}
	physID, coreID := "", ""
	flush := func() {
		if coreID != "" {
			cores[physID+"/"+coreID] = struct{}{}
		}
		physID, coreID = "", ""
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.TrimSpace(line) == "":
			flush()
		case strings.HasPrefix(line, "physical id"):
			if _, v, ok := strings.Cut(line, ":"); ok {
				physID = strings.TrimSpace(v)
			}
		case strings.HasPrefix(line, "core id"):
			if _, v, ok := strings.Cut(line, ":"); ok {
				coreID = strings.TrimSpace(v)
			}
		}
	}
	flush()
	return len(cores)
}

func detectRAMGB() float64 {
	var si unix.Sysinfo_t
	if err := unix.Sysinfo(&si); err != nil {
		return 0
	}
	total := float64(si.Totalram) * float64(si.Unit)
	return total / (1024 * 1024 * 1024)
}

func detectOS() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return runtime.GOOS
	}
	return fmt.Sprintf("%s %s", trimNull(uts.Sysname[:]), trimNull(uts.Release[:]))
}

func trimNull(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
