//go:build !linux

package execution

import (
	"os"
	"os/exec"
)

func setProcAttr(cmd *exec.Cmd) {}

func killTree(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

func exitCodeFor(exitErr *exec.ExitError) int {
	return exitErr.ExitCode()
}

func childMaxRSSMB(ps *os.ProcessState) float64 {
	_ = ps
	return 0
}
