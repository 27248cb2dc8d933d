//go:build linux

package execution

import (
	"os"
	"os/exec"
	"syscall"
)

// setProcAttr places the child in its own process group so a timeout kill
// reaches descendants too.
func setProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killTree force-kills the child's process group, falling back to the
// child alone.
func killTree(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
}

// exitCodeFor maps a signaled exit to 128+signal, otherwise the plain
// exit status.
func exitCodeFor(exitErr *exec.ExitError) int {
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
		if status.Exited() {
			return status.ExitStatus()
		}
		if status.Signaled() {
			return 128 + int(status.Signal())
		}
	}
	return exitErr.ExitCode()
}

// childMaxRSSMB reads the child's max RSS from its rusage, in megabytes.
func childMaxRSSMB(ps *os.ProcessState) float64 {
	if ps == nil {
		return 0
	}
	usage, ok := ps.SysUsage().(*syscall.Rusage)
	if !ok {
		return 0
	}
	return float64(usage.Maxrss) / 1024
}
