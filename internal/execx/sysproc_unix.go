//go:build unix

package execx

import (
	"os"
	"syscall"
)

// sysProcAttr places the child in its own process group so cancellation can
// terminate the whole tree, not just the direct child.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func killTree(p *os.Process) {
	// Negative PID signals the whole process group.
	_ = syscall.Kill(-p.Pid, syscall.SIGKILL)
}
