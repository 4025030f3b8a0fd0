//go:build windows

package execx

import (
	"os"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	return nil
}

func killTree(p *os.Process) {
	// No process groups here; killing the direct child is the best available.
	_ = p.Kill()
}
