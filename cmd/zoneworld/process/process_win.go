//go:build windows
// +build windows

package process

import (
	"syscall"
)

// Signal kills the process, windows has no SIGTERM
func (p process) Signal(sig syscall.Signal) error {
	return p.Process.Kill()
}
