//go:build unix

package liveness

import (
	"os"
	"syscall"
)

// pidAlive probes for process liveness via a signal-0 send, which the
// kernel validates without actually delivering a signal.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
