//go:build !windows

package procexec

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// classify extracts the signal state from a finished process. The generator's
// crash signal must be distinguishable from ordinary non-zero exits.
func classify(err *exec.ExitError) Result {
	if sys, ok := err.Sys().(syscall.WaitStatus); ok {
		ws := unix.WaitStatus(sys)
		if ws.Signaled() {
			return Result{ExitCode: err.ExitCode(), Signaled: true, Signal: int(ws.Signal())}
		}
		return Result{ExitCode: ws.ExitStatus()}
	}
	return Result{ExitCode: err.ExitCode()}
}
