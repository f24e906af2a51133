//go:build windows

package procexec

import "os/exec"

// classify on Windows has no signal semantics; crashes surface as the
// NTSTATUS exit code and the crash-retry loop never triggers.
func classify(err *exec.ExitError) Result {
	return Result{ExitCode: err.ExitCode()}
}
