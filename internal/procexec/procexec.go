// Package procexec runs external tools and reports their termination as a
// structured result, so callers branch on exit codes and signals instead of
// parsing error strings.
package procexec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Result describes how a subprocess terminated.
type Result struct {
	ExitCode int    // Exit status; -1 when the process was killed by a signal.
	Signaled bool   // True when the process terminated on a signal.
	Signal   int    // Signal number; 0 when Signaled is false.
	Stderr   string // Captured stderr, trimmed. Empty when streamed to the caller.
}

// Success reports a clean zero exit.
func (r Result) Success() bool { return !r.Signaled && r.ExitCode == 0 }

// Crashed reports termination by the given signal number.
func (r Result) Crashed(signal int) bool { return r.Signaled && r.Signal == signal }

// Options controls how a command is run.
type Options struct {
	Dir    string // Working directory; empty means inherit.
	Stream bool   // Pass the child's stdout/stderr through to ours.
}

// Run executes name with args and waits for it to exit. The returned error is
// non-nil only when the process could not be started (missing binary,
// permission); a non-zero exit or signal termination is reported via Result.
func Run(ctx context.Context, opts Options, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = opts.Dir

	var stderrBuf strings.Builder
	if opts.Stream {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	if err == nil {
		return Result{Stderr: strings.TrimSpace(stderrBuf.String())}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res := classify(exitErr)
		res.Stderr = strings.TrimSpace(stderrBuf.String())
		return res, nil
	}
	return Result{}, fmt.Errorf("start %s: %w", name, err)
}
