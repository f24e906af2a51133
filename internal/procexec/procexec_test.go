//go:build !windows

package procexec

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestRunSuccess(t *testing.T) {
	res, err := Run(context.Background(), Options{}, "sh", "-c", "exit 0")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Success() || res.Signaled || res.ExitCode != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	res, err := Run(context.Background(), Options{}, "sh", "-c", "exit 3")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Success() {
		t.Error("Success() should be false for exit 3")
	}
	if res.Signaled {
		t.Error("Signaled should be false for a plain exit")
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
}

func TestRunSignaled(t *testing.T) {
	res, err := Run(context.Background(), Options{}, "sh", "-c", "kill -SEGV $$")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Signaled {
		t.Fatal("Signaled should be true for a SIGSEGV death")
	}
	if res.Signal != 11 {
		t.Errorf("Signal = %d, want 11", res.Signal)
	}
	if !res.Crashed(11) {
		t.Error("Crashed(11) should be true")
	}
	if res.Crashed(9) {
		t.Error("Crashed(9) should be false")
	}
}

func TestRunCapturesStderr(t *testing.T) {
	res, err := Run(context.Background(), Options{}, "sh", "-c", "echo boom >&2; exit 1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Stderr != "boom" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "boom")
	}
}

func TestRunDir(t *testing.T) {
	dir := t.TempDir()
	res, err := Run(context.Background(), Options{Dir: dir}, "sh", "-c", "touch marker")
	if err != nil || !res.Success() {
		t.Fatalf("Run: %v %+v", err, res)
	}
	if _, err := os.Stat(filepath.Join(dir, "marker")); err != nil {
		t.Errorf("marker not created in working dir: %v", err)
	}
}

func TestRunMissingBinary(t *testing.T) {
	_, err := Run(context.Background(), Options{}, "definitely-not-a-binary-7f3a")
	if err == nil {
		t.Error("Run should return an error when the binary cannot be started")
	}
}
