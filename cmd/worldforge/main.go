// Command worldforge is the CLI entrypoint for the batch world-generation
// harness.
//
// It parses flags and the optional config file, validates configuration, and
// either runs system diagnostics (--check) or the generation batch, exiting
// with the batch's terminal status code.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sys/unix"

	"github.com/stonefall/worldforge/internal/batch"
	"github.com/stonefall/worldforge/internal/check"
	"github.com/stonefall/worldforge/internal/config"
	"github.com/stonefall/worldforge/internal/display"
	"github.com/stonefall/worldforge/internal/logging"
	"github.com/stonefall/worldforge/internal/term"
)

// version and commit are injected at build time via -ldflags.
// When built with plain "go build" (no make), these retain their defaults.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// No logger exists yet, so parse and validation errors go directly
	// to stderr.
	cfg := config.Default()
	if err := config.ParseFlags(&cfg, version, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "worldforge: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "worldforge: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "worldforge: %v\n", err)
		return 1
	}
	defer log.Close()

	display.PrintBanner()

	if cfg.CheckOnly {
		if !check.RunCheck(&cfg, log) {
			return 1
		}
		return 0
	}

	log.Info("=== Worldforge v%s (%s) ===", version, commit)

	// Fail fast if the generator or an enabled step's tool is unavailable.
	if !cfg.DryRun {
		if err := check.CheckDeps(&cfg); err != nil {
			log.Error("%v", err)
			return 1
		}
	}

	// SIGINT/SIGTERM cancel the context; the batch stops between
	// subprocess invocations, never mid-organization.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGINT, unix.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, finishing current step…")
		cancel()
	}()

	// The pause keeps output readable when launched from a double-click
	// or wrapper script.
	stats := batch.New(&cfg, log).Run(ctx)
	pause(&cfg, log)
	return stats.Code
}

// pause sleeps for the configured duration, or waits for a keypress when the
// configured pause is negative.
func pause(cfg *config.Config, log *logging.Logger) {
	switch {
	case cfg.PauseSeconds > 0:
		time.Sleep(time.Duration(cfg.PauseSeconds) * time.Second)
	case cfg.PauseSeconds < 0:
		log.Info("Press any key to exit")
		if err := term.WaitForKey(); err != nil {
			log.Debug(cfg.Verbose, "Keypress wait failed: %v", err)
		}
	}
}
