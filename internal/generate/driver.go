// Package generate drives the external world generator against the sentinel
// save slot, retrying transparently when the generator dies on its known
// crash signal.
package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/stonefall/worldforge/internal/config"
	"github.com/stonefall/worldforge/internal/logging"
	"github.com/stonefall/worldforge/internal/procexec"
)

// ErrRetryBudget is returned when the generator crashed on every attempt up
// to the configured ceiling.
var ErrRetryBudget = errors.New("generator crash-retry budget exhausted")

// Job describes one generation request.
type Job struct {
	Slot     string
	Seed     string
	ParamSet string
}

// Args returns the fixed generator argument list for the job.
func (j Job) Args() []string {
	return []string{"-gen", j.Slot, j.Seed, j.ParamSet}
}

// Driver invokes the generator and owns the crash-retry loop. It never
// inspects produced files; whether an artifact set appeared is the caller's
// post-condition to check.
type Driver struct {
	cfg *config.Config
	log *logging.Logger

	// run is the process launcher; swapped in tests.
	run func(ctx context.Context, opts procexec.Options, name string, args ...string) (procexec.Result, error)
}

// NewDriver returns a Driver using the real process launcher.
func NewDriver(cfg *config.Config, log *logging.Logger) *Driver {
	return &Driver{cfg: cfg, log: log, run: procexec.Run}
}

// Generate runs the generator until it terminates without the crash signal,
// up to the configured attempt budget. A non-crash termination returns nil
// regardless of exit status: the generator exits non-zero in some interactive
// abort paths that still count as "no output" rather than tool failure, and
// only the caller can tell by looking for artifacts.
func (d *Driver) Generate(ctx context.Context, job Job) error {
	opts := procexec.Options{Dir: d.cfg.GameDir, Stream: true}

	for attempt := 1; attempt <= d.cfg.MaxGenAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := d.run(ctx, opts, d.cfg.GeneratorPath(), job.Args()...)
		if err != nil {
			return fmt.Errorf("generator: %w", err)
		}

		if res.Crashed(d.cfg.CrashSignal) {
			d.log.Warn("Generator crashed (signal %d), restarting (attempt %d/%d)",
				res.Signal, attempt, d.cfg.MaxGenAttempts)
			continue
		}

		d.log.Debug(d.cfg.Verbose, "Generator exited with status %d after %d attempt(s)",
			res.ExitCode, attempt)
		return nil
	}

	return ErrRetryBudget
}
