// Package postprocess runs the optional convert → composite → backup chain
// on a committed run directory.
package postprocess

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/stonefall/worldforge/internal/config"
	"github.com/stonefall/worldforge/internal/logging"
	"github.com/stonefall/worldforge/internal/organize"
	"github.com/stonefall/worldforge/internal/procexec"
)

// ArchiveSuffix is appended to the run name for the backup archive, marking
// archives of worlds that have never been played.
const ArchiveSuffix = " (Fresh World)"

// Run identifies a committed run directory for post-processing.
type Run struct {
	Name     string // Resolved unique run name.
	SaveRoot string // Directory containing the run (archives are placed here).
}

// Dir returns the run directory path.
func (r Run) Dir() string { return filepath.Join(r.SaveRoot, r.Name) }

// InfoDir returns the run's info subdirectory path.
func (r Run) InfoDir() string { return filepath.Join(r.Dir(), organize.InfoDirName) }

// ArchivePath returns the backup archive path at the save-root level.
func (r Run) ArchivePath() string {
	return filepath.Join(r.SaveRoot, r.Name+ArchiveSuffix+".zip")
}

// StepError reports which pipeline step failed; the batch aborts on any of
// them with a dedicated terminal code.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return e.Step + ": " + e.Err.Error() }
func (e *StepError) Unwrap() error { return e.Err }

// Pipeline executes the enabled post-processing steps in fixed order.
type Pipeline struct {
	cfg *config.Config
	log *logging.Logger

	// run is the process launcher; swapped in tests.
	run func(ctx context.Context, opts procexec.Options, name string, args ...string) (procexec.Result, error)
}

// NewPipeline returns a Pipeline using the real process launcher.
func NewPipeline(cfg *config.Config, log *logging.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, log: log, run: procexec.Run}
}

// Run executes the enabled steps against the run directory. Ordering is
// fixed: convert, then composite, then backup, so the archive always reflects
// the converted state.
func (p *Pipeline) Run(ctx context.Context, run Run) error {
	if p.cfg.ConvertEnabled {
		if err := p.convert(ctx, run); err != nil {
			return &StepError{Step: "convert", Err: err}
		}
	}
	if p.cfg.CompositeEnabled {
		if !p.cfg.ConvertEnabled {
			// Composite blends the two converted images; without the convert
			// step it has no inputs.
			p.log.Warn("Composite skipped: requires the convert step")
		} else if err := p.composite(ctx, run); err != nil {
			return &StepError{Step: "composite", Err: err}
		}
	}
	if p.cfg.BackupEnabled {
		if err := p.backup(ctx, run); err != nil {
			return &StepError{Step: "backup", Err: err}
		}
	}
	return nil
}

// mapImages returns the canonical bitmap base names in blend order
// (biome over height).
func mapImages() []string { return []string{"Biome Map", "Height Map"} }

// convert turns each map bitmap into the configured compressed format and
// deletes the bitmap.
func (p *Pipeline) convert(ctx context.Context, run Run) error {
	for _, base := range mapImages() {
		src := filepath.Join(run.InfoDir(), base+".bmp")
		dst := filepath.Join(run.InfoDir(), base+"."+p.cfg.ConvertedExt)
		p.log.Debug(p.cfg.Verbose, "Converting %s", filepath.Base(src))

		if err := p.invoke(ctx, p.cfg.ConvertBin, src, dst); err != nil {
			return err
		}
		if err := os.Remove(src); err != nil {
			return fmt.Errorf("remove bitmap: %w", err)
		}
	}
	return nil
}

// composite blends the two converted map images into a third image.
func (p *Pipeline) composite(ctx context.Context, run Run) error {
	ext := "." + p.cfg.ConvertedExt
	images := mapImages()
	over := filepath.Join(run.InfoDir(), images[0]+ext)
	under := filepath.Join(run.InfoDir(), images[1]+ext)
	out := filepath.Join(run.InfoDir(), "Composite"+ext)

	p.log.Debug(p.cfg.Verbose, "Compositing maps at %d%% blend", p.cfg.BlendPercent)
	return p.invoke(ctx, p.cfg.CompositeBin,
		"-blend", strconv.Itoa(p.cfg.BlendPercent), over, under, out)
}

// backup archives the whole run directory next to it at the save root.
// The archive tool runs from the save root so archive members carry the run
// name as their top-level path, not the absolute save root.
func (p *Pipeline) backup(ctx context.Context, run Run) error {
	p.log.Debug(p.cfg.Verbose, "Archiving to %s", filepath.Base(run.ArchivePath()))
	res, err := p.run(ctx, procexec.Options{Dir: run.SaveRoot},
		p.cfg.ArchiveBin, "-r", run.Name+ArchiveSuffix+".zip", run.Name)
	if err != nil {
		return err
	}
	return checkResult(p.cfg.ArchiveBin, res)
}

// invoke runs a tool and folds a non-zero exit into an error with the tool's
// captured stderr.
func (p *Pipeline) invoke(ctx context.Context, name string, args ...string) error {
	res, err := p.run(ctx, procexec.Options{}, name, args...)
	if err != nil {
		return err
	}
	return checkResult(name, res)
}

func checkResult(name string, res procexec.Result) error {
	if res.Success() {
		return nil
	}
	msg := fmt.Sprintf("%s exited with status %d", name, res.ExitCode)
	if res.Signaled {
		msg = fmt.Sprintf("%s killed by signal %d", name, res.Signal)
	}
	if res.Stderr != "" {
		msg += ": " + firstLine(res.Stderr)
	}
	return fmt.Errorf("%s", msg)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
