// Package batch orchestrates the generation cycles: slot check, generation,
// naming, organization, post-processing, and aggregate status reporting.
package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/stonefall/worldforge/internal/config"
	"github.com/stonefall/worldforge/internal/display"
	"github.com/stonefall/worldforge/internal/generate"
	"github.com/stonefall/worldforge/internal/logging"
	"github.com/stonefall/worldforge/internal/naming"
	"github.com/stonefall/worldforge/internal/organize"
	"github.com/stonefall/worldforge/internal/postprocess"
)

// Terminal status codes, used as the process exit status.
const (
	CodeOK            = 0 // All requested cycles completed.
	CodeSlotOccupied  = 1 // Sentinel slot held artifacts before generation.
	CodeOutputMissing = 2 // Generator exited but produced no artifact set.
	CodeToolFailure   = 3 // An external tool failed or could not be started.
	CodeRetryBudget   = 4 // Generator crashed on every attempt in the budget.
)

// Stats tracks aggregate counters across a batch run. Code is the terminal
// status the process should exit with.
type Stats struct {
	Requested    int
	Completed    int
	Regenerated  int // Cycles repeated after a name-collision race.
	ArchiveBytes int64
	Code         int
}

// generator and postProcessor are the seams the controller drives each cycle
// through; narrowed to interfaces so tests can substitute fakes.
type generator interface {
	Generate(ctx context.Context, job generate.Job) error
}

type postProcessor interface {
	Run(ctx context.Context, run postprocess.Run) error
}

// Controller runs the batch loop. One cycle at a time, one subprocess at a
// time; the filesystem is the only shared state.
type Controller struct {
	cfg  *config.Config
	log  *logging.Logger
	gen  generator
	post postProcessor

	// commit is the run-directory commit operation; swapped in tests to
	// force the name-collision race deterministically.
	commit func(saveRoot, slot, name string) error
}

// New wires a Controller with the real driver and pipeline.
func New(cfg *config.Config, log *logging.Logger) *Controller {
	return &Controller{
		cfg:    cfg,
		log:    log,
		gen:    generate.NewDriver(cfg, log),
		post:   postprocess.NewPipeline(cfg, log),
		commit: organize.Commit,
	}
}

// Run executes the batch: up to cfg.Cycles completed generations, stopping
// early on the first fatal condition. A name-collision race repeats the cycle
// without counting it and without raising an error.
func (c *Controller) Run(ctx context.Context) Stats {
	stats := Stats{Requested: c.cfg.Cycles}
	saveRoot := c.cfg.SaveRoot()

	logBatchHeader(c.cfg, c.log)

	for stats.Completed < c.cfg.Cycles {
		if ctx.Err() != nil {
			c.log.Warn("Interrupted")
			break
		}

		cycle := stats.Completed + 1
		c.log.Info("[%d/%d] Generating world", cycle, c.cfg.Cycles)

		if c.cfg.DryRun {
			c.dryCycle()
			stats.Completed++
			continue
		}

		// The generator owns the slot exclusively. Leftover artifacts from
		// an unclean earlier run must be resolved by hand, not overwritten.
		if organize.SlotOccupied(saveRoot, c.cfg.SlotName) {
			c.log.Error("Save slot %q already holds artifacts; move or delete them first", c.cfg.SlotName)
			stats.Code = CodeSlotOccupied
			break
		}

		job := generate.Job{
			Slot:     c.cfg.SlotName,
			Seed:     c.seedForCycle(),
			ParamSet: c.cfg.ParamSet,
		}
		c.log.Gen("Seed %s, parameter set %q", job.Seed, job.ParamSet)

		start := time.Now()
		if err := c.gen.Generate(ctx, job); err != nil {
			stats.Code = c.classifyGenerateError(err)
			break
		}

		// The driver reports nothing about output; absence of the artifact
		// set is diagnosed here.
		if !organize.SlotOccupied(saveRoot, c.cfg.SlotName) {
			c.log.Error("Generator exited but produced no world (aborted interactively?)")
			stats.Code = CodeOutputMissing
			break
		}

		name, err := naming.WorldNameFromHistory(organize.HistoryPath(saveRoot, c.cfg.SlotName))
		if err != nil {
			c.log.Error("Cannot derive world name: %v", err)
			stats.Code = CodeOutputMissing
			break
		}
		resolved := naming.Resolve(saveRoot, name)
		if resolved != name {
			c.log.Debug(c.cfg.Verbose, "Name %q taken, using %q", name, resolved)
		}

		if err := c.commit(saveRoot, c.cfg.SlotName, resolved); err != nil {
			if errors.Is(err, organize.ErrNameRace) {
				c.log.Warn("Run %q appeared during commit; discarding and regenerating", resolved)
				stats.Regenerated++
				continue
			}
			c.log.Error("Cannot organize run %q: %v", resolved, err)
			stats.Code = CodeToolFailure
			break
		}

		run := postprocess.Run{Name: resolved, SaveRoot: saveRoot}
		if err := c.post.Run(ctx, run); err != nil {
			c.log.Error("Post-processing failed: %v", err)
			stats.Code = CodeToolFailure
			break
		}

		if c.cfg.BackupEnabled {
			if fi, err := os.Stat(run.ArchivePath()); err == nil {
				stats.ArchiveBytes += fi.Size()
			}
		}

		stats.Completed++
		c.log.Success("World %q ready in %s", resolved, display.FormatDuration(time.Since(start)))
		fmt.Println()
	}

	logSummary(c.cfg, c.log, &stats)
	return stats
}

// dryCycle logs what a real cycle would do.
func (c *Controller) dryCycle() {
	c.log.Success("[DRY] Would generate with seed %s, parameter set %q", c.cfg.Seed, c.cfg.ParamSet)
	if c.cfg.ConvertEnabled {
		c.log.Success("[DRY] Would convert map bitmaps to %s", c.cfg.ConvertedExt)
	}
	if c.cfg.CompositeEnabled && c.cfg.ConvertEnabled {
		c.log.Success("[DRY] Would composite maps at %d%% blend", c.cfg.BlendPercent)
	}
	if c.cfg.BackupEnabled {
		c.log.Success("[DRY] Would archive the run directory")
	}
}

// seedForCycle returns the configured seed, or a fresh numeric seed when the
// seed is RANDOM, so repeated cycles do not regenerate the same world.
func (c *Controller) seedForCycle() string {
	if c.cfg.Seed != "RANDOM" {
		return c.cfg.Seed
	}
	return strconv.FormatUint(uint64(rand.Uint32()), 10)
}

func (c *Controller) classifyGenerateError(err error) int {
	switch {
	case errors.Is(err, generate.ErrRetryBudget):
		c.log.Error("Generator crashed %d times in a row; giving up", c.cfg.MaxGenAttempts)
		return CodeRetryBudget
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		c.log.Warn("Interrupted")
		return CodeOK
	default:
		c.log.Error("Generator: %v", err)
		return CodeToolFailure
	}
}

// --- Logging helpers ---

func logBatchHeader(cfg *config.Config, log *logging.Logger) {
	log.Info("Cycles: %d", cfg.Cycles)
	log.Info("Seed: %s, parameter set: %q", cfg.Seed, cfg.ParamSet)
	log.Info("Save root: %s (slot %q)", cfg.SaveRoot(), cfg.SlotName)

	steps := ""
	if cfg.ConvertEnabled {
		steps += " convert"
	}
	if cfg.CompositeEnabled {
		steps += " composite"
	}
	if cfg.BackupEnabled {
		steps += " backup"
	}
	if steps == "" {
		steps = " none"
	}
	log.Info("Post-processing:%s", steps)

	if cfg.DryRun {
		log.Warn("DRY RUN: no worlds will be generated")
	}
	fmt.Println()
}

func logSummary(cfg *config.Config, log *logging.Logger, stats *Stats) {
	log.Info("==============================")
	log.Info("Done: %d/%d worlds, %d regenerated after collisions",
		stats.Completed, stats.Requested, stats.Regenerated)
	if cfg.BackupEnabled && stats.ArchiveBytes > 0 {
		log.Info("Archives: %s total", display.FormatBytes(stats.ArchiveBytes))
	}

	switch stats.Code {
	case CodeOK:
		if stats.Completed == stats.Requested {
			log.Success("All %d cycles completed", stats.Requested)
		}
	case CodeSlotOccupied:
		log.Error("Aborted: save slot %q was already occupied", cfg.SlotName)
	case CodeOutputMissing:
		log.Error("Aborted: generator produced no output")
	case CodeToolFailure:
		log.Error("Aborted: external tool failure")
	case CodeRetryBudget:
		log.Error("Aborted: generator crash-retry budget exhausted")
	}
}
