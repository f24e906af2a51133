package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stonefall/worldforge/internal/config"
	"github.com/stonefall/worldforge/internal/generate"
	"github.com/stonefall/worldforge/internal/logging"
	"github.com/stonefall/worldforge/internal/organize"
	"github.com/stonefall/worldforge/internal/postprocess"
)

// fakeGen is a generator that simulates the external tool by writing slot
// artifacts directly.
type fakeGen struct {
	calls   int
	worldFn func(call int) string // history first line per invocation; "" produces nothing
	saveDir string
	slot    string
}

func (g *fakeGen) Generate(ctx context.Context, job generate.Job) error {
	g.calls++
	name := g.worldFn(g.calls)
	if name == "" {
		return nil
	}
	writeSlotArtifacts(g.saveDir, g.slot, name)
	return nil
}

func writeSlotArtifacts(saveRoot, slot, worldName string) {
	os.MkdirAll(filepath.Join(saveRoot, slot), 0o755)
	for _, a := range organize.Artifacts {
		content := a.Role
		if a.Suffix == "-world_history.txt" {
			content = worldName + "\nIn the year 1..."
		}
		os.WriteFile(filepath.Join(saveRoot, slot+a.Suffix), []byte(content), 0o644)
	}
}

// fakePost counts pipeline runs without invoking tools.
type fakePost struct {
	calls []postprocess.Run
	err   error
}

func (p *fakePost) Run(ctx context.Context, run postprocess.Run) error {
	p.calls = append(p.calls, run)
	return p.err
}

func testController(t *testing.T, cfg *config.Config, worldFn func(int) string) (*Controller, *fakeGen, *fakePost) {
	t.Helper()
	cfg.ColorMode = config.ColorNever
	log, err := logging.NewLogger(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { log.Close() })

	gen := &fakeGen{worldFn: worldFn, saveDir: cfg.SaveRoot(), slot: cfg.SlotName}
	post := &fakePost{}
	c := New(cfg, log)
	c.gen = gen
	c.post = post
	return c, gen, post
}

func batchConfig(t *testing.T, cycles int) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.GameDir = t.TempDir()
	cfg.Cycles = cycles
	cfg.Seed = "7"
	if err := os.MkdirAll(cfg.SaveRoot(), 0o755); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func runDirs(t *testing.T, saveRoot string) []string {
	t.Helper()
	entries, err := os.ReadDir(saveRoot)
	if err != nil {
		t.Fatal(err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs
}

func TestRunCompletesRequestedCycles(t *testing.T) {
	tests := []struct {
		name   string
		cycles int
	}{
		{"zero cycles", 0},
		{"one cycle", 1},
		{"three cycles", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := batchConfig(t, tt.cycles)
			c, gen, post := testController(t, &cfg, func(call int) string { return "World" })

			stats := c.Run(context.Background())

			if stats.Code != CodeOK {
				t.Errorf("Code = %d, want %d", stats.Code, CodeOK)
			}
			if stats.Completed != tt.cycles {
				t.Errorf("Completed = %d, want %d", stats.Completed, tt.cycles)
			}
			if gen.calls != tt.cycles {
				t.Errorf("generator invocations = %d, want %d", gen.calls, tt.cycles)
			}
			if len(post.calls) != tt.cycles {
				t.Errorf("post-processing runs = %d, want %d", len(post.calls), tt.cycles)
			}
			if dirs := runDirs(t, cfg.SaveRoot()); len(dirs) != tt.cycles {
				t.Errorf("run directories = %v, want %d distinct", dirs, tt.cycles)
			}
		})
	}
}

func TestRunSuffixesDuplicateWorldNames(t *testing.T) {
	// Every cycle produces the same world name; commits must still be
	// unique by construction.
	cfg := batchConfig(t, 3)
	c, _, _ := testController(t, &cfg, func(call int) string { return "Same World" })

	stats := c.Run(context.Background())

	if stats.Code != CodeOK || stats.Completed != 3 {
		t.Fatalf("stats = %+v", stats)
	}
	want := map[string]bool{"Same World": true, "Same World-0": true, "Same World-1": true}
	for _, dir := range runDirs(t, cfg.SaveRoot()) {
		if !want[dir] {
			t.Errorf("unexpected run directory %q", dir)
		}
		delete(want, dir)
	}
	if len(want) != 0 {
		t.Errorf("missing run directories: %v", want)
	}
}

func TestRunAbortsOnOccupiedSlot(t *testing.T) {
	cfg := batchConfig(t, 3)
	writeSlotArtifacts(cfg.SaveRoot(), cfg.SlotName, "Leftover")
	c, gen, _ := testController(t, &cfg, func(call int) string { return "World" })

	stats := c.Run(context.Background())

	if stats.Code != CodeSlotOccupied {
		t.Errorf("Code = %d, want %d", stats.Code, CodeSlotOccupied)
	}
	if gen.calls != 0 {
		t.Errorf("generator invocations = %d, want 0", gen.calls)
	}
	if stats.Completed != 0 {
		t.Errorf("Completed = %d, want 0", stats.Completed)
	}
}

func TestRunAbortsWhenNoOutputAppears(t *testing.T) {
	cfg := batchConfig(t, 3)
	c, gen, _ := testController(t, &cfg, func(call int) string { return "" })

	stats := c.Run(context.Background())

	if stats.Code != CodeOutputMissing {
		t.Errorf("Code = %d, want %d", stats.Code, CodeOutputMissing)
	}
	if gen.calls != 1 {
		t.Errorf("generator invocations = %d, want 1 (abort on first empty cycle)", gen.calls)
	}
	if stats.Completed != 0 {
		t.Errorf("Completed = %d, want 0", stats.Completed)
	}
}

func TestRunRetryBudgetBecomesTerminalCode(t *testing.T) {
	cfg := batchConfig(t, 2)
	c, _, _ := testController(t, &cfg, func(call int) string { return "World" })
	c.gen = failingGen{err: generate.ErrRetryBudget}

	stats := c.Run(context.Background())
	if stats.Code != CodeRetryBudget {
		t.Errorf("Code = %d, want %d", stats.Code, CodeRetryBudget)
	}
}

type failingGen struct{ err error }

func (g failingGen) Generate(ctx context.Context, job generate.Job) error { return g.err }

func TestRunPostProcessFailureAborts(t *testing.T) {
	cfg := batchConfig(t, 3)
	c, _, post := testController(t, &cfg, func(call int) string { return "World" })
	post.err = &postprocess.StepError{Step: "backup", Err: os.ErrPermission}

	stats := c.Run(context.Background())

	if stats.Code != CodeToolFailure {
		t.Errorf("Code = %d, want %d", stats.Code, CodeToolFailure)
	}
	if stats.Completed != 0 {
		t.Errorf("Completed = %d, want 0", stats.Completed)
	}
}

func TestRunRegeneratesAfterNameRace(t *testing.T) {
	cfg := batchConfig(t, 1)
	c, gen, _ := testController(t, &cfg, func(call int) string { return "Raced World" })

	// Steal the resolved name right before the first commit, then delegate
	// to the real commit. The organizer detects the collision, discards the
	// slot, and the controller repeats the cycle without counting it.
	raced := false
	c.commit = func(saveRoot, slot, name string) error {
		if !raced {
			raced = true
			os.Mkdir(filepath.Join(saveRoot, name), 0o755)
		}
		return organize.Commit(saveRoot, slot, name)
	}

	stats := c.Run(context.Background())

	if stats.Code != CodeOK {
		t.Fatalf("Code = %d, want %d", stats.Code, CodeOK)
	}
	if stats.Completed != 1 {
		t.Errorf("Completed = %d, want 1", stats.Completed)
	}
	if stats.Regenerated != 1 {
		t.Errorf("Regenerated = %d, want 1", stats.Regenerated)
	}
	if gen.calls != 2 {
		t.Errorf("generator invocations = %d, want 2 (cycle repeated)", gen.calls)
	}
	// The raced cycle committed under the suffixed name.
	if _, err := os.Stat(filepath.Join(cfg.SaveRoot(), "Raced World-0")); err != nil {
		t.Errorf("regenerated run not committed: %v", err)
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	cfg := batchConfig(t, 2)
	cfg.DryRun = true
	c, gen, post := testController(t, &cfg, func(call int) string { return "World" })

	stats := c.Run(context.Background())

	if stats.Code != CodeOK || stats.Completed != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if gen.calls != 0 || len(post.calls) != 0 {
		t.Errorf("dry run must not invoke generator (%d) or pipeline (%d)", gen.calls, len(post.calls))
	}
	if dirs := runDirs(t, cfg.SaveRoot()); len(dirs) != 0 {
		t.Errorf("dry run created directories: %v", dirs)
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	cfg := batchConfig(t, 5)
	c, gen, _ := testController(t, &cfg, func(call int) string { return "World" })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats := c.Run(ctx)

	if gen.calls != 0 {
		t.Errorf("generator invocations = %d, want 0", gen.calls)
	}
	if stats.Completed != 0 {
		t.Errorf("Completed = %d, want 0", stats.Completed)
	}
}

func TestSeedForCycle(t *testing.T) {
	cfg := config.Default()
	cfg.Seed = "12345"
	c := &Controller{cfg: &cfg}
	if got := c.seedForCycle(); got != "12345" {
		t.Errorf("fixed seed = %q, want 12345", got)
	}

	cfg.Seed = "RANDOM"
	if got := c.seedForCycle(); got == "RANDOM" || got == "" {
		t.Errorf("RANDOM seed should resolve to a numeric seed, got %q", got)
	}
}
