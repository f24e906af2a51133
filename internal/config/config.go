// Package config holds runtime configuration: defaults, optional YAML config
// file, CLI flag parsing, and validation. Defaults match the legacy worldgen
// automation script for parity.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// DefaultCrashSignal is the termination signal treated as a recoverable
// generator crash (SIGSEGV). Kept as a plain int so Config stays portable.
const DefaultCrashSignal = 11

// Config holds all runtime settings. It is populated by [Default], optionally
// overlaid by [LoadFile], and then mutated by [ParseFlags] before being passed
// (by pointer) to packages that need it.
type Config struct {
	// Batch parameters.
	Cycles       int    // Number of worlds to generate per batch.
	PauseSeconds int    // >=0: sleep that long after the batch; <0: wait for a keypress.
	ParamSet     string // Name of the worldgen parameter set passed to the generator.
	Seed         string // Numeric seed, or "RANDOM" for a fresh seed per cycle.

	// Post-processing toggles, applied in fixed order: convert, composite, backup.
	ConvertEnabled   bool
	CompositeEnabled bool
	BackupEnabled    bool

	// Paths and layout.
	GameDir     string // Directory the generator runs in.
	SaveDirName string // Save directory under GameDir. Default: "save".
	SlotName    string // Sentinel slot the generator always writes to. Default: "region1".

	// External tools.
	GeneratorBin string // Generator binary, resolved relative to GameDir when it contains a separator.
	ConvertBin   string // Image conversion tool. Default: "convert".
	CompositeBin string // Image composition tool. Default: "composite".
	ArchiveBin   string // Archive tool. Default: "zip".

	// Post-processing parameters.
	ConvertedExt string // Extension produced by the convert step, without dot. Default: "png".
	BlendPercent int    // Composite blend percentage. Default: 30.

	// Generation retry.
	MaxGenAttempts int // Attempt budget for the crash-retry loop. Default: 100.
	CrashSignal    int // Signal number treated as a recoverable crash. Default: SIGSEGV.

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.
	CheckOnly bool      // Run --check diagnostics and exit.
	DryRun    bool      // Walk the batch loop without invoking tools or moving files.
}

// Default returns a Config with all defaults matching the legacy automation
// script. Used as the base before [LoadFile] and [ParseFlags] apply overrides.
func Default() Config {
	return Config{
		Cycles:           1,
		PauseSeconds:     0,
		ParamSet:         "MEDIUM REGION",
		Seed:             "RANDOM",
		ConvertEnabled:   true,
		CompositeEnabled: true,
		BackupEnabled:    true,
		GameDir:          ".",
		SaveDirName:      "save",
		SlotName:         "region1",
		GeneratorBin:     "df",
		ConvertBin:       "convert",
		CompositeBin:     "composite",
		ArchiveBin:       "zip",
		ConvertedExt:     "png",
		BlendPercent:     30,
		MaxGenAttempts:   100,
		CrashSignal:      DefaultCrashSignal,
		ColorMode:        ColorAuto,
	}
}

// SaveRoot returns the directory the generator writes slot artifacts into and
// under which committed runs live.
func (c *Config) SaveRoot() string {
	return filepath.Join(c.GameDir, c.SaveDirName)
}

// GeneratorPath returns the generator binary path. A bare name is left as-is
// for PATH lookup; a relative path with separators is resolved against GameDir.
func (c *Config) GeneratorPath() string {
	if filepath.IsAbs(c.GeneratorBin) || !strings.ContainsRune(c.GeneratorBin, filepath.Separator) {
		return c.GeneratorBin
	}
	return filepath.Join(c.GameDir, c.GeneratorBin)
}

// Validate checks enum fields and numeric ranges. Tool availability is checked
// later by the check package, not here.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.Cycles < 0 {
		return errors.New("cycles must not be negative")
	}
	if c.MaxGenAttempts < 1 {
		return errors.New("max generation attempts must be at least 1")
	}
	if c.BlendPercent < 0 || c.BlendPercent > 100 {
		return errors.New("blend percent must be between 0 and 100")
	}
	if c.SlotName == "" {
		return errors.New("slot name must not be empty")
	}
	if strings.ContainsRune(c.SlotName, filepath.Separator) {
		return fmt.Errorf("slot name %q must not contain path separators", c.SlotName)
	}
	if c.ParamSet == "" {
		return errors.New("parameter set name must not be empty")
	}
	if c.Seed == "" {
		return errors.New("seed must not be empty (use 'RANDOM' for random seeds)")
	}
	if c.ConvertedExt == "" || strings.HasPrefix(c.ConvertedExt, ".") {
		return fmt.Errorf("converted extension %q must be given without dot", c.ConvertedExt)
	}
	return nil
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}
