package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into batch, post-processing, paths/tools, display, and
// utility. Negated flags (e.g. --no-convert) are applied after Parse so file
// and default values hold unless the flag is passed.
//
// Precedence: flags > config file > defaults. The config file is loaded
// before flag registration so flag defaults reflect file values.

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseFlags parses args (os.Args[1:]) into cfg. On --help or --version it
// prints and exits. On error it returns non-nil (e.g. unknown flag, bad value).
// The single optional positional argument overrides Cycles when it is a
// non-negative integer; anything else falls back to the configured value.
func ParseFlags(cfg *Config, version string, args []string) error {
	// The config file must be applied before flags so flags win. Scan for
	// --config ahead of the real parse.
	path, explicit := configFileArg(args)
	if err := LoadFile(cfg, path, explicit); err != nil {
		return err
	}

	fs := flag.NewFlagSet("worldforge", flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs, version) }

	var negated negatedFlags

	defineBatchFlags(fs, cfg)
	definePostProcessFlags(fs, cfg, &negated)
	definePathFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &negated)
	defineUtilityFlags(fs, &negated)

	if err := fs.Parse(args); err != nil {
		return err
	}

	applyNegatedFlags(cfg, &negated)

	if negated.showHelp {
		printUsage(fs, version)
		os.Exit(0)
	}
	if negated.showVersion {
		fmt.Fprintln(os.Stdout, "worldforge v"+version)
		os.Exit(0)
	}

	applyPositionalCycles(fs, cfg)
	return nil
}

// configFileArg scans raw args for the --config/-C flag without a full parse.
// Returns the default file name when the flag is absent.
func configFileArg(args []string) (path string, explicit bool) {
	for i, a := range args {
		switch {
		case a == "--config" || a == "-config" || a == "-C":
			if i+1 < len(args) {
				return args[i+1], true
			}
		case strings.HasPrefix(a, "--config="):
			return strings.TrimPrefix(a, "--config="), true
		case strings.HasPrefix(a, "-config="):
			return strings.TrimPrefix(a, "-config="), true
		}
	}
	return DefaultFileName, false
}

// negatedFlags holds boolean flags that are applied after Parse.
// These either invert a current value (e.g. noConvert -> ConvertEnabled=false)
// or trigger exit (showHelp, showVersion).
type negatedFlags struct {
	noConvert   bool
	noComposite bool
	noBackup    bool
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineBatchFlags registers -n/--cycles, --pause, --param, --seed, --max-attempts.
func defineBatchFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.Cycles, "cycles", cfg.Cycles, "Number of worlds to generate")
	fs.IntVar(&cfg.Cycles, "n", cfg.Cycles, "Same as --cycles")
	fs.IntVar(&cfg.PauseSeconds, "pause", cfg.PauseSeconds, "Seconds to pause after the batch (<0 waits for a keypress)")
	fs.StringVar(&cfg.ParamSet, "param", cfg.ParamSet, "Worldgen parameter set name")
	fs.StringVar(&cfg.Seed, "seed", cfg.Seed, "Worldgen seed, or RANDOM")
	fs.IntVar(&cfg.MaxGenAttempts, "max-attempts", cfg.MaxGenAttempts, "Crash-retry attempt budget per cycle")
}

// definePostProcessFlags registers the --no-convert/--no-composite/--no-backup toggles.
func definePostProcessFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.noConvert, "no-convert", false, "Keep map bitmaps; skip image conversion")
	fs.BoolVar(&n.noComposite, "no-composite", false, "Skip the composite map image")
	fs.BoolVar(&n.noBackup, "no-backup", false, "Skip the per-run archive")
	fs.StringVar(&cfg.ConvertedExt, "image-format", cfg.ConvertedExt, "Converted image extension (without dot)")
	fs.IntVar(&cfg.BlendPercent, "blend", cfg.BlendPercent, "Composite blend percentage")
}

// definePathFlags registers game dir, slot and tool overrides.
func definePathFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&dirValue{&cfg.GameDir}, "game-dir", "Directory the generator runs in")
	fs.Var(&dirValue{&cfg.GameDir}, "g", "Same as --game-dir")
	fs.StringVar(&cfg.SlotName, "slot", cfg.SlotName, "Sentinel save slot the generator writes to")
	fs.StringVar(&cfg.GeneratorBin, "generator", cfg.GeneratorBin, "Generator binary")
	fs.StringVar(&cfg.ConvertBin, "convert-tool", cfg.ConvertBin, "Image conversion tool")
	fs.StringVar(&cfg.CompositeBin, "composite-tool", cfg.CompositeBin, "Image composition tool")
	fs.StringVar(&cfg.ArchiveBin, "archive-tool", cfg.ArchiveBin, "Archive tool")
}

// defineDisplayFlags registers --color, --no-color, verbose, --check, --log, --dry-run.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Preview only; do not generate or move files")
	fs.BoolVar(&cfg.DryRun, "d", false, "Same as --dry-run")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

// defineUtilityFlags registers --config, --version and --help.
func defineUtilityFlags(fs *flag.FlagSet, n *negatedFlags) {
	// --config is consumed by configFileArg before parsing; registered here
	// only so the parser accepts it and it shows in help.
	fs.String("config", DefaultFileName, "Config file path")
	fs.String("C", DefaultFileName, "Same as --config")
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as --help")
}

// applyNegatedFlags copies negated flag values into cfg (e.g. noConvert -> ConvertEnabled=false).
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noConvert {
		cfg.ConvertEnabled = false
	}
	if n.noComposite {
		cfg.CompositeEnabled = false
	}
	if n.noBackup {
		cfg.BackupEnabled = false
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// applyPositionalCycles applies the optional positional cycle count.
// A non-numeric or negative value is ignored and the configured count holds.
func applyPositionalCycles(fs *flag.FlagSet, cfg *Config) {
	args := fs.Args()
	if len(args) == 0 {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil || n < 0 {
		return
	}
	cfg.Cycles = n
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(fs *flag.FlagSet, version string) {
	const col1 = 30 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "Worldforge v" + version + " - batch world generation harness"},
		{"", ""},
		{"  worldforge [OPTIONS] [cycles]", ""},
		{"", ""},
		{"Batch", ""},
		{"  -n, --cycles <count>", "Number of worlds to generate (default: 1)"},
		{"  --param <name>", "Worldgen parameter set (default: MEDIUM REGION)"},
		{"  --seed <value|RANDOM>", "Worldgen seed (default: RANDOM)"},
		{"  --max-attempts <count>", "Crash-retry budget per cycle (default: 100)"},
		{"  --pause <seconds>", "Pause after the batch; <0 waits for a keypress"},
		{"", ""},
		{"Post-processing", ""},
		{"  --no-convert", "Keep map bitmaps; skip image conversion"},
		{"  --no-composite", "Skip the composite map image"},
		{"  --no-backup", "Skip the per-run archive"},
		{"  --image-format <ext>", "Converted image extension (default: png)"},
		{"  --blend <percent>", "Composite blend percentage (default: 30)"},
		{"", ""},
		{"Paths & tools", ""},
		{"  -g, --game-dir <dir>", "Directory the generator runs in"},
		{"  --slot <name>", "Sentinel save slot (default: region1)"},
		{"  --generator <bin>", "Generator binary (default: df)"},
		{"  --convert-tool <bin>", "Image conversion tool (default: convert)"},
		{"  --composite-tool <bin>", "Image composition tool (default: composite)"},
		{"  --archive-tool <bin>", "Archive tool (default: zip)"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  -C, --config <path>", "Config file (default: worldforge.yaml)"},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -d, --dry-run", "Preview only; do not generate or move files"},
		{"  -c, --check", "System diagnostics (generator, tools)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// dirValue is a flag.Value that normalizes trailing slashes on assignment.
type dirValue struct{ p *string }

func (d *dirValue) String() string {
	if d.p == nil {
		return ""
	}
	return *d.p
}

func (d *dirValue) Set(s string) error {
	*d.p = NormalizeDirArg(s)
	return nil
}
