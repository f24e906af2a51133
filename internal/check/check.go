// Package check provides system diagnostics (--check mode) and pre-batch
// dependency validation for the generator and the post-processing tools.
package check

import (
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/stonefall/worldforge/internal/config"
)

// Sentinel errors returned by CheckDeps when a required tool is missing.
var (
	ErrGeneratorNotFound = errors.New("generator binary not found")
	ErrConvertNotFound   = errors.New("image conversion tool not found on PATH")
	ErrCompositeNotFound = errors.New("image composition tool not found on PATH")
	ErrArchiverNotFound  = errors.New("archive tool not found on PATH")
	ErrNoSaveRoot        = errors.New("save directory does not exist")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// RunCheck runs the interactive --check flow: prints availability of the
// generator, the save directory, and each post-processing tool. Informational
// only; it reports all findings instead of stopping at the first failure,
// and returns false when anything required is missing.
func RunCheck(cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")

	ok := checkGenerator(cfg, log)
	ok = checkSaveRoot(cfg, log) && ok
	ok = checkTool(log, "convert tool", cfg.ConvertBin, cfg.ConvertEnabled) && ok
	ok = checkTool(log, "composite tool", cfg.CompositeBin, cfg.CompositeEnabled) && ok
	ok = checkTool(log, "archive tool", cfg.ArchiveBin, cfg.BackupEnabled) && ok
	return ok
}

func checkGenerator(cfg *config.Config, log Logger) bool {
	path, err := lookup(cfg.GeneratorPath())
	if err != nil {
		log.Error("generator: %s not found", cfg.GeneratorBin)
		return false
	}
	log.Success("generator: %s", path)
	return true
}

func checkSaveRoot(cfg *config.Config, log Logger) bool {
	root := cfg.SaveRoot()
	fi, err := os.Stat(root)
	if err != nil || !fi.IsDir() {
		log.Error("save root: %s missing", root)
		return false
	}
	log.Success("save root: %s", root)
	return true
}

func checkTool(log Logger, label, bin string, enabled bool) bool {
	path, err := lookup(bin)
	if err != nil {
		if enabled {
			log.Error("%s: %s not found", label, bin)
			return false
		}
		log.Warn("%s: %s not found (step disabled)", label, bin)
		return true
	}
	log.Success("%s: %s", label, path)
	return true
}

// CheckDeps is the pre-batch validation: the generator must be runnable and
// each enabled post-processing step's tool must be on PATH. Returns a
// sentinel error on the first failure.
func CheckDeps(cfg *config.Config) error {
	if _, err := lookup(cfg.GeneratorPath()); err != nil {
		return ErrGeneratorNotFound
	}
	if fi, err := os.Stat(cfg.SaveRoot()); err != nil || !fi.IsDir() {
		return ErrNoSaveRoot
	}
	if cfg.ConvertEnabled {
		if _, err := exec.LookPath(cfg.ConvertBin); err != nil {
			return ErrConvertNotFound
		}
	}
	if cfg.CompositeEnabled {
		if _, err := exec.LookPath(cfg.CompositeBin); err != nil {
			return ErrCompositeNotFound
		}
	}
	if cfg.BackupEnabled {
		if _, err := exec.LookPath(cfg.ArchiveBin); err != nil {
			return ErrArchiverNotFound
		}
	}
	return nil
}

// lookup resolves a tool reference: paths are checked for an executable file
// directly, bare names via PATH.
func lookup(ref string) (string, error) {
	if strings.ContainsRune(ref, os.PathSeparator) {
		fi, err := os.Stat(ref)
		if err != nil {
			return "", err
		}
		if fi.IsDir() || fi.Mode()&0o111 == 0 {
			return "", errors.New("not an executable file")
		}
		return ref, nil
	}
	return exec.LookPath(ref)
}
