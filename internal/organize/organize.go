// Package organize commits one generation's slot artifacts into a uniquely
// named run directory with an "info" subdirectory of canonically named files.
package organize

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNameRace signals that the resolved run name was taken between name
// resolution and commit. The slot artifacts have been discarded; the caller
// should regenerate without counting the cycle or raising a batch error.
var ErrNameRace = errors.New("run name taken since resolution, slot discarded")

// InfoDirName is the subdirectory holding the reorganized artifact files.
const InfoDirName = "info"

// Artifact maps one generator output file to its canonical name in the run's
// info directory. The slot file name is "<slot><Suffix>".
type Artifact struct {
	Role      string // Human-readable role, used in error messages.
	Suffix    string // Slot file suffix, e.g. "-world_map.bmp".
	Canonical string // Final file name inside info/.
}

// Artifacts is the fixed set of files one successful generation produces.
// The set is enumerated explicitly rather than globbed so an absent artifact
// fails loudly instead of being silently skipped.
var Artifacts = []Artifact{
	{Role: "biome map", Suffix: "-world_map.bmp", Canonical: "Biome Map.bmp"},
	{Role: "height map", Suffix: "-detailed.bmp", Canonical: "Height Map.bmp"},
	{Role: "world history", Suffix: "-world_history.txt", Canonical: "World History.txt"},
	{Role: "sites and populations", Suffix: "-world_sites_and_pops.txt", Canonical: "Sites and Populations.txt"},
	{Role: "worldgen parameters", Suffix: "-world_gen_param.txt", Canonical: "World Gen Parameters.txt"},
}

// HistoryPath returns the slot-relative path of the history log, the artifact
// the world name is derived from.
func HistoryPath(saveRoot, slot string) string {
	return filepath.Join(saveRoot, slot+"-world_history.txt")
}

// SlotOccupied reports whether the sentinel slot holds an artifact set: the
// slot directory itself or any known slot-prefixed artifact file. Unknown
// leftover files with the slot prefix are ignored; they never belong to the
// artifact set and must not block a batch.
func SlotOccupied(saveRoot, slot string) bool {
	if exists(filepath.Join(saveRoot, slot)) {
		return true
	}
	for _, a := range Artifacts {
		if exists(filepath.Join(saveRoot, slot+a.Suffix)) {
			return true
		}
	}
	return false
}

// Commit atomically claims name for the current slot artifacts:
//
//  1. If a run directory called name appeared since resolution, the slot is
//     discarded and ErrNameRace returned.
//  2. Otherwise the slot directory is renamed to name (the rename is the
//     claim), an info subdirectory is created, and each known artifact file
//     is moved there under its canonical name.
//
// Any I/O failure after the claim is returned as-is; partial relocation is
// not rolled back and the caller should abort the batch.
func Commit(saveRoot, slot, name string) error {
	runDir := filepath.Join(saveRoot, name)
	if exists(runDir) {
		if err := DiscardSlot(saveRoot, slot); err != nil {
			return err
		}
		return ErrNameRace
	}

	slotDir := filepath.Join(saveRoot, slot)
	if !exists(slotDir) {
		return fmt.Errorf("slot directory %s missing", slotDir)
	}
	if err := os.Rename(slotDir, runDir); err != nil {
		return fmt.Errorf("claim run directory: %w", err)
	}

	infoDir := filepath.Join(runDir, InfoDirName)
	if err := os.Mkdir(infoDir, 0o755); err != nil {
		return fmt.Errorf("create info directory: %w", err)
	}

	for _, a := range Artifacts {
		src := filepath.Join(saveRoot, slot+a.Suffix)
		if !exists(src) {
			return fmt.Errorf("expected %s artifact missing: %s", a.Role, src)
		}
		dst := filepath.Join(infoDir, a.Canonical)
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("move %s artifact: %w", a.Role, err)
		}
	}
	return nil
}

// DiscardSlot deletes the slot directory and all known slot artifact files,
// freeing the sentinel slot for the next generation.
func DiscardSlot(saveRoot, slot string) error {
	if err := os.RemoveAll(filepath.Join(saveRoot, slot)); err != nil {
		return fmt.Errorf("discard slot directory: %w", err)
	}
	for _, a := range Artifacts {
		path := filepath.Join(saveRoot, slot+a.Suffix)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("discard slot artifact: %w", err)
		}
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
