package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worldforge.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFileOverlay(t *testing.T) {
	path := writeFile(t, `
cycles: 3
pauseSeconds: -1
seed: "77"
backupEnabled: false
gameDir: /games/df/
slotName: region4
archiveTool: 7z
blendPercent: 50
maxGenAttempts: 10
`)
	cfg := Default()
	if err := LoadFile(&cfg, path, true); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Cycles != 3 || cfg.PauseSeconds != -1 || cfg.Seed != "77" {
		t.Errorf("batch fields not applied: %+v", cfg)
	}
	if cfg.BackupEnabled {
		t.Error("BackupEnabled should be false")
	}
	if cfg.GameDir != "/games/df" {
		t.Errorf("GameDir = %q, want trailing slash stripped", cfg.GameDir)
	}
	if cfg.SlotName != "region4" || cfg.ArchiveBin != "7z" {
		t.Errorf("tool fields not applied: slot=%q archive=%q", cfg.SlotName, cfg.ArchiveBin)
	}
	if cfg.BlendPercent != 50 || cfg.MaxGenAttempts != 10 {
		t.Errorf("numeric fields not applied: blend=%d attempts=%d", cfg.BlendPercent, cfg.MaxGenAttempts)
	}
	// Untouched fields keep defaults.
	if cfg.ParamSet != Default().ParamSet || !cfg.ConvertEnabled {
		t.Error("absent keys should keep defaults")
	}
}

func TestLoadFileMalformed(t *testing.T) {
	path := writeFile(t, "cycles: [not an int\n")
	cfg := Default()
	if err := LoadFile(&cfg, path, true); err == nil {
		t.Error("LoadFile should fail on malformed YAML")
	}
}

func TestLoadFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	cfg := Default()
	if err := LoadFile(&cfg, missing, false); err != nil {
		t.Errorf("implicit missing file should not error: %v", err)
	}
	if err := LoadFile(&cfg, missing, true); err == nil {
		t.Error("explicit missing file should error")
	}
}
