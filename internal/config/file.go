package config

// This file implements the optional YAML config file (worldforge.yaml).
// All fields are pointers so absent keys leave Config defaults untouched;
// CLI flags are applied afterwards and win over file values.

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked for in the working directory when --config is not given.
const DefaultFileName = "worldforge.yaml"

// fileConfig models the YAML config file.
type fileConfig struct {
	Cycles           *int    `yaml:"cycles"`
	PauseSeconds     *int    `yaml:"pauseSeconds"`
	ParamSet         *string `yaml:"paramSetName"`
	Seed             *string `yaml:"seed"`
	ConvertEnabled   *bool   `yaml:"convertEnabled"`
	CompositeEnabled *bool   `yaml:"compositeEnabled"`
	BackupEnabled    *bool   `yaml:"backupEnabled"`

	GameDir      *string `yaml:"gameDir"`
	SaveDirName  *string `yaml:"saveDirName"`
	SlotName     *string `yaml:"slotName"`
	GeneratorBin *string `yaml:"generator"`
	ConvertBin   *string `yaml:"convertTool"`
	CompositeBin *string `yaml:"compositeTool"`
	ArchiveBin   *string `yaml:"archiveTool"`

	ConvertedExt   *string `yaml:"convertedExt"`
	BlendPercent   *int    `yaml:"blendPercent"`
	MaxGenAttempts *int    `yaml:"maxGenAttempts"`

	LogFile *string `yaml:"logFile"`
}

// LoadFile overlays cfg with values from the YAML file at path. A missing
// file is only an error when explicit is true (user passed --config); the
// default file is allowed to be absent.
func LoadFile(cfg *Config, path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}

	applyFile(cfg, &fc)
	return nil
}

func applyFile(cfg *Config, fc *fileConfig) {
	if fc.Cycles != nil {
		cfg.Cycles = *fc.Cycles
	}
	if fc.PauseSeconds != nil {
		cfg.PauseSeconds = *fc.PauseSeconds
	}
	if fc.ParamSet != nil {
		cfg.ParamSet = *fc.ParamSet
	}
	if fc.Seed != nil {
		cfg.Seed = *fc.Seed
	}
	if fc.ConvertEnabled != nil {
		cfg.ConvertEnabled = *fc.ConvertEnabled
	}
	if fc.CompositeEnabled != nil {
		cfg.CompositeEnabled = *fc.CompositeEnabled
	}
	if fc.BackupEnabled != nil {
		cfg.BackupEnabled = *fc.BackupEnabled
	}
	if fc.GameDir != nil {
		cfg.GameDir = NormalizeDirArg(*fc.GameDir)
	}
	if fc.SaveDirName != nil {
		cfg.SaveDirName = *fc.SaveDirName
	}
	if fc.SlotName != nil {
		cfg.SlotName = *fc.SlotName
	}
	if fc.GeneratorBin != nil {
		cfg.GeneratorBin = *fc.GeneratorBin
	}
	if fc.ConvertBin != nil {
		cfg.ConvertBin = *fc.ConvertBin
	}
	if fc.CompositeBin != nil {
		cfg.CompositeBin = *fc.CompositeBin
	}
	if fc.ArchiveBin != nil {
		cfg.ArchiveBin = *fc.ArchiveBin
	}
	if fc.ConvertedExt != nil {
		cfg.ConvertedExt = *fc.ConvertedExt
	}
	if fc.BlendPercent != nil {
		cfg.BlendPercent = *fc.BlendPercent
	}
	if fc.MaxGenAttempts != nil {
		cfg.MaxGenAttempts = *fc.MaxGenAttempts
	}
	if fc.LogFile != nil {
		cfg.LogFile = *fc.LogFile
	}
}
