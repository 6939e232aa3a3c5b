// Package config handles compiler configuration loading and management.
package config

import (
	"path/filepath"
	"strings"

	"github.com/Faultbox/dmap/internal/dmap"
	"github.com/Faultbox/dmap/pkg/formats"
)

// Config holds all compiler settings.
type Config struct {
	Compile dmap.Options  `yaml:"compile" toml:"compile"`
	Output  OutputConfig  `yaml:"output" toml:"output"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// OutputConfig holds output file settings.
type OutputConfig struct {
	Path string `yaml:"path" toml:"path"` // Explicit .proc path, overrides Dir
	Dir  string `yaml:"dir" toml:"dir"`   // Output directory; empty writes next to the scene
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Compile: dmap.DefaultOptions(),
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ProcPath returns the .proc file written for the scene at scenePath.
func (o OutputConfig) ProcPath(scenePath string) string {
	if o.Path != "" {
		return o.Path
	}
	base := strings.TrimSuffix(scenePath, filepath.Ext(scenePath)) + formats.ProcExt
	if o.Dir != "" {
		return filepath.Join(o.Dir, filepath.Base(base))
	}
	return base
}

// LinPath returns the leak file written next to the .proc file.
func (o OutputConfig) LinPath(scenePath string) string {
	proc := o.ProcPath(scenePath)
	return strings.TrimSuffix(proc, filepath.Ext(proc)) + formats.LinExt
}
