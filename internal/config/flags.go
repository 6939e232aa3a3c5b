package config

import "flag"

var (
	flagConfig       = new(string)
	flagDebug        = new(bool)
	flagOutput       = new(string)
	flagNoOptimize   = new(bool)
	flagNoTJunctions = new(bool)
	flagNoFlood      = new(bool)
	flagNoShadows    = new(bool)
	flagNoLightCarve = new(bool)
	flagBlockSize    = unsetFloat()
	flagLogFile      = new(string)
)

// unsetFloat returns a flag value below every valid setting.
func unsetFloat() *float64 {
	v := -1.0
	return &v
}

// RegisterFlags binds the compile flags to fs. Call it before fs.Parse.
func RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(flagConfig, "config", "", "Path to config file (.yaml or .toml)")
	fs.BoolVar(flagDebug, "debug", false, "Enable debug logging")
	fs.StringVar(flagOutput, "o", "", "Output .proc path")
	fs.BoolVar(flagNoOptimize, "noopt", false, "Skip the surface optimizer")
	fs.BoolVar(flagNoTJunctions, "notjunc", false, "Skip the global T-junction fix")
	fs.BoolVar(flagNoFlood, "noflood", false, "Skip the outside flood and leak check")
	fs.BoolVar(flagNoShadows, "noshadows", false, "Skip prelight shadow volumes")
	fs.BoolVar(flagNoLightCarve, "nolightcarve", false, "Do not split groups by light")
	fs.Float64Var(flagBlockSize, "blocksize", -1, "Forced axial split size, 0 disables")
	fs.StringVar(flagLogFile, "logfile", "", "Write logs to this file")
}

// ConfigPath returns the explicit config path if provided via -config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagOutput != "" {
		cfg.Output.Path = *flagOutput
	}
	if *flagNoOptimize {
		cfg.Compile.NoOptimize = true
	}
	if *flagNoTJunctions {
		cfg.Compile.NoTJunctions = true
	}
	if *flagNoFlood {
		cfg.Compile.NoFlood = true
	}
	if *flagNoShadows {
		cfg.Compile.NoShadows = true
	}
	if *flagNoLightCarve {
		cfg.Compile.NoLightCarve = true
	}
	if *flagBlockSize >= 0 {
		cfg.Compile.BlockSize = *flagBlockSize
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
