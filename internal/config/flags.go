package config

import (
	"flag"
	"time"
)

var (
	flagConfig       = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug        = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile      = flag.String("log-file", "", "Write logs to this file as well")
	flagRings        = flag.Int("rings", 0, "Rings per segment (2-32)")
	flagInterval     = flag.Duration("interval", 0, "Minimum time between change polls (100ms-5s)")
	flagShape        = flag.String("shape", "", "Shape builtin name or file path")
	flagAllChanges   = flag.Bool("all-changes", false, "Patch every edited control point per poll")
	flagSingleChange = flag.Bool("single-change", false, "Patch one edited control point per poll")
	flagNoWatch      = flag.Bool("no-watch", false, "Disable shape file watching")
)

// ParseFlags parses command-line flags. Call this early in main().
// Parsing stops at the first non-flag argument, which is the subcommand.
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after the global flags.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagRings > 0 {
		cfg.Extrude.RingCount = *flagRings
	}
	if *flagInterval > 0 {
		cfg.Extrude.ModifyInterval = Duration(*flagInterval)
	}
	if *flagShape != "" {
		cfg.Extrude.Shape = *flagShape
	}
	if *flagAllChanges {
		cfg.Extrude.SingleChangePerTick = false
	}
	if *flagSingleChange {
		cfg.Extrude.SingleChangePerTick = true
	}
	if *flagNoWatch {
		cfg.Assets.Watch = false
	}
}

// resetFlags restores every flag to its zero value.
func resetFlags() {
	*flagConfig = ""
	*flagDebug = false
	*flagLogFile = ""
	*flagRings = 0
	*flagInterval = time.Duration(0)
	*flagShape = ""
	*flagAllChanges = false
	*flagSingleChange = false
	*flagNoWatch = false
}
