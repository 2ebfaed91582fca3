package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file (.yaml or .toml)")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile     = flag.String("log-file", "", "Also write logs to this file")
	flagRoot        = flag.String("root", "", "Base directory for model and material files")
	flagAddr        = flag.String("addr", "", "Listen address for the model viewer")
	flagWatch       = flag.Bool("watch", false, "Reload files that change on disk")
	flagFallbackMTL = flag.Bool("fallback-mtl", false, "Try <model>.mtl when an mtllib is missing")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after flag parsing.
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
	if *flagRoot != "" {
		cfg.Import.Root = *flagRoot
	}
	if *flagAddr != "" {
		cfg.Server.Addr = *flagAddr
	}
	if *flagWatch {
		cfg.Import.Watch = true
	}
	if *flagFallbackMTL {
		cfg.Import.MaterialFallback = true
	}
}
