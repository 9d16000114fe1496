package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagOutput   = flag.String("output", "", "Output directory for LOD levels")
	flagRatios   = flag.String("ratios", "", "Comma-separated LOD ratios, e.g. 0.5,0.25")
	flagTextures = flag.Bool("textures", false, "Downsample textures per LOD ratio")
	flagAtlas    = flag.Bool("atlas", false, "Bake per-role texture atlases into each LOD")
	flagLogFile  = flag.String("log-file", "", "Write logs to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) error {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagOutput != "" {
		cfg.Output.Dir = *flagOutput
	}
	if *flagRatios != "" {
		ratios, err := ParseRatios(*flagRatios)
		if err != nil {
			return err
		}
		cfg.Output.Ratios = ratios
	}
	if *flagTextures {
		cfg.Textures.Resize = true
	}
	if *flagAtlas {
		cfg.Textures.Atlas = true
	}
	return nil
}
