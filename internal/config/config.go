// Package config handles tool configuration loading and management.
package config

// Config holds all lodgen settings.
type Config struct {
	Output   OutputConfig   `yaml:"output"`
	Textures TexturesConfig `yaml:"textures"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// OutputConfig holds LOD output settings.
type OutputConfig struct {
	Dir    string    `yaml:"dir"`    // LOD levels are written under this directory
	Ratios []float32 `yaml:"ratios"` // one LOD per ratio, each in (0, 1]
}

// TexturesConfig holds the optional texture pipeline stages.
type TexturesConfig struct {
	Resize bool `yaml:"resize"` // downsample textures per LOD ratio
	Atlas  bool `yaml:"atlas"`  // bake per-role texture atlases
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Dir:    "output",
			Ratios: []float32{0.5, 0.25},
		},
		Textures: TexturesConfig{
			Resize: false,
			Atlas:  false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
