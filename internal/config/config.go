// Package config handles objtool configuration loading and management.
package config

import (
	"time"

	"github.com/pkg/errors"
)

// Config holds all objtool settings.
type Config struct {
	Import  ImportConfig  `yaml:"import" toml:"import"`
	Export  ExportConfig  `yaml:"export" toml:"export"`
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ImportConfig holds settings for reading OBJ and MTL files.
type ImportConfig struct {
	Root             string `yaml:"root" toml:"root"`                           // Base directory for model and material files
	MaterialFallback bool   `yaml:"material_fallback" toml:"material_fallback"` // Try <model>.mtl when an mtllib is missing
	PointCloud       bool   `yaml:"point_cloud" toml:"point_cloud"`             // Face-less files become a point mesh
	Watch            bool   `yaml:"watch" toml:"watch"`                         // Drop cached files when they change
}

// ExportConfig holds glTF export settings.
type ExportConfig struct {
	Binary bool `yaml:"binary" toml:"binary"` // GLB instead of .gltf JSON
}

// ServerConfig holds the model viewer HTTP settings.
type ServerConfig struct {
	Addr         string   `yaml:"addr" toml:"addr"`
	ReadTimeout  Duration `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout" toml:"write_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
	JSON    bool   `yaml:"json" toml:"json"`
}

// Duration is a time.Duration written as a string such as "5s" in both
// YAML and TOML.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", text)
	}
	d.Duration = v
	return nil
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			Root:             ".",
			MaterialFallback: false,
			PointCloud:       true,
			Watch:            false,
		},
		Export: ExportConfig{
			Binary: true,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8080",
			ReadTimeout:  Duration{10 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("unknown log level %q", c.Logging.Level)
	}
	if c.Import.Root == "" {
		return errors.New("import root is empty")
	}
	if c.Server.ReadTimeout.Duration < 0 || c.Server.WriteTimeout.Duration < 0 {
		return errors.New("server timeouts must not be negative")
	}
	return nil
}
