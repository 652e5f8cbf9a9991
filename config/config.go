// The package config loads the optional defaults file that seeds the
// command-line flags. Flags always win over file values; the file only
// exists so that repeated invocations against the same device do not have
// to repeat the full flag set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hwprobe/serialfwd/port"
	"github.com/hwprobe/serialfwd/translog"
)

// DefaultPath is where Load looks when no explicit path is given.
const DefaultPath = "serialfwd.yaml"

// Config holds the file-provided defaults for one invocation.
type Config struct {
	Port           string  `yaml:"port"`
	BaudRate       int     `yaml:"baudrate"`
	DataBits       int     `yaml:"databits"`
	Parity         string  `yaml:"parity"`
	StopBits       int     `yaml:"stopbits"`
	ReceiveTimeout float64 `yaml:"receive_timeout"`
	WaitTime       float64 `yaml:"wait_time"`
	OutputFormat   string  `yaml:"output_format"`
	LogFile        string  `yaml:"log_file"`
}

// Default returns the built-in defaults used when no file is present.
func Default() Config {
	return Config{
		BaudRate:       115200,
		DataBits:       8,
		Parity:         "none",
		StopBits:       1,
		ReceiveTimeout: 1.0,
		WaitTime:       0.1,
		OutputFormat:   "text",
		LogFile:        translog.DefaultPath,
	}
}

// Load reads the defaults file at path. When path is empty, DefaultPath is
// tried and its absence is not an error; an explicitly given path must
// exist. The result is normalized and validated.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return Default(), nil
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Config{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	Normalize(&cfg)
	if err := Validate(&cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Normalize fills in the built-in defaults for all zero-valued fields. It
// never overrides a value the file provided.
func Normalize(cfg *Config) {
	defaults := Default()
	if cfg.BaudRate == 0 {
		cfg.BaudRate = defaults.BaudRate
	}
	if cfg.DataBits == 0 {
		cfg.DataBits = defaults.DataBits
	}
	if cfg.Parity == "" {
		cfg.Parity = defaults.Parity
	}
	if cfg.StopBits == 0 {
		cfg.StopBits = defaults.StopBits
	}
	if cfg.ReceiveTimeout == 0 {
		cfg.ReceiveTimeout = defaults.ReceiveTimeout
	}
	if cfg.WaitTime == 0 {
		cfg.WaitTime = defaults.WaitTime
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = defaults.OutputFormat
	}
	if cfg.LogFile == "" {
		cfg.LogFile = defaults.LogFile
	}
}

// Validate checks configuration correctness. It performs declarative
// validation only and MUST NOT mutate the configuration.
func Validate(cfg *Config) error {
	if cfg.BaudRate <= 0 || cfg.BaudRate > port.MaxBaudRate {
		return fmt.Errorf("baudrate %d out of range 1..%d", cfg.BaudRate, port.MaxBaudRate)
	}
	if cfg.DataBits < 5 || cfg.DataBits > 8 {
		return fmt.Errorf("databits %d out of range 5..8", cfg.DataBits)
	}
	if _, err := port.ParseParity(cfg.Parity); err != nil {
		return err
	}
	if cfg.StopBits != 1 && cfg.StopBits != 2 {
		return fmt.Errorf("stopbits %d must be 1 or 2", cfg.StopBits)
	}
	if cfg.ReceiveTimeout < 0 {
		return fmt.Errorf("receive_timeout %g must not be negative", cfg.ReceiveTimeout)
	}
	if cfg.WaitTime < 0 {
		return fmt.Errorf("wait_time %g must not be negative", cfg.WaitTime)
	}
	switch cfg.OutputFormat {
	case "text", "hex", "json":
	default:
		return fmt.Errorf("output_format %q must be text, hex, or json", cfg.OutputFormat)
	}
	return nil
}
