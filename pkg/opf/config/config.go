package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/openpatterns/opf/internal/logging"
	"github.com/openpatterns/opf/pkg/opf/internalerr"
)

// Config is the application configuration
type Config struct {
	Log     logging.Config `yaml:"log"`
	Output  Output         `yaml:"output"`
	Archive Archive        `yaml:"archive"`
	Batch   Batch          `yaml:"batch"`
	Metrics Metrics        `yaml:"metrics"`
}

// Output controls how pattern JSON is written
type Output struct {
	Pretty bool `yaml:"pretty"`
}

// Archive locates the pattern archive database. Empty disables archiving.
type Archive struct {
	Path string `yaml:"path"`
}

// Batch configures parsing of whole directories
type Batch struct {
	Workers int    `yaml:"workers"`
	Pattern string `yaml:"pattern"`
}

// Metrics configures the Prometheus textfile export. Empty disables it.
type Metrics struct {
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Log:    logging.DefaultConfig(),
		Output: Output{Pretty: true},
		Batch:  Batch{Workers: 4, Pattern: "*.json"},
	}
}

// Load reads configuration from a YAML file. Fields missing from the file
// keep their defaults; an empty path returns Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", internalerr.ErrInvalidConfig, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no command can work with
func (c *Config) Validate() error {
	if c.Batch.Workers < 1 {
		return fmt.Errorf("%w: batch.workers must be positive, got %d", internalerr.ErrInvalidConfig, c.Batch.Workers)
	}
	if c.Batch.Pattern == "" {
		return fmt.Errorf("%w: batch.pattern is empty", internalerr.ErrInvalidConfig)
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: log.format must be json or console, got %q", internalerr.ErrInvalidConfig, c.Log.Format)
	}
	return nil
}
