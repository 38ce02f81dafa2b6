// Package config loads the settings of the stress harness from TOML or YAML.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Stress  StressConfig  `toml:"stress" yaml:"stress"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Profile ProfileConfig `toml:"profile" yaml:"profile"`
}

type StressConfig struct {
	Duration     time.Duration `toml:"duration" yaml:"duration"`
	Entities     int           `toml:"entities" yaml:"entities"`
	TickInterval time.Duration `toml:"tick_interval" yaml:"tick_interval"` // 0 runs frames back to back
	Churn        float64       `toml:"churn" yaml:"churn"`                 // fraction of entities killed and respawned per frame
	Seed         int64         `toml:"seed" yaml:"seed"`
}

type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`   // debug, info, warn, error
	Format string `toml:"format" yaml:"format"` // console or json
}

type ProfileConfig struct {
	Mode string `toml:"mode" yaml:"mode"` // "", cpu, mem, allocs, block, mutex, trace
	Path string `toml:"path" yaml:"path"`
}

// Load reads path on top of the defaults. The format follows the file
// extension: .yaml and .yml are YAML, anything else TOML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = toml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate rejects values the harness cannot run with.
func (c *Config) Validate() error {
	if c.Stress.Duration <= 0 {
		return errors.Errorf("stress.duration must be positive, got %s", c.Stress.Duration)
	}
	if c.Stress.Entities < 0 {
		return errors.Errorf("stress.entities must not be negative, got %d", c.Stress.Entities)
	}
	if c.Stress.TickInterval < 0 {
		return errors.Errorf("stress.tick_interval must not be negative, got %s", c.Stress.TickInterval)
	}
	if c.Stress.Churn < 0 || c.Stress.Churn > 1 {
		return errors.Errorf("stress.churn must be within [0, 1], got %g", c.Stress.Churn)
	}
	switch c.Profile.Mode {
	case "", "cpu", "mem", "allocs", "block", "mutex", "trace":
	default:
		return errors.Errorf("unknown profile.mode %q", c.Profile.Mode)
	}
	return nil
}

func Defaults() *Config {
	return &Config{
		Stress: StressConfig{
			Duration: 10 * time.Second,
			Entities: 10000,
			Churn:    0.01,
			Seed:     1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Profile: ProfileConfig{
			Path: ".",
		},
	}
}
