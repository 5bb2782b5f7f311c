// Package config holds the settings of the slabpool demo.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const envPrefix = "SLABPOOL"

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	// SlabSize is the number of elements per slab of the demo pools.
	SlabSize int `toml:"slab_size" envconfig:"SLAB_SIZE"`
	// Count is how many factorials the demo computes.
	Count int `toml:"count" envconfig:"COUNT"`
	// Provider selects the bulk provider: "heap" or "mmap".
	Provider string `toml:"provider" envconfig:"PROVIDER"`
	// Listen, when set, serves /stats and /metrics on this address.
	Listen   string `toml:"listen" envconfig:"LISTEN"`
	LogLevel string `toml:"log_level" envconfig:"LOG_LEVEL"`
	JSON     bool   `toml:"json" envconfig:"JSON"`
}

var Default = Config{
	SlabSize: 10,
	Count:    10,
	Provider: "heap",
	LogLevel: "info",
}

// Load fills conf with the defaults, then the TOML file at path (if any),
// then SLABPOOL_* environment variables. It does not validate: command line
// flags may still override what it loads, so call Validate afterwards.
func Load(path string, conf *Config) error {
	*conf = Default
	if path != "" {
		if _, err := toml.DecodeFile(path, conf); err != nil {
			return errors.Wrapf(err, "config: %s", path)
		}
	}
	if err := envconfig.Process(envPrefix, conf); err != nil {
		return errors.Wrap(err, "config: environment")
	}
	return nil
}

func (c *Config) Validate() error {
	if c.SlabSize < 1 {
		return errors.Wrapf(ErrInvalid, "slab_size %d", c.SlabSize)
	}
	if c.Count < 0 || c.Count > 20 {
		return errors.Wrapf(ErrInvalid, "count %d is outside [0, 20]", c.Count)
	}
	switch c.Provider {
	case "heap", "mmap":
	default:
		return errors.Wrapf(ErrInvalid, "provider %q", c.Provider)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(ErrInvalid, "log_level %q", c.LogLevel)
	}
	return nil
}
