package zarrutil

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/voxelio/zarrutil/store"
)

// StorageConfig is the [storage] section of a config file. Fields map
// onto store.Options.
type StorageConfig struct {
	Anonymous         bool    `toml:"anonymous"`
	Region            string  `toml:"region"`
	Endpoint          string  `toml:"endpoint"`
	AccessKey         string  `toml:"access_key"`
	SecretKey         string  `toml:"secret_key"`
	Insecure          bool    `toml:"insecure"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// FileConfig is a TOML configuration file for client defaults:
//
//	log_level = "info"
//	default_units = "nm"
//
//	[storage]
//	anonymous = true
//	region = "us-west-2"
//	requests_per_second = 50.0
type FileConfig struct {
	LogLevel     string        `toml:"log_level"`
	DefaultUnits string        `toml:"default_units"`
	Storage      StorageConfig `toml:"storage"`
}

// LoadConfig reads a TOML config file.
func LoadConfig(path string) (*FileConfig, error) {
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return &cfg, nil
}

// Options renders the file configuration as client options.
func (c *FileConfig) Options() ([]Option, error) {
	opts := []Option{
		WithStoreOptions(store.Options{
			Anonymous:         c.Storage.Anonymous,
			Region:            c.Storage.Region,
			Endpoint:          c.Storage.Endpoint,
			AccessKey:         c.Storage.AccessKey,
			SecretKey:         c.Storage.SecretKey,
			Insecure:          c.Storage.Insecure,
			Timeout:           time.Duration(c.Storage.TimeoutSeconds) * time.Second,
			RequestsPerSecond: c.Storage.RequestsPerSecond,
		}),
	}
	if c.DefaultUnits != "" {
		opts = append(opts, WithDefaultUnits(c.DefaultUnits))
	}
	if c.LogLevel != "" {
		level, err := parseLogLevel(c.LogLevel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithLogLevel(level))
	}
	return opts, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
