package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/gsd-sim/gsd-go/gsd/fl"
	"github.com/gsd-sim/gsd-go/gsd/hoomd"
	"gopkg.in/yaml.v3"
)

// Config represents the CLI config file.
// Every key must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Application string `yaml:"application"` // application string written into new files
	Codec       string `yaml:"codec"`       // none, snappy or zstd
	CacheSize   int    `yaml:"cache_size"`  // decoded chunks kept in memory; 0 disables
	Sync        bool   `yaml:"sync"`        // fsync after every frame
	Fallback    string `yaml:"fallback"`    // history or initial
	LogLevel    string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Application: fl.DefaultApplication,
		Codec:       fl.CodecNone.String(),
		CacheSize:   fl.DefaultCacheSize,
		Fallback:    hoomd.FallbackHistory.String(),
	}
}

// loadConfig parses a config file over the defaults with strict field checking.
func loadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the file layer cannot use.
func (c Config) Validate() error {
	if _, err := fl.ParseCodec(c.Codec); err != nil {
		return err
	}
	if _, err := hoomd.ParseFallback(c.Fallback); err != nil {
		return err
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize)
	}
	return nil
}

// fileOptions converts the config into fl options. The config is validated on load.
func (c Config) fileOptions() []fl.Option {
	codec, _ := fl.ParseCodec(c.Codec)
	return []fl.Option{
		fl.WithApplication(c.Application),
		fl.WithCodec(codec),
		fl.WithCacheSize(c.CacheSize),
		fl.WithSync(c.Sync),
	}
}

func (c Config) trajectoryOptions() []hoomd.Option {
	policy, _ := hoomd.ParseFallback(c.Fallback)
	return []hoomd.Option{hoomd.WithFallback(policy), hoomd.WithFileOptions(c.fileOptions()...)}
}

// openTrajectory opens path with the options of the running command's config.
func openTrajectory(path string, mode fl.Mode) (*hoomd.Trajectory, error) {
	return hoomd.Open(path, mode, cfg.trajectoryOptions()...)
}
