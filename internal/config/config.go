// Package config loads stepgrid settings from a YAML or JSON file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/stepgrid/internal/logging"
	"github.com/aretw0/stepgrid/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "stepgrid.yaml"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full application configuration.
type Config struct {
	Grid    GridConfig    `mapstructure:"grid" yaml:"grid"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Library LibraryConfig `mapstructure:"library" yaml:"library"`
	HTTP    HTTPConfig    `mapstructure:"http" yaml:"http"`
}

// GridConfig sets up new engines.
type GridConfig struct {
	Columns   int           `mapstructure:"columns" yaml:"columns"`
	Rows      int           `mapstructure:"rows" yaml:"rows"`
	Algorithm string        `mapstructure:"algorithm" yaml:"algorithm"`
	Seed      uint64        `mapstructure:"seed" yaml:"seed"` // 0 picks a random seed
	Density   float64       `mapstructure:"density" yaml:"density"`
	Weights   bool          `mapstructure:"random_weights" yaml:"random_weights"`
	Delay     time.Duration `mapstructure:"delay" yaml:"delay"`
	MaxSteps  int           `mapstructure:"max_steps" yaml:"max_steps"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// StoreConfig selects where session templates are checkpointed.
type StoreConfig struct {
	Backend  string        `mapstructure:"backend" yaml:"backend"`
	Path     string        `mapstructure:"path" yaml:"path"`
	Address  string        `mapstructure:"address" yaml:"address"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
	LockTTL  time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
}

type LibraryConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

type HTTPConfig struct {
	Port    int  `mapstructure:"port" yaml:"port"`
	Metrics bool `mapstructure:"metrics" yaml:"metrics"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Grid: GridConfig{
			Columns:   20,
			Rows:      12,
			Algorithm: string(domain.AlgorithmBFS),
			Density:   0.25,
			MaxSteps:  10_000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			Path:    ".stepgrid/templates",
			Address: "localhost:6379",
			Prefix:  "stepgrid",
			LockTTL: 30 * time.Second,
		},
		Library: LibraryConfig{Dir: "templates"},
		HTTP:    HTTPConfig{Port: 8080, Metrics: true},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.merge(data, strings.ToLower(filepath.Ext(path)) == ".json"); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := cfg.merge(data, false); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) merge(data []byte, isJSON bool) error {
	raw := map[string]any{}
	if isJSON {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           c,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Validate reports the first field out of range.
func (c Config) Validate() error {
	if c.Grid.Columns < 1 || c.Grid.Rows < 1 || c.Grid.Columns*c.Grid.Rows < 2 {
		return fmt.Errorf("%w: grid %dx%d cannot hold START and END", ErrInvalidConfig, c.Grid.Columns, c.Grid.Rows)
	}
	if _, err := domain.ParseAlgorithm(c.Grid.Algorithm); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Grid.Density < 0 || c.Grid.Density > 1 {
		return fmt.Errorf("%w: density %v outside [0,1]", ErrInvalidConfig, c.Grid.Density)
	}
	if c.Grid.Delay < 0 || c.Grid.MaxSteps < 0 {
		return fmt.Errorf("%w: delay and max_steps must not be negative", ErrInvalidConfig)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalidConfig, c.HTTP.Port)
	}
	return nil
}

// Algorithm returns the parsed default algorithm. Call after Validate.
func (c Config) Algorithm() domain.Algorithm {
	a, _ := domain.ParseAlgorithm(c.Grid.Algorithm)
	return a
}

// Randomize returns the options used by the random command.
func (c Config) Randomize() domain.RandomizeOptions {
	return domain.RandomizeOptions{
		RelocateEndpoints: true,
		BarrierDensity:    c.Grid.Density,
		RandomWeights:     c.Grid.Weights,
	}
}
