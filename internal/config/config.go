// Package config loads morphnet settings from morphnet.yaml, the environment
// and command-line overrides, and validates them.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "morphnet.yaml"

// Environment variables that override file settings.
const (
	EnvDataDir  = "MORPHNET_DATA_DIR"
	EnvSeed     = "MORPHNET_SEED"
	EnvLogLevel = "MORPHNET_LOG_LEVEL"
	EnvWorkers  = "MORPHNET_WORKERS"
)

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all morphnet configuration.
type Config struct {
	// DataDir is the root of the data layout (raw, processed, results).
	DataDir string `yaml:"data_dir" validate:"required"`

	Resolution ResolutionConfig `yaml:"resolution"`

	// Seed drives the simulators and the clusterer.
	Seed int64 `yaml:"seed"`

	// Workers bounds concurrent resolutions; 0 uses every CPU.
	Workers int `yaml:"workers" validate:"gte=0"`

	// DataTypes selects original, typefreq_shuffled, allshuffled or all.
	DataTypes string `yaml:"data_types" validate:"oneof=all original typefreq_shuffled allshuffled"`

	Louvain LouvainConfig `yaml:"louvain"`

	Log LogConfig `yaml:"log"`
}

// ResolutionConfig bounds the resolution sweep.
type ResolutionConfig struct {
	Min  float64 `yaml:"min" validate:"gte=0"`
	Max  float64 `yaml:"max" validate:"gtefield=Min"`
	Step float64 `yaml:"step" validate:"gt=0"`
}

// LouvainConfig tunes the clusterer.
type LouvainConfig struct {
	// MaxLevels caps aggregation levels; 0 means no cap.
	MaxLevels int `yaml:"max_levels" validate:"gte=0"`

	// Threshold is the minimum modularity gain per level; 0 uses the default.
	Threshold float64 `yaml:"threshold" validate:"gte=0"`
}

// LogConfig selects logger verbosity and encoding.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `yaml:"json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir: "data",
		Resolution: ResolutionConfig{
			Min:  0.0,
			Max:  2.0,
			Step: 0.1,
		},
		Seed:      42,
		DataTypes: "all",
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds a configuration from defaults, the YAML file at path and the
// environment. An empty path reads DefaultFileName when it exists.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays MORPHNET_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvSeed, v, err)
		}
		c.Seed = seed
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvWorkers, v, err)
		}
		c.Workers = workers
	}
	return nil
}

var validate = newValidator()

// newValidator reports fields by their YAML names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, formatFieldError(e))
	}
	return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), ErrInvalidConfig)
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Namespace())
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be below %s", field, strings.ToLower(e.Param()))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
