// Package config loads the settings of a relmap run from the environment,
// an optional .env file and an optional YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"relmap/internal/dict"
	"relmap/internal/logger"
	"relmap/internal/meta"
	"relmap/internal/plan"
)

// Environment variables read by Load.
const (
	EnvDialect       = "RELMAP_DIALECT"
	EnvDSN           = "RELMAP_DSN"
	EnvMode          = "RELMAP_MODE"
	EnvPreset        = "RELMAP_PRESET"
	EnvDefaultSchema = "RELMAP_SCHEMA"
	EnvStrict        = "RELMAP_STRICT"
	EnvDirectives    = "RELMAP_DIRECTIVES"
	EnvLogLevel      = "RELMAP_LOG_LEVEL"
	EnvLogFile       = "RELMAP_LOG_FILE"
)

// Config holds all settings of a run. Later sources override earlier
// ones: defaults, then the environment, then the YAML file, then flags.
type Config struct {
	Dialect       string `yaml:"dialect"`
	DSN           string `yaml:"dsn"`
	Mode          string `yaml:"mode"`
	Preset        string `yaml:"preset"`
	DefaultSchema string `yaml:"schema"`
	Strict        bool   `yaml:"strict"`
	// Directives is the path of a mapping directive file.
	Directives string `yaml:"directives"`
	// Packages are the Go package patterns holding the entities.
	Packages []string `yaml:"packages"`
	LogLevel string   `yaml:"log-level"`
	LogFile  string   `yaml:"log-file"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Dialect:  "generic",
		Mode:     meta.Adapt.String(),
		Preset:   meta.PresetNative,
		LogLevel: "info",
	}
}

// Load builds a configuration. envFile names a .env file to load into
// the environment; when empty, a .env in the working directory is used if
// present. Variables already set in the environment win over the file.
// yamlFile, when not empty, is decoded over the result.
func Load(envFile, yamlFile string) (*Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if yamlFile != "" {
		if err := cfg.applyYAMLFile(yamlFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("loading env file %s: %w", path, err)
		}

		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		EnvDialect:       &c.Dialect,
		EnvDSN:           &c.DSN,
		EnvMode:          &c.Mode,
		EnvPreset:        &c.Preset,
		EnvDefaultSchema: &c.DefaultSchema,
		EnvDirectives:    &c.Directives,
		EnvLogLevel:      &c.LogLevel,
		EnvLogFile:       &c.LogFile,
	}

	for name, dst := range strs {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvStrict); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStrict, err)
		}

		c.Strict = b
	}

	return nil
}

func (c *Config) applyYAMLFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	if err := c.applyYAML(data); err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}

	return nil
}

// applyYAML decodes data over c. Unknown keys are errors.
func (c *Config) applyYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := dict.New(c.Dialect); err != nil {
		errs = append(errs, fmt.Errorf("dialect: %w", err))
	}

	if _, ok := meta.ParseMode(c.Mode); !ok {
		errs = append(errs, fmt.Errorf("mode: %q is not one of strict, fill, adapt", c.Mode))
	}

	if _, ok := meta.DefaultsFor(c.Preset); !ok {
		errs = append(errs, fmt.Errorf("preset: %q is not one of %s, %s", c.Preset, meta.PresetNative, meta.PresetJPA))
	}

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}

	for _, p := range c.Packages {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, errors.New("packages: empty package pattern"))
			break
		}
	}

	return errors.Join(errs...)
}

// RequireDSN reports an error when no database is configured.
func (c *Config) RequireDSN() error {
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("no database configured: set %s or dsn in the config file", EnvDSN)
	}

	return nil
}

// Resolution returns the resolution settings. The configuration must be
// valid.
func (c *Config) Resolution() plan.ResolutionConfig {
	mode, _ := meta.ParseMode(c.Mode)

	return plan.ResolutionConfig{
		Mode:          mode,
		StrictMode:    c.Strict,
		Dialect:       c.Dialect,
		Preset:        c.Preset,
		DefaultSchema: c.DefaultSchema,
	}
}

// Logger builds the logger described by the configuration. The caller
// closes it.
func (c *Config) Logger() (*logger.Logger, error) {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	if c.LogFile == "" {
		return logger.New(os.Stderr, level), nil
	}

	return logger.NewFile(c.LogFile, level)
}
