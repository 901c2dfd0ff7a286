// Package config loads yanglint settings from a config file, the
// environment and command-line overrides.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jacoelho/yang/internal/qname"
)

const (
	// AppName is the application name.
	AppName = "yanglint"
	// EnvPrefix prefixes environment variables read as settings.
	EnvPrefix = "YANGLINT"
	// ConfigFileName is the config file name without extension.
	ConfigFileName = "yanglint"
)

// Output formats accepted by dump.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatJSON = "json"
)

// Config holds the resolved CLI settings.
type Config struct {
	LogLevel      string   `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	Format        string   `mapstructure:"format" validate:"required,oneof=yaml toml json"`
	Features      []string `mapstructure:"features" validate:"dive,feature"`
	StrictVersion bool     `mapstructure:"strict_version"`

	// AllFeatures is set when no feature list was configured anywhere.
	AllFeatures bool `mapstructure:"-"`
	// Source is the config file that was read, if any.
	Source string `mapstructure:"-"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:      "warn",
		Format:        FormatYAML,
		StrictVersion: true,
		AllFeatures:   true,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("feature", validateFeature); err != nil {
		panic(fmt.Sprintf("register feature validation: %v", err))
	}
	return v
}

// validateFeature accepts module:feature pairs of YANG identifiers.
func validateFeature(fl validator.FieldLevel) bool {
	module, feature, ok := strings.Cut(fl.Field().String(), ":")
	return ok && qname.IsIdentifier(module) && qname.IsIdentifier(feature)
}

// Validate checks cfg against its field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: invalid value %q (%s)", fe.Namespace(), fmt.Sprint(fe.Value()), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("strict_version", defaults.StrictVersion)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("features"); err != nil {
		return nil, fmt.Errorf("bind features env: %w", err)
	}

	path, err := configFile(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if opts.LogLevel != "" {
		v.Set("log_level", opts.LogLevel)
	}
	if opts.Format != "" {
		v.Set("format", opts.Format)
	}
	if opts.FeaturesSet {
		v.Set("features", slices.Clone(opts.Features))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Format = strings.ToLower(cfg.Format)
	cfg.AllFeatures = !v.IsSet("features")
	cfg.Source = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// configFile returns the file to read, or "" when none applies.
// An explicit path must exist; the lookup directory may hold none.
func configFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", fmt.Errorf("config file not found: %s", opts.ConfigFilePath)
		}
		return opts.ConfigFilePath, nil
	}
	dir := opts.ConfigDirPath
	if dir == "" {
		dir = "."
	}
	for _, ext := range []string{"yaml", "yml", "toml", "json"} {
		candidate := filepath.Join(dir, ConfigFileName+"."+ext)
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
