package config

import "context"

// LoadOptions defines explicit configuration loading inputs. Non-empty
// override fields win over the config file and the environment.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// ConfigDirPath is searched for yanglint.{yaml,yml,toml,json} when no
	// file path is given. Defaults to the working directory.
	ConfigDirPath string

	LogLevel string
	Format   string
	Features []string
	// FeaturesSet marks Features as given, so an empty list disables all
	// features instead of leaving them unset.
	FeaturesSet bool
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type fileProvider struct{}

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return loadWithOptions(ctx, opts)
}

// StaticProvider returns cfg unchanged on every load.
type StaticProvider struct {
	Config *Config
}

// Load returns a copy of the static config.
func (p StaticProvider) Load(ctx context.Context, _ LoadOptions) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if p.Config != nil {
		c := *p.Config
		cfg = &c
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
