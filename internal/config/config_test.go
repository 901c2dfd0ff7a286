package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, FormatYAML, cfg.Format)
	assert.True(t, cfg.StrictVersion)
	assert.True(t, cfg.AllFeatures)
	assert.Empty(t, cfg.Features)
	assert.Empty(t, cfg.Source)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "yanglint.yaml", `log_level: debug
format: json
strict_version: false
features:
  - interfaces:stats
`)
	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.False(t, cfg.StrictVersion)
	assert.False(t, cfg.AllFeatures)
	assert.Equal(t, []string{"interfaces:stats"}, cfg.Features)
	assert.Equal(t, filepath.Join(dir, "yanglint.yaml"), cfg.Source)
}

func TestLoadTOMLFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.toml", `log_level = "error"
format = "toml"
features = []
`)
	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, FormatTOML, cfg.Format)
	assert.False(t, cfg.AllFeatures)
	assert.Empty(t, cfg.Features)
}

func TestLoadOverridesWin(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "yanglint.yaml", "log_level: debug\nformat: json\n")
	t.Setenv("YANGLINT_FORMAT", "toml")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigDirPath: dir,
		LogLevel:      "INFO",
		Features:      []string{"a:b", "c:d"},
		FeaturesSet:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, FormatTOML, cfg.Format)
	assert.Equal(t, []string{"a:b", "c:d"}, cfg.Features)
	assert.False(t, cfg.AllFeatures)
}

func TestLoadFeaturesFromEnv(t *testing.T) {
	t.Setenv("YANGLINT_FEATURES", "a:b,c:d")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, []string{"a:b", "c:d"}, cfg.Features)
	assert.False(t, cfg.AllFeatures)
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := NewProvider().Load(ctx, LoadOptions{ConfigFilePath: filepath.Join(dir, "missing.yaml")})
	assert.ErrorContains(t, err, "config file not found")

	bad := writeFile(t, dir, "bad.yaml", "log_level: [\n")
	_, err = NewProvider().Load(ctx, LoadOptions{ConfigFilePath: bad})
	assert.ErrorContains(t, err, "read config")

	_, err = NewProvider().Load(ctx, LoadOptions{ConfigDirPath: dir, LogLevel: "loud"})
	assert.ErrorContains(t, err, "LogLevel")

	_, err = NewProvider().Load(ctx, LoadOptions{ConfigDirPath: dir, Format: "xml"})
	assert.ErrorContains(t, err, "Format")

	_, err = NewProvider().Load(ctx, LoadOptions{ConfigDirPath: dir, Features: []string{"nocolon"}, FeaturesSet: true})
	assert.ErrorContains(t, err, "nocolon")

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewProvider().Load(canceled, LoadOptions{ConfigDirPath: dir})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "features", mutate: func(c *Config) { c.Features = []string{"m:f", "m2:f-2"} }},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: true},
		{name: "empty format", mutate: func(c *Config) { c.Format = "" }, wantErr: true},
		{name: "missing module", mutate: func(c *Config) { c.Features = []string{":f"} }, wantErr: true},
		{name: "nested colon", mutate: func(c *Config) { c.Features = []string{"m:f:g"} }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStaticProvider(t *testing.T) {
	t.Parallel()
	cfg, err := StaticProvider{}.Load(context.Background(), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	src := &Config{LogLevel: "debug", Format: FormatJSON}
	cfg, err = StaticProvider{Config: src}.Load(context.Background(), LoadOptions{})
	require.NoError(t, err)
	cfg.LogLevel = "error"
	assert.Equal(t, "debug", src.LogLevel)

	_, err = StaticProvider{Config: &Config{}}.Load(context.Background(), LoadOptions{})
	assert.Error(t, err)
}
