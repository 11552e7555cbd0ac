package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"guide-builder/core/config"
	"guide-builder/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, time.Minute, cfg.Server.ShutdownTimeout)
	assert.False(t, cfg.Storage.Enabled)
	assert.Equal(t, "guide", cfg.Storage.Bucket)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("STORAGE_ENABLED", "true")

	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Storage.Enabled)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_FORMAT=console\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("LOG_FORMAT") })

	cfg, err := config.LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	yaml := "database:\n  driver: mysql\n  port: 3307\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := config.LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3307, cfg.Database.Port)
}

// section is a feature-owned configuration loaded through Load.
type section struct {
	Widget struct {
		Size  int           `mapstructure:"size" default:"3" validate:"min=1"`
		Every time.Duration `mapstructure:"every" default:"2m"`
	} `mapstructure:"widget"`
}

func TestLoad_FeatureSection(t *testing.T) {
	t.Setenv("WIDGET_SIZE", "7")

	var cfg section
	require.NoError(t, config.Load(t.TempDir(), &cfg))
	assert.Equal(t, 7, cfg.Widget.Size)
	assert.Equal(t, 2*time.Minute, cfg.Widget.Every)
	assert.NoError(t, config.ValidateStruct(&cfg))

	cfg.Widget.Size = 0
	err := config.ValidateStruct(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestValidate(t *testing.T) {
	cfg, err := config.LoadConfig(t.TempDir())
	require.NoError(t, err)

	cfg.Database.Driver = "oracle"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
