package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "saucer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.True(t, cfg.Logger.Color)
	assert.Empty(t, cfg.Logger.LogFile)

	assert.Equal(t, "screen", cfg.Engine.Medium)
	assert.Equal(t, 1024, cfg.Engine.ViewportWidth)
	assert.Equal(t, 768, cfg.Engine.ViewportHeight)
	assert.Equal(t, 16.0, cfg.Engine.FontSize)
	assert.Equal(t, 1, cfg.Engine.Workers)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("reads the file over defaults", func(t *testing.T) {
		path := writeConfig(t, `
logger:
  level: debug
  format: json
engine:
  medium: print
  viewport_width: 800
  user_stylesheets:
    - user.css
  visited:
    - https://example.com/
  workers: 4
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.Logger.Level)
		assert.Equal(t, "json", cfg.Logger.Format)
		assert.Equal(t, "print", cfg.Engine.Medium)
		assert.Equal(t, 800, cfg.Engine.ViewportWidth)
		assert.Equal(t, 768, cfg.Engine.ViewportHeight, "unset keys keep their default")
		assert.Equal(t, []string{"user.css"}, cfg.Engine.UserStylesheets)
		assert.Equal(t, []string{"https://example.com/"}, cfg.Engine.Visited)
		assert.Equal(t, 4, cfg.Engine.Workers)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		path := writeConfig(t, "engine:\n  workers: 4\n")
		t.Setenv("SAUCER_ENGINE_WORKERS", "8")
		t.Setenv("SAUCER_LOGGER_LEVEL", "warn")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.Engine.Workers)
		assert.Equal(t, "warn", cfg.Logger.Level)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("no file anywhere", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(t.TempDir()))
		t.Cleanup(func() { _ = os.Chdir(wd) })

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, NewDefaultConfig(), cfg)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeConfig(t, "engine:\n  workers: 0\n  viewport_width: -5\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "engine.workers")
		assert.Contains(t, err.Error(), "engine.viewport_width")
	})
}

func TestPrepare_BindsFlagsOverFile(t *testing.T) {
	path := writeConfig(t, "engine:\n  viewport_width: 800\n")
	v := viper.New()
	SetDefaults(v)
	v.Set("engine.viewport_width", 640)
	require.NoError(t, Prepare(v, path))

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Engine.ViewportWidth)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Logger.Format = "xml"
	cfg.Engine.Medium = ""
	cfg.Engine.FontSize = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
}
