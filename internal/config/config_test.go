package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chtemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "2022-01-01", cfg.Pipeline.CutoffDate)
	assert.Equal(t, 10, cfg.Pipeline.TopN)
	assert.Equal(t, "sqlite", cfg.Cache.Driver)
	assert.Equal(t, "polog-cache.db", cfg.Cache.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chtemp(t)

	yaml := `
pipeline:
  cutoff_date: "2023-06-01"
  top_n: 5
cache:
  driver: postgres
  database_url: postgres://localhost/polog
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(".", "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "2023-06-01", cfg.Pipeline.CutoffDate)
	assert.Equal(t, 5, cfg.Pipeline.TopN)
	assert.Equal(t, "postgres", cfg.Cache.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chtemp(t)

	yaml := `
cache:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile("config.yaml", []byte(yaml), 0644))

	t.Setenv("POLOG_CACHE_DRIVER", "sqlite")
	t.Setenv("POLOG_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "sqlite", cfg.Cache.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chtemp(t)

	t.Setenv("POLOG_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestCutoffParse(t *testing.T) {
	p := PipelineConfig{CutoffDate: "2022-01-01"}
	got, err := p.Cutoff()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC), got)

	p.CutoffDate = "January 1st"
	_, err = p.Cutoff()
	assert.Error(t, err)
}

func validDefaults() *Config {
	cfg := &Config{}
	cfg.Pipeline.CutoffDate = "2022-01-01"
	cfg.Pipeline.TopN = 10
	cfg.Cache.Driver = "sqlite"
	cfg.Cache.Path = "polog-cache.db"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidatePipeline(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("pipeline"))
}

func TestValidateBadCutoff(t *testing.T) {
	cfg := validDefaults()
	cfg.Pipeline.CutoffDate = "not a date"

	err := cfg.Validate("pipeline")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cutoff_date")
}

func TestValidateCacheDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Cache.Driver = "postgres"

	err := cfg.Validate("pipeline")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cache.database_url is required")

	cfg.Cache.DatabaseURL = "postgres://localhost/polog"
	assert.NoError(t, cfg.Validate("pipeline"))

	cfg.Cache.Driver = "redis"
	err = cfg.Validate("pipeline")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cache.driver")
}

func TestValidateServePort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")

	cfg.Server.Port = 9090
	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
