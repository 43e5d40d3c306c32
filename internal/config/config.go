// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// PipelineConfig configures normalization.
type PipelineConfig struct {
	CutoffDate  string `yaml:"cutoff_date" mapstructure:"cutoff_date"`
	AliasesPath string `yaml:"aliases_path" mapstructure:"aliases_path"`
	TopN        int    `yaml:"top_n" mapstructure:"top_n"`
}

// Cutoff parses the configured cutoff date.
func (p PipelineConfig) Cutoff() (time.Time, error) {
	t, err := time.Parse("2006-01-02", p.CutoffDate)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "config: parse cutoff date %q", p.CutoffDate)
	}
	return t, nil
}

// CacheConfig configures the pipeline cache backend.
type CacheConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite, postgres, or off
	Path        string `yaml:"path" mapstructure:"path"`     // sqlite database path
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP view.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("POLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("pipeline.cutoff_date", "2022-01-01")
	v.SetDefault("pipeline.aliases_path", "")
	v.SetDefault("pipeline.top_n", 10)
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.path", "polog-cache.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration needed for the given mode. Problems are
// aggregated so a misconfigured run reports everything at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "pipeline":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if _, err := c.Pipeline.Cutoff(); err != nil {
		problems = append(problems, "pipeline.cutoff_date must be YYYY-MM-DD")
	}
	if c.Pipeline.TopN <= 0 {
		problems = append(problems, "pipeline.top_n must be > 0")
	}

	switch c.Cache.Driver {
	case "sqlite":
		if c.Cache.Path == "" {
			problems = append(problems, "cache.path is required")
		}
	case "postgres":
		if c.Cache.DatabaseURL == "" {
			problems = append(problems, "cache.database_url is required")
		}
	case "off":
	default:
		problems = append(problems, "cache.driver must be sqlite, postgres, or off")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
