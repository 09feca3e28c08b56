package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	OddsAPI  OddsAPIConfig  `yaml:"odds_api" mapstructure:"odds_api"`
	Football FootballConfig `yaml:"football" mapstructure:"football"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Backtest BacktestConfig `yaml:"backtest" mapstructure:"backtest"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the prediction store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// OddsAPIConfig holds The Odds API settings.
type OddsAPIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Sport   string `yaml:"sport" mapstructure:"sport"`
}

// FootballConfig holds API-Football settings.
type FootballConfig struct {
	Key      string `yaml:"key" mapstructure:"key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	LeagueID int    `yaml:"league_id" mapstructure:"league_id"`
	Season   int    `yaml:"season" mapstructure:"season"`
}

// AnalysisConfig configures the analysis pipeline.
type AnalysisConfig struct {
	UpcomingLimit int `yaml:"upcoming_limit" mapstructure:"upcoming_limit"`
}

// BacktestConfig configures prediction validation.
type BacktestConfig struct {
	Lookback int `yaml:"lookback" mapstructure:"lookback"`
}

// CacheConfig configures in-memory caching of API responses.
type CacheConfig struct {
	TTLMinutes int `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// ServerConfig configures the HTTP API server.
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
	v.SetEnvPrefix("MARKETINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "predictions.db")
	v.SetDefault("odds_api.base_url", "https://api.the-odds-api.com/v4")
	v.SetDefault("odds_api.sport", "soccer_epl")
	v.SetDefault("football.base_url", "https://v3.football.api-sports.io")
	v.SetDefault("football.league_id", 39)
	v.SetDefault("football.season", 2025)
	v.SetDefault("analysis.upcoming_limit", 10)
	v.SetDefault("backtest.lookback", 50)
	v.SetDefault("cache.ttl_minutes", 30)
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

// Validate checks that the configuration is complete for the given mode.
// All reported problems are joined into one error.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			problems = append(problems, "store.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	switch mode {
	case "analyze", "matches":
		if c.OddsAPI.Key == "" {
			problems = append(problems, "odds_api.key is required")
		}
		if c.Football.Key == "" {
			problems = append(problems, "football.key is required")
		}
	case "validate":
		if c.Football.Key == "" {
			problems = append(problems, "football.key is required")
		}
	case "metrics":
		// Store-only mode.
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.OddsAPI.Key == "" {
			problems = append(problems, "odds_api.key is required")
		}
		if c.Football.Key == "" {
			problems = append(problems, "football.key is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Backtest.Lookback < 0 {
		problems = append(problems, "backtest.lookback must be >= 0")
	}
	if c.Analysis.UpcomingLimit <= 0 {
		problems = append(problems, "analysis.upcoming_limit must be > 0")
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
