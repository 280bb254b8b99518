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
	Provider ProviderConfig `yaml:"provider" mapstructure:"provider"`
	Places   PlacesConfig   `yaml:"places" mapstructure:"places"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ProviderConfig selects and configures the external search provider.
type ProviderConfig struct {
	// Kind is "subprocess" or "http".
	Kind        string `yaml:"kind" mapstructure:"kind"`
	ScriptPath  string `yaml:"script_path" mapstructure:"script_path"`
	PythonBin   string `yaml:"python_bin" mapstructure:"python_bin"`
	TempDir     string `yaml:"temp_dir" mapstructure:"temp_dir"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries     int    `yaml:"retries" mapstructure:"retries"`
}

// PlacesConfig holds the HTTP search API settings.
type PlacesConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	Concurrency   int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// SearchConfig holds run defaults.
type SearchConfig struct {
	DefaultGridSize    int     `yaml:"default_grid_size" mapstructure:"default_grid_size"`
	DefaultRadiusMiles float64 `yaml:"default_radius_miles" mapstructure:"default_radius_miles"`
	SaveTimeoutSecs    int     `yaml:"save_timeout_secs" mapstructure:"save_timeout_secs"`
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
	v.SetEnvPrefix("RANKGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "rankgrid.db")
	v.SetDefault("provider.kind", "subprocess")
	v.SetDefault("provider.python_bin", "python3")
	v.SetDefault("provider.temp_dir", "/tmp/rankgrid")
	v.SetDefault("provider.timeout_secs", 180)
	v.SetDefault("provider.retries", 2)
	v.SetDefault("places.rate_per_second", 5)
	v.SetDefault("places.concurrency", 8)
	v.SetDefault("search.default_grid_size", 13)
	v.SetDefault("search.default_radius_miles", 5)
	v.SetDefault("search.save_timeout_secs", 30)
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

// Validate checks that the named section has what it needs to run.
func (c *Config) Validate(section string) error {
	switch section {
	case "store":
		if c.Store.Driver != "postgres" && c.Store.Driver != "sqlite" {
			return eris.Errorf("config: unknown store driver %q (valid: postgres, sqlite)", c.Store.Driver)
		}
		if c.Store.DatabaseURL == "" {
			return eris.New("config: store.database_url is required")
		}
	case "provider":
		switch c.Provider.Kind {
		case "subprocess":
			if c.Provider.ScriptPath == "" {
				return eris.New("config: provider.script_path is required for the subprocess provider")
			}
		case "http":
			if c.Places.Key == "" {
				return eris.New("config: places.key is required for the http provider")
			}
		default:
			return eris.Errorf("config: unknown provider kind %q (valid: subprocess, http)", c.Provider.Kind)
		}
	default:
		return eris.Errorf("config: unknown section %q", section)
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
