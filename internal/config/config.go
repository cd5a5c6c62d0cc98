// Package config loads application configuration from file and environment.
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
	Dataset   DatasetConfig   `yaml:"dataset" mapstructure:"dataset"`
	Supply    SupplyConfig    `yaml:"supply" mapstructure:"supply"`
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DatasetConfig configures the restricted-zone dataset cascade.
type DatasetConfig struct {
	// Sources is an ordered list of dataset locations: http(s)://, ftp://,
	// local .geojson paths, or local .shp paths. First success wins.
	Sources []string `yaml:"sources" mapstructure:"sources"`

	ShapefileNameField string `yaml:"shapefile_name_field" mapstructure:"shapefile_name_field"`
	TimeoutSecs        int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries         int    `yaml:"max_retries" mapstructure:"max_retries"`
	BatchSize          int    `yaml:"batch_size" mapstructure:"batch_size"`
}

// SupplyConfig configures the material supply catalog cascade.
type SupplyConfig struct {
	URL          string `yaml:"url" mapstructure:"url"`
	DatabaseURL  string `yaml:"database_url" mapstructure:"database_url"`
	SnapshotPath string `yaml:"snapshot_path" mapstructure:"snapshot_path"`
	XLSXPath     string `yaml:"xlsx_path" mapstructure:"xlsx_path"`
}

// EngineConfig configures evaluation and session behavior.
type EngineConfig struct {
	MaxSupplyResults int     `yaml:"max_supply_results" mapstructure:"max_supply_results"`
	MaxRadiusMeters  float64 `yaml:"max_radius_meters" mapstructure:"max_radius_meters"`
	DebounceMs       int     `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	CacheCapacity    int     `yaml:"cache_capacity" mapstructure:"cache_capacity"`
}

// AnthropicConfig holds the optional AI advisor settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	Model       string `yaml:"model" mapstructure:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the HTTP server.
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
	v.SetEnvPrefix("SITECHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("dataset.shapefile_name_field", "NAME")
	v.SetDefault("dataset.timeout_secs", 30)
	v.SetDefault("dataset.max_retries", 3)
	v.SetDefault("dataset.batch_size", 50)
	v.SetDefault("engine.max_supply_results", 5)
	v.SetDefault("engine.max_radius_meters", 50000)
	v.SetDefault("engine.debounce_ms", 500)
	v.SetDefault("engine.cache_capacity", 1024)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.timeout_secs", 20)

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
