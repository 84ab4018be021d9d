package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mediarr/mediarr/internal/catalog"
	"github.com/mediarr/mediarr/internal/filter"
	"github.com/mediarr/mediarr/internal/plex"
	"github.com/mediarr/mediarr/internal/seer"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Logging LoggingConfig  `mapstructure:"logging"`
	TMDB    catalog.Config `mapstructure:"tmdb"`
	Seer    seer.Config    `mapstructure:"seer"`
	Plex    plex.Config    `mapstructure:"plex"`
	Sensors SensorsConfig  `mapstructure:"sensors"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// SensorsConfig holds feed-level settings shared by all sensors.
type SensorsConfig struct {
	// MaxItems bounds every feed's published list.
	MaxItems int `mapstructure:"max_items"`
	// RefreshInterval is the polling cadence for all sensors.
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	// TMDBLists selects which catalog list feeds to publish.
	TMDBLists []string `mapstructure:"tmdb_lists"`
	// SeerTypes selects which broker discovery feeds to publish.
	SeerTypes []string `mapstructure:"seer_types"`
	// Filters carries per-key overrides of the stock filter rules.
	Filters filter.Overrides `mapstructure:"filters"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		TMDB: catalog.Config{
			APIKey:   EmbeddedTMDBKey,
			Language: "en",
		},
		Sensors: SensorsConfig{
			MaxItems:        10,
			RefreshInterval: 30 * time.Minute,
			TMDBLists:       []string{"trending", "popular_movies", "popular_tv"},
			SeerTypes:       []string{"trending"},
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.mediarr")
	}

	v.SetEnvPrefix("MEDIARR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", "")

	// Catalog defaults
	v.SetDefault("tmdb.api_key", EmbeddedTMDBKey)
	v.SetDefault("tmdb.language", "en")

	// Upstream defaults (unset means the sensor is not registered)
	v.SetDefault("seer.url", "")
	v.SetDefault("seer.api_key", "")
	v.SetDefault("plex.url", "")
	v.SetDefault("plex.token", "")

	// Sensor defaults
	v.SetDefault("sensors.max_items", 10)
	v.SetDefault("sensors.refresh_interval", "30m")
	v.SetDefault("sensors.tmdb_lists", []string{"trending", "popular_movies", "popular_tv"})
	v.SetDefault("sensors.seer_types", []string{"trending"})
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
