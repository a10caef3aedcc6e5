package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Ledger     LedgerConfig
	Database   DatabaseConfig
	Settlement SettlementConfig
	Chart      ChartConfig
	Settings   SettingsConfig
	Log        LogConfig
}

// LedgerConfig selects where bets are stored.
type LedgerConfig struct {
	// Source is "memory" or "postgres".
	Source       string `mapstructure:"source"`
	SeedFixtures bool   `mapstructure:"seed_fixtures"`
}

// DatabaseConfig defines the database connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string `mapstructure:"sslmode"`
}

// URL builds a postgres connection string.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.DBName,
	}
	if d.SSLMode != "" {
		u.RawQuery = "sslmode=" + d.SSLMode
	}
	return u.String()
}

// SettlementConfig defines the settlement feed.
type SettlementConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Feed       string `mapstructure:"feed"`
	URL        string `mapstructure:"url"`
	ReplayPath string `mapstructure:"replay_path"`
	BufferSize int    `mapstructure:"buffer_size"`
}

// ChartConfig defines the equity chart output.
type ChartConfig struct {
	OutputPath   string  `mapstructure:"output_path"`
	Width        int     `mapstructure:"width"`
	Height       int     `mapstructure:"height"`
	MinSpan      float64 `mapstructure:"min_span"`
	PaddingRatio float64 `mapstructure:"padding_ratio"`
}

// SettingsConfig points at the persisted user settings and tags.
type SettingsConfig struct {
	Path     string `mapstructure:"path"`
	TagsPath string `mapstructure:"tags_path"`
}

// LogConfig defines logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults() {
	viper.SetDefault("ledger.source", "memory")
	viper.SetDefault("ledger.seed_fixtures", true)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "ledger")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "ledger")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("settlement.enabled", false)
	viper.SetDefault("settlement.feed", "websocket")
	viper.SetDefault("settlement.url", "")
	viper.SetDefault("settlement.replay_path", "")
	viper.SetDefault("settlement.buffer_size", 64)

	viper.SetDefault("chart.output_path", "")
	viper.SetDefault("chart.width", 800)
	viper.SetDefault("chart.height", 400)
	viper.SetDefault("chart.min_span", 100.0)
	viper.SetDefault("chart.padding_ratio", 0.1)

	viper.SetDefault("settings.path", filepath.Join(".ledger", "settings.json"))
	viper.SetDefault("settings.tags_path", filepath.Join(".ledger", "tags.json"))

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

// LoadConfig reads configuration from file or environment variables.
// A .env file next to the config is loaded first when present. A missing
// config file is not an error; defaults and the environment still apply.
func LoadConfig(path string) (config Config, err error) {
	if err = godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("load .env: %w", err)
	}

	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err = viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return config, fmt.Errorf("unmarshal config: %w", err)
	}
	return config, config.Validate()
}

// Validate checks values that would otherwise fail late at startup.
func (c Config) Validate() error {
	switch c.Ledger.Source {
	case "memory", "postgres":
	default:
		return fmt.Errorf("ledger.source must be memory or postgres, got %q", c.Ledger.Source)
	}
	if c.Settlement.Enabled {
		switch c.Settlement.Feed {
		case "websocket":
			if c.Settlement.URL == "" {
				return errors.New("settlement.url is required for the websocket feed")
			}
		case "replay":
			if c.Settlement.ReplayPath == "" {
				return errors.New("settlement.replay_path is required for the replay feed")
			}
		default:
			return fmt.Errorf("unknown settlement feed %q", c.Settlement.Feed)
		}
	}
	return nil
}
