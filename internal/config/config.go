package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"pinsaver/internal/domain"
)

// Config holds all configuration for the application.
// Values are read by viper from a config file or environment variables.
type Config struct {
	TelegramBotToken string        `mapstructure:"TELEGRAM_BOT_TOKEN"`
	BadgerDBPath     string        `mapstructure:"BADGERDB_PATH"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	MetricsAddr      string        `mapstructure:"METRICS_ADDR"`
	ScrapeTimeout    time.Duration `mapstructure:"SCRAPE_TIMEOUT"`
	GCInterval       time.Duration `mapstructure:"GC_INTERVAL"`

	// Initial settings for new installations.
	PinryURL            string `mapstructure:"PINRY_URL"`
	PinryAPIKey         string `mapstructure:"PINRY_API_KEY"`
	PinryDefaultBoardID string `mapstructure:"PINRY_DEFAULT_BOARD_ID"`
}

var defaults = map[string]any{
	"TELEGRAM_BOT_TOKEN":     "",
	"BADGERDB_PATH":          "./badger_data",
	"LOG_LEVEL":              "info",
	"METRICS_ADDR":           "",
	"SCRAPE_TIMEOUT":         "30s",
	"GC_INTERVAL":            "5m",
	"PINRY_URL":              "",
	"PINRY_API_KEY":          "",
	"PINRY_DEFAULT_BOARD_ID": "",
}

// LoadConfig reads config.yaml from path, overridden by environment variables.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Every key needs a default so that Unmarshal sees env-only values.
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if config.TelegramBotToken == "" {
		return Config{}, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	if config.ScrapeTimeout <= 0 {
		return Config{}, fmt.Errorf("SCRAPE_TIMEOUT must be positive, got %s", config.ScrapeTimeout)
	}
	if config.GCInterval <= 0 {
		return Config{}, fmt.Errorf("GC_INTERVAL must be positive, got %s", config.GCInterval)
	}

	return config, nil
}

// Level returns the configured log level, falling back to info.
func (c Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// SeedSettings returns the settings given to a new installation.
func (c Config) SeedSettings() domain.Settings {
	return domain.Settings{
		ServiceURL:     c.PinryURL,
		APIToken:       c.PinryAPIKey,
		DefaultBoardID: c.PinryDefaultBoardID,
	}
}
