package config

import (
	"errors"
	"fmt"
	"os"

	"rentalhub/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	Logging       LoggingConfig       `yaml:"logging"`
	API           APIConfig           `yaml:"api"`
	Rentals       RentalsConfig       `yaml:"rentals"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Sweep         SweepConfig         `yaml:"sweep"`
	Exports       ExportConfig        `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIRateLimitConfig struct {
	Requests int `yaml:"requests"`
	Window   int `yaml:"window"`
}

type RentalsConfig struct {
	MaxAdvanceDays int `yaml:"max_advance_days"`
}

type NotificationsConfig struct {
	TelegramEnabled bool   `yaml:"telegram_enabled"`
	TelegramToken   string `yaml:"telegram_token"`
	MaxRetries      int    `yaml:"max_retries"`
}

type SweepConfig struct {
	ActivationTime string `yaml:"activation_time"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; config values may reference its variables.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return errors.New("redis address is required when redis is enabled")
	}
	if c.Notifications.TelegramEnabled && c.Notifications.TelegramToken == "" {
		return errors.New("telegram token is required when telegram notifications are enabled")
	}
	if c.Rentals.MaxAdvanceDays < 0 {
		return fmt.Errorf("max_advance_days must not be negative, got %d", c.Rentals.MaxAdvanceDays)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.RateLimit.Requests == 0 {
		c.API.RateLimit.Requests = models.DefaultRateLimitRequests
	}
	if c.API.RateLimit.Window == 0 {
		c.API.RateLimit.Window = models.DefaultRateLimitWindow
	}
	if c.Rentals.MaxAdvanceDays == 0 {
		c.Rentals.MaxAdvanceDays = models.DefaultMaxAdvanceDays
	}
	if c.Sweep.ActivationTime == "" {
		c.Sweep.ActivationTime = "00:05"
	}
	if c.Notifications.MaxRetries == 0 {
		c.Notifications.MaxRetries = 5
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
