package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	Geo   GeoConfig
}

type AppConfig struct {
	Port    string
	BaseURL string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host string
	Port string
}

type GeoConfig struct {
	APIURL            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	cfg.App.Port = viper.GetString("APP_PORT")
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	cfg.App.BaseURL = viper.GetString("BASE_URL")
	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = "http://localhost:" + cfg.App.Port
	}
	cfg.DB.Host = viper.GetString("DB_HOST")
	cfg.DB.Port = viper.GetString("DB_PORT")
	cfg.DB.User = viper.GetString("DB_USER")
	cfg.DB.Password = viper.GetString("DB_PASSWORD")
	cfg.DB.Name = viper.GetString("DB_NAME")
	cfg.Redis.Host = viper.GetString("REDIS_HOST")
	cfg.Redis.Port = viper.GetString("REDIS_PORT")

	// Гео-провайдер: таймаут и лимит исходящих запросов
	cfg.Geo.APIURL = viper.GetString("GEO_API_URL")
	if cfg.Geo.APIURL == "" {
		cfg.Geo.APIURL = "http://ip-api.com/json"
	}
	timeoutMs := viper.GetInt("GEO_TIMEOUT_MS")
	if timeoutMs == 0 {
		timeoutMs = 2000
	}
	cfg.Geo.Timeout = time.Duration(timeoutMs) * time.Millisecond
	cfg.Geo.RequestsPerSecond = viper.GetFloat64("GEO_RPS")
	if cfg.Geo.RequestsPerSecond == 0 {
		cfg.Geo.RequestsPerSecond = 10
	}
	cfg.Geo.Burst = viper.GetInt("GEO_BURST")
	if cfg.Geo.Burst == 0 {
		cfg.Geo.Burst = 20
	}

	return &cfg, nil
}
