package config

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var configValue atomic.Value

func GetConfig() *Config {
	return configValue.Load().(*Config)
}

func SetConfig(cfg *Config) {
	configValue.Store(cfg)
}

type Config struct {
	Version     string            `mapstructure:"version"`
	Environment string            `mapstructure:"environment"`
	Server      ServerConfig      `mapstructure:"server"`
	OpenWeather OpenWeatherConfig `mapstructure:"openweather"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// OpenWeatherConfig mirrors the knobs of the upstream client: the APPID,
// default language and units, and the endpoints it talks to.
type OpenWeatherConfig struct {
	APIKey       string `mapstructure:"api_key"`
	Lang         string `mapstructure:"lang"`
	Units        string `mapstructure:"units"`
	ImageFormat  string `mapstructure:"image_format"`
	ForecastURL  string `mapstructure:"forecast_url"`
	OneCallURL   string `mapstructure:"one_call_url"`
	ImageBaseURL string `mapstructure:"image_base_url"`
	Timeout      int    `mapstructure:"timeout"`
}

// CacheConfig controls the response memo cache. A TTL of zero keeps entries
// for the lifetime of the process.
type CacheConfig struct {
	TTL int `mapstructure:"ttl"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
		},
		OpenWeather: OpenWeatherConfig{
			APIKey:       "",
			Lang:         "en",
			Units:        "metric",
			ImageFormat:  "@2x.png",
			ForecastURL:  "https://api.openweathermap.org/data/2.5/forecast",
			OneCallURL:   "https://api.openweathermap.org/data/2.5/onecall",
			ImageBaseURL: "https://openweathermap.org/img/wn/",
			Timeout:      10,
		},
		Cache: CacheConfig{
			TTL: 0,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "tempo:4317",
			ServiceName: "weather-page",
		},
	}
}

var validUnits = map[string]bool{
	"standard": true,
	"metric":   true,
	"imperial": true,
}

// Validate reports the first setting that would make the service unusable.
func (c *Config) Validate() error {
	if c.OpenWeather.APIKey == "" {
		return errors.New("openweather.api_key is required")
	}
	if !validUnits[c.OpenWeather.Units] {
		return fmt.Errorf("openweather.units must be one of standard, metric, imperial: got %q", c.OpenWeather.Units)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.OpenWeather.Timeout <= 0 {
		return fmt.Errorf("openweather.timeout must be positive: %d", c.OpenWeather.Timeout)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative: %d", c.Cache.TTL)
	}
	return nil
}
