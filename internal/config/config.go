// Package config содержит логику чтения конфигурации сервиса доставки.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Значения по умолчанию.
const (
	DefaultRunAddress        = "localhost:8080"
	DefaultGeocoderAddress   = "https://nominatim.openstreetmap.org"
	DefaultGeocoderUserAgent = "RestaurantDelivery/1.0"
	DefaultOrderSyncInterval = 10 * time.Second
	DefaultTimezone          = "Europe/Warsaw"
)

// Config содержит параметры конфигурации сервиса доставки.
type Config struct {
	RunAddress        string        `env:"RUN_ADDRESS"`
	DatabaseURI       string        `env:"DATABASE_URI"`
	OrdersAPIAddress  string        `env:"ORDERS_API_ADDRESS"`
	OrdersAPIToken    string        `env:"ORDERS_API_TOKEN"`
	GeocoderAddress   string        `env:"GEOCODER_ADDRESS"`
	GeocoderUserAgent string        `env:"GEOCODER_USER_AGENT"`
	RedisAddress      string        `env:"REDIS_ADDRESS"`
	SessionSecret     string        `env:"SESSION_SECRET"`
	DeliveryZonesFile string        `env:"DELIVERY_ZONES_FILE"`
	OrderSyncInterval time.Duration `env:"ORDER_SYNC_INTERVAL"`
	Timezone          string        `env:"TIMEZONE"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	envCfg := Config{}
	if err := env.Parse(&envCfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", DefaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.OrdersAPIAddress, "o", "", "orders API address")
	flag.StringVar(&cfg.GeocoderAddress, "g", DefaultGeocoderAddress, "reverse geocoder address")
	flag.StringVar(&cfg.RedisAddress, "s", "", "redis address for delivery sessions")
	flag.StringVar(&cfg.DeliveryZonesFile, "z", "", "YAML file with delivery zones")

	flag.Parse()

	override(&cfg.RunAddress, envCfg.RunAddress)
	override(&cfg.DatabaseURI, envCfg.DatabaseURI)
	override(&cfg.OrdersAPIAddress, envCfg.OrdersAPIAddress)
	override(&cfg.GeocoderAddress, envCfg.GeocoderAddress)
	override(&cfg.RedisAddress, envCfg.RedisAddress)
	override(&cfg.DeliveryZonesFile, envCfg.DeliveryZonesFile)

	cfg.OrdersAPIToken = envCfg.OrdersAPIToken
	cfg.GeocoderUserAgent = envCfg.GeocoderUserAgent
	cfg.SessionSecret = envCfg.SessionSecret
	cfg.OrderSyncInterval = envCfg.OrderSyncInterval
	cfg.Timezone = envCfg.Timezone

	if cfg.RunAddress == "" {
		cfg.RunAddress = DefaultRunAddress
	}
	if cfg.GeocoderAddress == "" {
		cfg.GeocoderAddress = DefaultGeocoderAddress
	}
	if cfg.GeocoderUserAgent == "" {
		cfg.GeocoderUserAgent = DefaultGeocoderUserAgent
	}
	if cfg.OrderSyncInterval <= 0 {
		cfg.OrderSyncInterval = DefaultOrderSyncInterval
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}

	return cfg, nil
}

// Location возвращает часовой пояс, в котором проверяются часы работы доставки.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func override(dst *string, envValue string) {
	if envValue != "" {
		*dst = envValue
	}
}
