// Package config holds the runtime configuration of the urlguard binary.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the service and CLI.
type Config struct {
	HTTPAddr      string
	LogLevel      string
	CatalogPath   string
	GeoCityDB     string
	GeoASNDB      string
	CacheSize     int
	DefaultScheme string
}

// Load reads configuration from environment variables with sensible
// defaults. Command-line flags override the values afterwards.
func Load() (*Config, error) {
	cacheSize, err := strconv.Atoi(getEnv("URLGUARD_CACHE_SIZE", "1024"))
	if err != nil {
		return nil, fmt.Errorf("parse URLGUARD_CACHE_SIZE: %w", err)
	}

	return &Config{
		HTTPAddr:      getEnv("URLGUARD_HTTP_ADDR", ":8080"),
		LogLevel:      getEnv("URLGUARD_LOG_LEVEL", "info"),
		CatalogPath:   getEnv("URLGUARD_CATALOG", ""),
		GeoCityDB:     getEnv("URLGUARD_GEOIP_CITY_DB", ""),
		GeoASNDB:      getEnv("URLGUARD_GEOIP_ASN_DB", ""),
		CacheSize:     cacheSize,
		DefaultScheme: getEnv("URLGUARD_DEFAULT_SCHEME", ""),
	}, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative, got %d", c.CacheSize)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("http address must not be empty")
	}
	if strings.Contains(c.DefaultScheme, ":") || strings.Contains(c.DefaultScheme, "/") {
		return fmt.Errorf("default scheme %q must be a bare scheme name such as https", c.DefaultScheme)
	}
	return nil
}

// GeoIPEnabled reports whether any GeoIP database is configured.
func (c *Config) GeoIPEnabled() bool {
	return c.GeoCityDB != "" || c.GeoASNDB != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
