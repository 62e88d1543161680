package config

import (
	"os"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	DatabaseURL string

	ListenAddr string

	// GeoIPDBPath points at a local MaxMind GeoLite2 City database used
	// for IP enrichment. A missing or unreadable file disables enrichment
	// but never blocks ingestion.
	GeoIPDBPath string
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	return &Config{
		DatabaseURL: os.Getenv("APP_DATABASE_URL"),
		ListenAddr:  getenv("APP_LISTEN_ADDR", ":8080"),
		GeoIPDBPath: getenv("APP_GEOIP_DB", "GeoLite2-City.mmdb"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
