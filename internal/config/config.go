package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all process-level settings.
type AppConfig struct {
	OpenWeatherAPIKey    string
	VisualCrossingAPIKey string
	GeocoderAPIKey       string

	// PollInterval controls how often the monitor checks every location.
	PollInterval time.Duration

	// ProviderDelay is the fixed pause between the two provider calls and
	// between locations, to stay under free-tier rate limits.
	ProviderDelay time.Duration

	// HTTPTimeout bounds outbound provider requests.
	HTTPTimeout time.Duration

	// Timezone used to bucket forecast hours into local dates.
	Timezone *time.Location

	// Analysis history retention per location.
	StoreMaxHistory int
	StoreMaxAge     time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.VisualCrossingAPIKey = os.Getenv("VISUALCROSSING_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	var err error
	if cfg.PollInterval, err = getenvDuration("POLL_INTERVAL", "30m"); err != nil {
		return nil, err
	}
	if cfg.ProviderDelay, err = getenvDuration("PROVIDER_DELAY", "2s"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	tzName := getenvDefault("TIMEZONE", "UTC")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}
	cfg.Timezone = tz

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96)
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "48h"); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
