package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common errors
var (
	ErrMissingToken      = errors.New("TOKEN environment variable is required to call the Telraam API")
	ErrMissingReportsURL = errors.New("REPORTS_URL environment variable is required")
	ErrMissingCamerasURL = errors.New("CAMERAS_URL environment variable is required")
	ErrInvalidThreshold  = errors.New("UPTIME_THRESHOLD must be between 0 and 1")
	ErrInvalidRateLimit  = errors.New("API_RATE_LIMIT must be positive")
)

// Defaults
const (
	DefaultVacationLocation = "Rennes"
	DefaultTimezone         = "Europe/Paris"
	DefaultDataDir          = "data"
	DefaultConfigDir        = "config"
	DefaultRateLimit        = 1.0
	DefaultThreshold        = 0.5
	DefaultPort             = "5050"
	DefaultCORSOrigins      = "http://localhost:5173"
)

// Config holds everything the collaborators around the coverage pipeline need.
type Config struct {
	// Telraam API
	Token      string
	CamerasURL string
	ReportsURL string
	SegmentIDs []int64
	RateLimit  float64 // requests per second

	// Civic calendars
	VacationsURL     string
	HolidaysURL      string
	VacationLocation string

	// Analysis
	Timezone  string
	Threshold float64

	// Local storage
	DataDir     string
	ConfigDir   string
	DatabaseURL string
	Port        string
	CORSOrigins []string
}

// LoadFromEnv loads configuration from environment variables.
//
// Environment variables:
//   - TOKEN, CAMERAS_URL, REPORTS_URL: Telraam API access
//   - SEGMENTS_ID: comma-separated segment ids to follow
//   - API_RATE_LIMIT: requests per second (default: 1)
//   - VACATIONS_URL, HOLIDAYS_URL: civic calendar endpoints
//   - VACATION_LOCATION: school zone location (default: Rennes)
//   - TIMEZONE: canonical zone of the analysis (default: Europe/Paris)
//   - UPTIME_THRESHOLD: availability threshold (default: 0.5)
//   - DATA_DIR, CONFIG_DIR: local raw data and YAML directories (default: data, config)
//   - DATABASE_URL: Postgres DSN, optional
//   - PORT: report API port (default: 5050)
func LoadFromEnv() (Config, error) {
	segmentIDs, err := parseIDs(os.Getenv("SEGMENTS_ID"))
	if err != nil {
		return Config{}, fmt.Errorf("SEGMENTS_ID: %w", err)
	}

	rateLimit, err := floatEnv("API_RATE_LIMIT", DefaultRateLimit)
	if err != nil {
		return Config{}, err
	}
	threshold, err := floatEnv("UPTIME_THRESHOLD", DefaultThreshold)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Token:            os.Getenv("TOKEN"),
		CamerasURL:       strings.TrimSpace(os.Getenv("CAMERAS_URL")),
		ReportsURL:       strings.TrimSpace(os.Getenv("REPORTS_URL")),
		SegmentIDs:       segmentIDs,
		RateLimit:        rateLimit,
		VacationsURL:     strings.TrimSpace(os.Getenv("VACATIONS_URL")),
		HolidaysURL:      strings.TrimSpace(os.Getenv("HOLIDAYS_URL")),
		VacationLocation: stringEnv("VACATION_LOCATION", DefaultVacationLocation),
		Timezone:         stringEnv("TIMEZONE", DefaultTimezone),
		Threshold:        threshold,
		DataDir:          stringEnv("DATA_DIR", DefaultDataDir),
		ConfigDir:        stringEnv("CONFIG_DIR", DefaultConfigDir),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		Port:             stringEnv("PORT", DefaultPort),
		CORSOrigins:      splitList(stringEnv("CORS_ORIGINS", DefaultCORSOrigins)),
	}, nil
}

// Validate checks the values shared by every entry point.
func (c Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return ErrInvalidThreshold
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	return nil
}

// ValidateAPI checks that the Telraam API can be called.
func (c Config) ValidateAPI() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if c.ReportsURL == "" {
		return ErrMissingReportsURL
	}
	if c.CamerasURL == "" {
		return ErrMissingCamerasURL
	}
	if c.RateLimit <= 0 {
		return ErrInvalidRateLimit
	}
	return nil
}

// Location loads the canonical time zone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func stringEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
