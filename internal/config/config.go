package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/auditline/coverage/internal/types"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// Audit defaults applied at initial parse time.
	OfficeHours           types.OfficeHours
	SignificantGapMinutes int
	MaxUploadBytes        int64

	// WebSocket timings for the live-recompute feed.
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	officeStart, err := types.ParseDayTime(getEnv("OFFICE_HOURS_START", "08:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid OFFICE_HOURS_START: %w", err)
	}
	officeEnd, err := types.ParseDayTime(getEnv("OFFICE_HOURS_END", "18:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid OFFICE_HOURS_END: %w", err)
	}
	config.OfficeHours = types.OfficeHours{Start: officeStart, End: officeEnd}
	if err := config.OfficeHours.Validate(); err != nil {
		return nil, err
	}

	sigMinutes, err := strconv.Atoi(getEnv("SIGNIFICANT_GAP_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid SIGNIFICANT_GAP_MINUTES: %w", err)
	}
	config.SignificantGapMinutes = sigMinutes

	maxUploadMB, err := strconv.Atoi(getEnv("MAX_UPLOAD_MB", "32"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB: %w", err)
	}
	config.MaxUploadBytes = int64(maxUploadMB) << 20

	// Parse WebSocket timeouts
	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	// Calculate WebSocket constants
	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 512

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
