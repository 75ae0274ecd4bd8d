// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	DBPath        string
	JWTSigningKey string
	TokenTTL      time.Duration
	AllowSignUp   bool
	LogLevel      string

	// MeterRepairCron is a cron spec for the meter-reading repair job.
	// Empty disables the job.
	MeterRepairCron string

	CORSOrigins []string

	// Warnings lists malformed variables that fell back to their default,
	// for the caller to log once a logger exists.
	Warnings []string
}

var (
	DefaultTokenTTL    = 24 * time.Hour
	DefaultCORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
)

// Load reads a .env file when one exists, then the environment.
// Variables already set take precedence over the file.
func Load() Server {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("DWELLA_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	dbPath := os.Getenv("DWELLA_DB")
	if dbPath == "" {
		dbPath = "dwella.db"
	}

	var warnings []string

	tokenTTL := DefaultTokenTTL
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if duration, err := time.ParseDuration(v); err == nil && duration > 0 {
			tokenTTL = duration
		} else {
			warnings = append(warnings, fmt.Sprintf("Invalid TOKEN_TTL '%s', defaulting to %s", v, DefaultTokenTTL))
		}
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	allowSignUp := true
	if v := os.Getenv("ALLOW_SIGNUP"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			allowSignUp = parsed
		} else {
			warnings = append(warnings, fmt.Sprintf("Invalid ALLOW_SIGNUP '%s', defaulting to true", v))
		}
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	origins := DefaultCORSOrigins
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return Server{
		Addr:            addr,
		DBPath:          dbPath,
		JWTSigningKey:   jwtSigningKey,
		TokenTTL:        tokenTTL,
		AllowSignUp:     allowSignUp,
		LogLevel:        logLevel,
		MeterRepairCron: strings.TrimSpace(os.Getenv("METER_REPAIR_CRON")),
		CORSOrigins:     origins,
		Warnings:        warnings,
	}
}
