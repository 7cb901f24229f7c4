package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv is a seam so tests do not pick up a developer's .env file.
var loadDotEnv = func() { _ = godotenv.Load() }

// parseEnv overlays environment variables. A .env file in the working
// directory is loaded first; real environment values win over it.
func parseEnv(config *Config) {
	loadDotEnv()

	if port := os.Getenv("PORT"); port != "" {
		config.HTTPAddr = ":" + port
	}
	setString(&config.HTTPAddr, os.Getenv("HTTP_ADDR"))
	setString(&config.GRPCAddr, os.Getenv("GRPC_ADDR"))
	setString(&config.DatabaseDSN, os.Getenv("DATABASE_URL"))
	setString(&config.AccessTokenSecret, os.Getenv("ACCESS_TOKEN_SECRET"))
	setString(&config.RefreshTokenSecret, os.Getenv("REFRESH_TOKEN_SECRET"))
	setString(&config.CORSOrigin, os.Getenv("CORS_ORIGIN"))
	setString(&config.LogLevel, os.Getenv("LOG_LEVEL"))
	setString(&config.S3RootUser, os.Getenv("S3_ROOT_USER"))
	setString(&config.S3RootPassword, os.Getenv("S3_ROOT_PASSWORD"))
	setString(&config.S3Bucket, os.Getenv("S3_BUCKET"))
	setString(&config.S3Region, os.Getenv("S3_REGION"))
	setString(&config.S3BaseEndpoint, os.Getenv("S3_BASE_ENDPOINT"))

	if v := os.Getenv("ACCESS_TOKEN_EXPIRY"); v != "" {
		if d, err := parseExpiry(v); err == nil {
			config.AccessTokenValidityDuration = d
		}
	}
	if v := os.Getenv("REFRESH_TOKEN_EXPIRY"); v != "" {
		if d, err := parseExpiry(v); err == nil {
			config.RefreshTokenValidityDuration = d
		}
	}
	if v := os.Getenv("SECURE_COOKIES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.SecureCookies = b
		}
	}
	if v := os.Getenv("ALLOW_GUEST_SYNC"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.AllowGuestSync = b
		}
	}
}

// parseExpiry accepts Go durations ("15m", "1h30m") and whole days ("10d"),
// the form older deployments used in their env files.
func parseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid expiry %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid expiry %q", s)
	}
	return d, nil
}
