// Package config loads the sandbox backend configuration from the
// environment and command-line flags. A .env file in the working directory
// is read first if present.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	BasePath   string
	AppTokens  []string
	AllowedIPs []string

	JWTSecret       string
	SessionTTL      time.Duration
	RefreshTTL      time.Duration
	ConnectionTTL   time.Duration
	ConfirmationTTL time.Duration

	// DevOTP, when set, is the code every connection and transaction
	// accepts. Otherwise random codes are generated and logged.
	DevOTP         string
	MaxOTPAttempts int
	BcryptCost     int

	RateLimit  int
	RateWindow time.Duration
}

// Load reads the configuration from the process environment, then applies
// command-line flags on top.
func Load() *Config {
	_ = godotenv.Load()
	cfg := LoadFrom(os.Getenv)
	parseFlags(cfg)
	return cfg
}

// LoadFrom reads the configuration through getenv, falling back to
// development defaults for unset keys.
func LoadFrom(getenv func(string) string) *Config {
	e := env(getenv)
	return &Config{
		Port:       e.str("SANDBOX_PORT", "8080"),
		BasePath:   e.str("SANDBOX_BASE_PATH", "/api/v1"),
		AppTokens:  e.list("SANDBOX_APP_TOKENS", []string{"dev-app-token"}),
		AllowedIPs: e.list("SANDBOX_ALLOWED_IPS", nil),

		JWTSecret:       e.str("SANDBOX_JWT_SECRET", "sandbox-secret"),
		SessionTTL:      e.duration("SANDBOX_SESSION_TTL", 30*time.Minute),
		RefreshTTL:      e.duration("SANDBOX_REFRESH_TTL", 30*24*time.Hour),
		ConnectionTTL:   e.duration("SANDBOX_CONNECTION_TTL", 10*time.Minute),
		ConfirmationTTL: e.duration("SANDBOX_CONFIRMATION_TTL", 5*time.Minute),

		DevOTP:         e.str("SANDBOX_DEV_OTP", "123456"),
		MaxOTPAttempts: e.integer("SANDBOX_MAX_OTP_ATTEMPTS", 3),
		BcryptCost:     e.integer("SANDBOX_BCRYPT_COST", 10),

		RateLimit:  e.integer("SANDBOX_RATE_LIMIT", 120),
		RateWindow: e.duration("SANDBOX_RATE_WINDOW", time.Minute),
	}
}

type env func(string) string

func (e env) str(key, def string) string {
	if v := strings.TrimSpace(e(key)); v != "" {
		return v
	}
	return def
}

func (e env) integer(key string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(e(key))); err == nil {
		return v
	}
	return def
}

func (e env) duration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(strings.TrimSpace(e(key))); err == nil {
		return v
	}
	return def
}

func (e env) list(key string, def []string) []string {
	raw := strings.TrimSpace(e(key))
	if raw == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
