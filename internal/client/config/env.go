package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/walletlink/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variable names read by parseEnv.
const (
	EnvAppToken      = "WALLETLINK_APP_TOKEN"
	EnvBaseURL       = "WALLETLINK_BASE_URL"
	EnvEnvironment   = "WALLETLINK_ENV"
	EnvTimeout       = "WALLETLINK_TIMEOUT"
	EnvRetryAttempts = "WALLETLINK_RETRY_ATTEMPTS"
	EnvStorePath     = "WALLETLINK_STORE_PATH"
	EnvPollInterval  = "WALLETLINK_POLL_INTERVAL"
	EnvLogLevel      = "WALLETLINK_LOG_LEVEL"
)

// Env abstracts variable lookup so tests need not touch the process env.
type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

// MapEnv is an Env backed by a map.
type MapEnv map[string]string

func (m MapEnv) Getenv(key string) string { return m[key] }

// loadDotEnv loads the file named by -env-file, else ./.env if it exists.
// Variables already present in the process environment win.
func loadDotEnv() {
	if path := flagx.EnvFileFlag(); path != "" {
		_ = godotenv.Load(path)
		return
	}
	_ = godotenv.Load()
}

// parseEnv overlays s with WALLETLINK_* variables. Malformed numbers and
// durations are ignored and the previous value is kept.
func parseEnv(s *Settings, env Env) {
	if _, ok := env.(osEnv); ok {
		loadDotEnv()
	}

	if v := env.Getenv(EnvAppToken); v != "" {
		s.AppToken = v
	}
	if v := env.Getenv(EnvBaseURL); v != "" {
		s.BaseURL = v
	}
	if v := env.Getenv(EnvEnvironment); v != "" {
		s.Environment = ParseEnvironment(v)
	}
	s.Timeout = parseDuration(env.Getenv(EnvTimeout), s.Timeout)
	s.RetryAttempts = parseInt(env.Getenv(EnvRetryAttempts), s.RetryAttempts)
	if v := env.Getenv(EnvStorePath); v != "" {
		s.StorePath = v
	}
	s.PollInterval = parseDuration(env.Getenv(EnvPollInterval), s.PollInterval)
	if v := env.Getenv(EnvLogLevel); v != "" {
		s.LogLevel = v
	}
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
