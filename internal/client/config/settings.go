package config

import "time"

// Settings is the runtime configuration of the walletlink CLI: the SDK
// Config plus local concerns.
//
// Fields:
//   - StorePath: SQLite file holding persisted credentials.
//   - PollInterval: how often `watch` polls a transaction's status.
//   - LogLevel: debug, info, warn or error.
type Settings struct {
	Config
	StorePath    string
	PollInterval time.Duration
	LogLevel     string
}

// LoadDefaults populates s with sensible defaults.
func (s *Settings) LoadDefaults() {
	s.Environment = Development
	s.Timeout = DefaultTimeout
	s.RetryAttempts = DefaultRetryAttempts
	s.StorePath = "walletlink.db"
	s.PollInterval = 3 * time.Second
	s.LogLevel = "info"
}

// LoadSettings constructs Settings, applies defaults, then overlays values
// from JSON (if present), the environment (including an optional .env file)
// and command-line flags. Later sources take precedence over earlier ones.
func LoadSettings() *Settings {
	s := &Settings{}
	s.LoadDefaults()
	parseJson(s)
	parseEnv(s, osEnv{})
	parseFlags(s)
	return s
}
