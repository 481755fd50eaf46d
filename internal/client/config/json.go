package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/walletlink/internal/flagx"
	"github.com/dmitrijs2005/walletlink/internal/timex"
)

// JsonSettings is a DTO used exclusively for JSON unmarshalling. Durations
// are timex.Duration so the file may say "30s" or give nanoseconds.
type JsonSettings struct {
	AppToken      string         `json:"app_token"`
	BaseURL       string         `json:"base_url"`
	Environment   string         `json:"environment"`
	Timeout       timex.Duration `json:"timeout"`
	RetryAttempts int            `json:"retry_attempts"`
	StorePath     string         `json:"store_path"`
	PollInterval  timex.Duration `json:"poll_interval"`
	LogLevel      string         `json:"log_level"`
}

// parseJson overlays s with values from the file named by -c/-config.
// Only fields present (non-zero) in the file are applied. It panics on read
// or unmarshal errors.
func parseJson(s *Settings) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var js JsonSettings
	if err := json.Unmarshal(data, &js); err != nil {
		panic(err)
	}

	if js.AppToken != "" {
		s.AppToken = js.AppToken
	}
	if js.BaseURL != "" {
		s.BaseURL = js.BaseURL
	}
	if js.Environment != "" {
		s.Environment = ParseEnvironment(js.Environment)
	}
	if js.Timeout.Duration > 0 {
		s.Timeout = js.Timeout.Duration
	}
	if js.RetryAttempts > 0 {
		s.RetryAttempts = js.RetryAttempts
	}
	if js.StorePath != "" {
		s.StorePath = js.StorePath
	}
	if js.PollInterval.Duration > 0 {
		s.PollInterval = js.PollInterval.Duration
	}
	if js.LogLevel != "" {
		s.LogLevel = js.LogLevel
	}
}
