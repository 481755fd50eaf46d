package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func mapEnv(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadFrom_Defaults(t *testing.T) {
	c := LoadFrom(mapEnv(nil))

	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "/api/v1", c.BasePath)
	assert.Equal(t, []string{"dev-app-token"}, c.AppTokens)
	assert.Nil(t, c.AllowedIPs)
	assert.Equal(t, 30*time.Minute, c.SessionTTL)
	assert.Equal(t, 3, c.MaxOTPAttempts)
	assert.Equal(t, "123456", c.DevOTP)
}

func TestLoadFrom_Overrides(t *testing.T) {
	c := LoadFrom(mapEnv(map[string]string{
		"SANDBOX_PORT":        "9090",
		"SANDBOX_APP_TOKENS":  "a, b,,c",
		"SANDBOX_ALLOWED_IPS": "127.0.0.1",
		"SANDBOX_SESSION_TTL": "90s",
		"SANDBOX_RATE_LIMIT":  "5",
		"SANDBOX_BCRYPT_COST": "not-a-number",
	}))

	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, []string{"a", "b", "c"}, c.AppTokens)
	assert.Equal(t, []string{"127.0.0.1"}, c.AllowedIPs)
	assert.Equal(t, 90*time.Second, c.SessionTTL)
	assert.Equal(t, 5, c.RateLimit)
	assert.Equal(t, 10, c.BcryptCost)
}
