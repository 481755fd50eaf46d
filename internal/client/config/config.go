package config

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/walletlink/internal/common"
)

// Environment selects the default backend when no base URL is given.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

const (
	DefaultTimeout       = 30 * time.Second
	DefaultRetryAttempts = 3
)

// ErrMissingAppToken is returned by Validate when no app token is configured.
var ErrMissingAppToken = errors.New("app token is required")

// Config is the SDK configuration held by a session client.
//
// AppToken is the public application credential and is mandatory. BaseURL,
// when set, overrides the environment default. A zero Timeout means
// DefaultTimeout. RetryAttempts bounds how many consecutive transient
// failures a transaction poller tolerates; request dispatch does not use it.
type Config struct {
	AppToken      string
	BaseURL       string
	Environment   Environment
	Timeout       time.Duration
	RetryAttempts int
}

// Validate reports whether c can be used to build a client.
func (c Config) Validate() error {
	if strings.TrimSpace(c.AppToken) == "" {
		return ErrMissingAppToken
	}
	return nil
}

// ResolveBaseURL returns the explicit BaseURL, else the production URL for
// the production environment, else the development URL.
func (c Config) ResolveBaseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	if c.Environment == Production {
		return common.ProductionBaseURL
	}
	return common.DevelopmentBaseURL
}

// RequestTimeout returns the configured timeout or DefaultTimeout.
func (c Config) RequestTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// PollRetries returns RetryAttempts or DefaultRetryAttempts when unset.
func (c Config) PollRetries() int {
	if c.RetryAttempts <= 0 {
		return DefaultRetryAttempts
	}
	return c.RetryAttempts
}

// Update is a partial Config. Nil fields are left untouched by Merge.
type Update struct {
	AppToken      *string
	BaseURL       *string
	Environment   *Environment
	Timeout       *time.Duration
	RetryAttempts *int
}

// Merge returns a copy of c with the non-nil fields of u applied.
func (c Config) Merge(u Update) Config {
	if u.AppToken != nil {
		c.AppToken = *u.AppToken
	}
	if u.BaseURL != nil {
		c.BaseURL = *u.BaseURL
	}
	if u.Environment != nil {
		c.Environment = *u.Environment
	}
	if u.Timeout != nil {
		c.Timeout = *u.Timeout
	}
	if u.RetryAttempts != nil {
		c.RetryAttempts = *u.RetryAttempts
	}
	return c
}

// ParseEnvironment maps a free-form name onto an Environment. Anything that
// is not "production" (or "prod") is development.
func ParseEnvironment(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return Production
	default:
		return Development
	}
}
