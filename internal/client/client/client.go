package client

import (
	"net/http"
	"sync"

	"github.com/dmitrijs2005/walletlink/internal/client/config"
	"github.com/dmitrijs2005/walletlink/internal/logging"
)

// Client is the walletlink session client. It owns its configuration and
// credentials for its whole lifetime; two clients never share state.
//
// A Client is safe for concurrent use.
type Client struct {
	mu           sync.Mutex
	cfg          config.Config
	baseURL      string
	mode         authMode
	refreshToken string
	refreshing   *refreshFlight

	http Doer
	log  logging.Logger
}

// Option customizes a Client at construction.
type Option func(*Client)

// WithHTTPClient replaces the transport, *http.Client by default.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.http = d
		}
	}
}

// WithLogger sets the logger used for refresh and retry events.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New builds a Client in app-token mode. It performs no I/O and fails with
// a validation error when cfg has no app token.
func New(cfg config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, newValidationError("app token is required", err.Error())
	}

	c := &Client{
		cfg:     cfg,
		baseURL: cfg.ResolveBaseURL(),
		mode:    appTokenMode{},
		http:    &http.Client{},
		log:     logging.Nop{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns a copy of the held configuration.
func (c *Client) Config() config.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// BaseURL returns the URL requests are currently sent to.
func (c *Client) BaseURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseURL
}

// UpdateConfig merges u into the configuration. A new BaseURL applies to
// every request issued afterwards. Credentials are not touched.
func (c *Client) UpdateConfig(u config.Update) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged := c.cfg.Merge(u)
	if err := merged.Validate(); err != nil {
		return newValidationError("app token is required", err.Error())
	}
	c.cfg = merged
	if u.BaseURL != nil {
		c.baseURL = merged.ResolveBaseURL()
	}
	return nil
}
