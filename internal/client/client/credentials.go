package client

import (
	"net/http"

	"github.com/dmitrijs2005/walletlink/internal/common"
)

// authMode is the credential a request is sent with. Exactly one mode is
// active at a time: appTokenMode until a session token is known, then
// sessionMode.
type authMode interface {
	apply(h http.Header, appToken string)
}

type appTokenMode struct{}

func (appTokenMode) apply(h http.Header, appToken string) {
	h.Set(common.AppTokenHeaderName, appToken)
}

type sessionMode struct {
	token string
}

func (m sessionMode) apply(h http.Header, _ string) {
	h.Set(common.AuthorizationHeaderName, common.BearerPrefix+m.token)
}

func modeFor(sessionToken string) authMode {
	if sessionToken == "" {
		return appTokenMode{}
	}
	return sessionMode{token: sessionToken}
}

func sessionTokenOf(m authMode) string {
	if s, ok := m.(sessionMode); ok {
		return s.token
	}
	return ""
}

// SessionToken returns the current session token, or "" in app-token mode.
func (c *Client) SessionToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sessionTokenOf(c.mode)
}

// SetSessionToken switches to session mode. An empty token switches back to
// app-token mode. The refresh token is left as is.
func (c *Client) SetSessionToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = modeFor(token)
}

// RefreshToken returns the held refresh token, or "" if there is none.
func (c *Client) RefreshToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshToken
}

// SetRefreshToken replaces the refresh token without changing the mode.
func (c *Client) SetRefreshToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshToken = token
}

// SetTokens restores both credentials at once, e.g. from a persisted store.
func (c *Client) SetTokens(sessionToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = modeFor(sessionToken)
	c.refreshToken = refreshToken
}

// ClearSessionToken returns to app-token mode and keeps the refresh token.
func (c *Client) ClearSessionToken() {
	c.SetSessionToken("")
}

// ClearTokens drops both credentials and returns to app-token mode.
func (c *Client) ClearTokens() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = appTokenMode{}
	c.refreshToken = ""
}

// IsUsingSessionToken reports whether requests carry the bearer session token.
func (c *Client) IsUsingSessionToken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.mode.(sessionMode)
	return ok
}

func (c *Client) currentMode() authMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Client) hasRefreshToken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshToken != ""
}
