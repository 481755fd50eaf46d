package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/walletlink/internal/client/models"
	"github.com/dmitrijs2005/walletlink/internal/common"
)

// refreshFlight is one in-progress refresh. done is closed once err is set
// and the new tokens (if any) are in place.
type refreshFlight struct {
	done chan struct{}
	err  error
}

// RefreshSessionToken exchanges the held refresh token for a new token
// pair. Concurrent callers share a single network call and its outcome.
func (c *Client) RefreshSessionToken(ctx context.Context) error {
	return c.joinRefresh(ctx, false, "")
}

// refreshStale is the dispatch path: stale is the session token the failed
// request was sent with. If another caller has already rotated it, there
// is nothing to do and the request can be retried right away.
func (c *Client) refreshStale(ctx context.Context, stale string) error {
	return c.joinRefresh(ctx, true, stale)
}

// joinRefresh moves the client from idle to refreshing, or attaches to the
// flight that is already running.
func (c *Client) joinRefresh(ctx context.Context, checkStale bool, stale string) error {
	c.mu.Lock()
	flight := c.refreshing
	if flight == nil {
		if checkStale {
			if current := sessionTokenOf(c.mode); current != "" && current != stale {
				c.mu.Unlock()
				return nil
			}
		}
		if c.refreshToken == "" {
			c.mu.Unlock()
			return newAuthenticationError("no refresh token available", CodeTokenRefresh, http.StatusUnauthorized, ReasonMissingRefreshToken)
		}

		flight = &refreshFlight{done: make(chan struct{})}
		c.refreshing = flight
		refreshToken := c.refreshToken
		c.mu.Unlock()

		// Followers depend on this flight, so the leader's cancellation
		// must not abort it; the request timeout still bounds it.
		c.runRefresh(context.WithoutCancel(ctx), flight, refreshToken)
		return flight.err
	}
	c.mu.Unlock()

	select {
	case <-flight.done:
		return flight.err
	case <-ctx.Done():
		return transportError(ctx.Err())
	}
}

func (c *Client) runRefresh(ctx context.Context, flight *refreshFlight, refreshToken string) {
	defer func() {
		c.mu.Lock()
		c.refreshing = nil
		c.mu.Unlock()
		close(flight.done)
	}()

	c.log.Debug(ctx, "refreshing session token")

	payload, err := json.Marshal(models.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		flight.err = refreshFailed(newValidationError("refresh request cannot be encoded", err.Error()))
		return
	}

	// The session token is the credential that just expired; the refresh
	// call authenticates the application instead.
	env, err := c.send(ctx, http.MethodPost, common.EndpointConnectionRefresh, payload, appTokenMode{})
	if err != nil {
		flight.err = refreshFailed(err)
		c.log.Warn(ctx, "session refresh failed", "error", err)
		return
	}

	pair, err := decodeData[models.TokenPair](env, CodeTokenRefresh)
	if err == nil && pair.SessionToken == "" {
		err = newClientError("refresh response has no session token", CodeTokenRefresh, http.StatusOK, nil)
	}
	if err != nil {
		flight.err = refreshFailed(err)
		c.log.Warn(ctx, "session refresh failed", "error", err)
		return
	}

	c.mu.Lock()
	c.mode = sessionMode{token: pair.SessionToken}
	if pair.RefreshToken != "" {
		c.refreshToken = pair.RefreshToken
	}
	c.mu.Unlock()

	c.log.Info(ctx, "session token refreshed")
}

// refreshFailed reports any refresh failure as an authentication error,
// keeping the underlying error reachable through Unwrap.
func refreshFailed(cause error) *Error {
	msg := "session refresh failed"
	status := http.StatusUnauthorized
	if e, ok := AsError(cause); ok {
		msg += ": " + e.Message
		if e.StatusCode >= http.StatusBadRequest {
			status = e.StatusCode
		}
	}
	err := newAuthenticationError(msg, CodeTokenRefresh, status, ReasonRefreshFailed)
	err.Err = cause
	return err
}
