package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/dmitrijs2005/walletlink/internal/client/models"
	"github.com/dmitrijs2005/walletlink/internal/common"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// Doer sends one HTTP request. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// makeRequest sends body as JSON to endpoint and returns the decoded
// envelope. A first-attempt session-expired failure triggers one shared
// refresh and a single retry. Whatever it returns as an error is an *Error.
//
// It does not look at the envelope's success flag; callers do.
func (c *Client) makeRequest(ctx context.Context, method, endpoint string, body any) (*models.Envelope, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, newValidationError("request body cannot be encoded", err.Error())
		}
		payload = b
	}

	env, err := c.dispatch(ctx, method, endpoint, payload, true)
	if err != nil {
		return nil, asTyped(err)
	}
	return env, nil
}

func (c *Client) dispatch(ctx context.Context, method, endpoint string, payload []byte, retryOnAuth bool) (*models.Envelope, error) {
	mode := c.currentMode()

	env, err := c.send(ctx, method, endpoint, payload, mode)
	if err == nil || !retryOnAuth {
		return env, err
	}

	apiErr, ok := AsError(err)
	if !ok || apiErr.Reason != ReasonSessionExpired || !c.hasRefreshToken() {
		return nil, err
	}

	c.log.Info(ctx, "session expired, refreshing before retry", "method", method, "endpoint", endpoint)
	if err := c.refreshStale(ctx, sessionTokenOf(mode)); err != nil {
		return nil, err
	}

	return c.dispatch(ctx, method, endpoint, payload, false)
}

// send performs a single round trip with the given credential.
func (c *Client) send(ctx context.Context, method, endpoint string, payload []byte, mode authMode) (*models.Envelope, error) {
	c.mu.Lock()
	url := c.baseURL + endpoint
	appToken := c.cfg.AppToken
	timeout := c.cfg.RequestTimeout()
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, newNetworkError("cannot build request", err)
	}
	req.Header.Set(common.ContentTypeHeaderName, common.JSONContentType)
	mode.apply(req.Header, appToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, mapHTTPError(resp.StatusCode, raw)
	}

	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		e := newNetworkError("response is not valid JSON", err)
		e.Code = CodeInvalidResponse
		e.StatusCode = resp.StatusCode
		return nil, e
	}
	return &env, nil
}

// call runs makeRequest and decodes the envelope's data into T. A response
// with success=false or without data becomes a client error tagged code.
func call[T any](ctx context.Context, c *Client, method, endpoint string, body any, code string) (*T, error) {
	env, err := c.makeRequest(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	return decodeData[T](env, code)
}

func decodeData[T any](env *models.Envelope, code string) (*T, error) {
	if !env.Success {
		msg := env.Reason()
		if msg == "" {
			msg = "request was not successful"
		}
		return nil, newClientError(msg, code, http.StatusOK, env.Details)
	}
	if !env.HasData() {
		return nil, newClientError("response contained no data", code, http.StatusOK, nil)
	}

	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		e := newNetworkError("response data has an unexpected shape", err)
		e.Code = CodeInvalidResponse
		return nil, e
	}
	return &out, nil
}
