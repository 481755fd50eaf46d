package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/walletlink/internal/client/models"
	"github.com/dmitrijs2005/walletlink/internal/common"
)

// RequestConnection starts a connection for phoneNumber. The backend sends
// an OTP to the phone and returns the pending connection.
func (c *Client) RequestConnection(ctx context.Context, phoneNumber string, metadata map[string]any) (*models.Connection, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" {
		return nil, newValidationError("phone number is required", nil)
	}

	req := models.ConnectionRequest{PhoneNumber: phoneNumber, Metadata: metadata}
	return call[models.Connection](ctx, c, http.MethodPost, common.EndpointConnectionRequest, req, CodeConnectionRequest)
}

// RegisterAccount creates the underlying account for a phone number that
// has none yet, and returns the server's message.
func (c *Client) RegisterAccount(ctx context.Context, firstName, lastName, phoneNumber string) (string, error) {
	req := models.RegisterRequest{
		FirstName:   strings.TrimSpace(firstName),
		LastName:    strings.TrimSpace(lastName),
		PhoneNumber: strings.TrimSpace(phoneNumber),
	}
	switch {
	case req.FirstName == "", req.LastName == "":
		return "", newValidationError("first and last name are required", nil)
	case req.PhoneNumber == "":
		return "", newValidationError("phone number is required", nil)
	}

	env, err := c.makeRequest(ctx, http.MethodPost, common.EndpointConnectionRegister, req)
	if err != nil {
		return "", err
	}

	// Older servers put the message on the envelope instead of in data.
	if env.Success && !env.HasData() && env.Message != "" {
		return env.Message, nil
	}
	res, err := decodeData[models.RegisterResult](env, CodeRegistration)
	if err != nil {
		return "", err
	}
	if res.Message == "" {
		return env.Message, nil
	}
	return res.Message, nil
}

// VerifyOTP submits the one-time password for a connection. Any session or
// refresh token in the response is stored, which moves the client into
// session mode. The connection is returned whatever its status.
func (c *Client) VerifyOTP(ctx context.Context, connectionID, otp string) (*models.Connection, error) {
	connectionID = strings.TrimSpace(connectionID)
	otp = strings.TrimSpace(otp)
	switch {
	case connectionID == "":
		return nil, newValidationError("connection id is required", nil)
	case otp == "":
		return nil, newValidationError("otp is required", nil)
	}

	req := models.VerifyRequest{ConnectionID: connectionID, OTP: otp}
	conn, err := call[models.Connection](ctx, c, http.MethodPost, common.EndpointConnectionVerify, req, CodeOTPVerification)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if conn.SessionToken != "" {
		c.mode = sessionMode{token: conn.SessionToken}
	}
	if conn.RefreshToken != "" {
		c.refreshToken = conn.RefreshToken
	}
	c.mu.Unlock()

	if conn.SessionToken != "" {
		c.log.Info(ctx, "connection verified, using session token", "connection_id", conn.ID)
	}
	return conn, nil
}

// GetConnectionByID fetches a connection's current state.
func (c *Client) GetConnectionByID(ctx context.Context, connectionID string) (*models.Connection, error) {
	connectionID = strings.TrimSpace(connectionID)
	if connectionID == "" {
		return nil, newValidationError("connection id is required", nil)
	}
	endpoint := common.EndpointConnections + url.PathEscape(connectionID)
	return call[models.Connection](ctx, c, http.MethodGet, endpoint, nil, CodeConnectionFetch)
}

// CheckConnectionStatus reports whether phoneNumber has an active connection.
func (c *Client) CheckConnectionStatus(ctx context.Context, phoneNumber string) (*models.ConnectionCheck, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if phoneNumber == "" {
		return nil, newValidationError("phone number is required", nil)
	}
	q := url.Values{}
	q.Set("phoneNumber", phoneNumber)
	endpoint := common.EndpointConnectionStatus + "?" + q.Encode()
	return call[models.ConnectionCheck](ctx, c, http.MethodGet, endpoint, nil, CodeConnectionStatus)
}
