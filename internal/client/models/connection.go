package models

import "time"

// ConnectionStatus is the lifecycle state of a phone-number connection.
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionApproved ConnectionStatus = "approved"
	ConnectionRejected ConnectionStatus = "rejected"
	ConnectionExpired  ConnectionStatus = "expired"
)

// Connection is one phone-number connection attempt. SessionToken and
// RefreshToken are only populated on the verify response of an approved
// connection.
type Connection struct {
	ID           string           `json:"id"`
	AppID        string           `json:"appId"`
	PhoneNumber  string           `json:"phoneNumber"`
	Status       ConnectionStatus `json:"status"`
	OTPAttempts  int              `json:"otpAttempts"`
	ExpiresAt    time.Time        `json:"expiresAt"`
	Metadata     map[string]any   `json:"metadata,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	SessionToken string           `json:"sessionToken,omitempty"`
	RefreshToken string           `json:"refreshToken,omitempty"`
}

// IsApproved reports whether the connection reached the approved state.
func (c *Connection) IsApproved() bool {
	return c != nil && c.Status == ConnectionApproved
}

// ConnectionRequest is the body of POST /connections/request.
type ConnectionRequest struct {
	PhoneNumber string         `json:"phoneNumber"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// RegisterRequest is the body of POST /connections/register.
type RegisterRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
}

// RegisterResult is the data of a successful registration.
type RegisterResult struct {
	Message string `json:"message"`
}

// VerifyRequest is the body of POST /connections/verify.
type VerifyRequest struct {
	ConnectionID string `json:"connectionId"`
	OTP          string `json:"otp"`
}

// RefreshRequest is the body of POST /connections/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenPair is returned by the refresh endpoint. Both tokens are new; the
// refresh token that was presented is no longer valid.
type TokenPair struct {
	SessionToken string `json:"sessionToken"`
	RefreshToken string `json:"refreshToken"`
}

// ConnectionCheck is the result of GET /connections/check/status.
type ConnectionCheck struct {
	IsConnected bool        `json:"isConnected"`
	Connection  *Connection `json:"connection,omitempty"`
}
