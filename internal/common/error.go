package common

import "errors"

// Server-side error codes that carry meaning for the client. The sandbox
// emits them and the SDK recognizes them when mapping error bodies.
const (
	CodeSessionExpired   = "SESSION_EXPIRED"
	CodeInvalidToken     = "INVALID_TOKEN"
	CodeInvalidAppToken  = "INVALID_APP_TOKEN"
	CodeIPNotWhitelisted = "IP_NOT_WHITELISTED"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeAccountNotFound  = "ACCOUNT_NOT_FOUND"
)

var (
	ErrNotFound = errors.New("not found")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("session token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrInvalidToken        = errors.New("invalid token")
)
