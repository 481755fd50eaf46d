package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/walletlink/internal/client/models"
	"github.com/dmitrijs2005/walletlink/internal/common"
)

// Kind is the top-level classification of an SDK error.
type Kind int

const (
	// KindClient is a generic, code-tagged failure: an application-level
	// error in an otherwise successful exchange, or a non-auth HTTP error.
	KindClient Kind = iota
	KindValidation
	KindAuthentication
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindNetwork:
		return "network"
	default:
		return "client"
	}
}

// Reason refines a Kind where the client itself needs to branch on it.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonSessionExpired
	ReasonIPNotWhitelisted
	ReasonMissingRefreshToken
	ReasonRefreshFailed
	ReasonTimeout
)

// Error codes attached to SDK errors.
const (
	CodeValidation       = common.CodeValidation
	CodeAuthentication   = "AUTHENTICATION_ERROR"
	CodeSessionExpired   = common.CodeSessionExpired
	CodeIPNotWhitelisted = common.CodeIPNotWhitelisted
	CodeRateLimited      = common.CodeRateLimited
	CodeNetwork          = "NETWORK_ERROR"
	CodeTimeout          = "TIMEOUT_ERROR"
	CodeInvalidResponse  = "INVALID_RESPONSE"
	CodeAPI              = "API_ERROR"
	CodeTokenRefresh     = "TOKEN_REFRESH_ERROR"
	CodeNotInitialized   = "SDK_NOT_INITIALIZED"

	CodeConnectionRequest  = "CONNECTION_REQUEST_ERROR"
	CodeRegistration       = "REGISTRATION_ERROR"
	CodeOTPVerification    = "OTP_VERIFICATION_ERROR"
	CodeConnectionFetch    = "CONNECTION_FETCH_ERROR"
	CodeConnectionStatus   = "CONNECTION_STATUS_ERROR"
	CodeTransactionSend    = "TRANSACTION_SEND_ERROR"
	CodeGaslessTransaction = "GASLESS_TRANSACTION_ERROR"
	CodeTransactionConfirm = "TRANSACTION_CONFIRM_ERROR"
	CodeTransactionStatus  = "TRANSACTION_STATUS_ERROR"
	CodeTransactionHistory = "TRANSACTION_HISTORY_ERROR"
	CodeBalanceFetch       = "BALANCE_FETCH_ERROR"
)

// Sentinels matched by (*Error).Is, so callers can write
// errors.Is(err, client.ErrSessionExpired).
var (
	ErrValidation     = errors.New("validation error")
	ErrAuthentication = errors.New("authentication error")
	ErrNetwork        = errors.New("network error")
	ErrSessionExpired = errors.New("session expired")
	ErrRateLimited    = errors.New("rate limited")
)

// Error is the only error type returned by Client operations.
type Error struct {
	Kind       Kind
	Reason     Reason
	Message    string
	Code       string
	StatusCode int
	Details    any
	Err        error
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s error [%s]: %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrAuthentication:
		return e.Kind == KindAuthentication
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrSessionExpired:
		return e.Reason == ReasonSessionExpired
	case ErrRateLimited:
		return e.Code == CodeRateLimited
	}
	return false
}

// AsError unwraps err to *Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func newValidationError(msg string, details any) *Error {
	return &Error{Kind: KindValidation, Message: msg, Code: CodeValidation, StatusCode: http.StatusBadRequest, Details: details}
}

func newAuthenticationError(msg, code string, status int, reason Reason) *Error {
	if code == "" {
		code = CodeAuthentication
	}
	if status == 0 {
		status = http.StatusUnauthorized
	}
	return &Error{Kind: KindAuthentication, Reason: reason, Message: msg, Code: code, StatusCode: status}
}

func newNetworkError(msg string, cause error) *Error {
	e := &Error{Kind: KindNetwork, Message: msg, Code: CodeNetwork, Err: cause}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

func newClientError(msg, code string, status int, details any) *Error {
	if code == "" {
		code = CodeAPI
	}
	return &Error{Kind: KindClient, Message: msg, Code: code, StatusCode: status, Details: details}
}

// transportError classifies a failure of the HTTP round trip itself.
func transportError(err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		e := newNetworkError("request timed out", err)
		e.Code = CodeTimeout
		e.Reason = ReasonTimeout
		return e
	case errors.Is(err, context.Canceled):
		return newNetworkError("request cancelled", err)
	default:
		return newNetworkError("network request failed: "+err.Error(), err)
	}
}

// asTyped guarantees the SDK never hands out an untyped error.
func asTyped(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsError(err); ok {
		return err
	}
	return newNetworkError(err.Error(), err)
}

// mapHTTPError turns a non-2xx response into an *Error. The body may be an
// envelope, some other JSON, or not JSON at all.
func mapHTTPError(status int, body []byte) *Error {
	var env models.Envelope
	_ = json.Unmarshal(body, &env)

	msg := env.Reason()
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch status {
	case http.StatusUnauthorized:
		reason := ReasonNone
		code := env.Code
		if isExpirySignal(env.Code, msg) {
			reason = ReasonSessionExpired
			code = CodeSessionExpired
		}
		return newAuthenticationError(msg, code, status, reason)
	case http.StatusBadRequest:
		e := newValidationError(msg, env.Details)
		if env.Code != "" {
			e.Code = env.Code
		}
		return e
	case http.StatusForbidden:
		code := env.Code
		if code == "" {
			code = CodeIPNotWhitelisted
		}
		return newAuthenticationError(msg, code, status, ReasonIPNotWhitelisted)
	case http.StatusTooManyRequests:
		return newClientError(msg, CodeRateLimited, status, env.Details)
	default:
		return newClientError(msg, env.Code, status, env.Details)
	}
}

// isExpirySignal decides whether a 401 means "session expired". Servers send
// the SESSION_EXPIRED code; a bare message mentioning expiry is accepted only
// when no code was given.
func isExpirySignal(code, msg string) bool {
	if code == CodeSessionExpired {
		return true
	}
	return code == "" && strings.Contains(strings.ToLower(msg), "expired")
}
