// Package handlers implements the sandbox REST endpoints the walletlink SDK
// talks to.
package handlers

import (
	"github.com/dmitrijs2005/walletlink/internal/logging"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/metrics"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/store"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/tokens"
)

// Error codes specific to the sandbox.
const (
	CodeAccountExists      = "ACCOUNT_EXISTS"
	CodeConnectionNotReady = "CONNECTION_NOT_PENDING"
	CodeConnectionMismatch = "CONNECTION_MISMATCH"
	CodeInvalidCode        = "INVALID_CONFIRMATION_CODE"
	CodeCodeExpired        = "CONFIRMATION_EXPIRED"
	CodeInvalidState       = "INVALID_TRANSACTION_STATE"
	CodeRefreshExpired     = "REFRESH_TOKEN_EXPIRED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Deps is shared by all handlers.
type Deps struct {
	Store   *store.Store
	Issuer  *tokens.Issuer
	Metrics *metrics.Metrics
	Log     logging.Logger
	// DevOTP replaces generated codes when set.
	DevOTP string
}

func (d *Deps) code() (string, error) {
	if d.DevOTP != "" {
		return d.DevOTP, nil
	}
	return store.GenerateCode(6)
}
