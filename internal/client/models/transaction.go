package models

import (
	"net/url"
	"strconv"
	"time"
)

// TransactionStatus is the server-side lifecycle state of a relayed
// transaction. The client only observes it.
type TransactionStatus string

const (
	TxAwaitingConfirmation TransactionStatus = "awaiting_confirmation"
	TxConfirmed            TransactionStatus = "confirmed"
	TxExecuting            TransactionStatus = "executing"
	TxCompleted            TransactionStatus = "completed"
	TxFailed               TransactionStatus = "failed"
	TxExpired              TransactionStatus = "expired"
)

// IsTerminal reports whether polling should stop at this status.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TxCompleted, TxFailed, TxExpired:
		return true
	}
	return false
}

// Transaction is the relay record returned by every transaction endpoint.
// Execution fields are empty until the backend has executed it.
type Transaction struct {
	ID                    string            `json:"id"`
	ConfirmationCode      string            `json:"confirmationCode,omitempty"`
	ConfirmationExpiresAt *time.Time        `json:"confirmationExpiresAt,omitempty"`
	Status                TransactionStatus `json:"status"`
	ConnectionID          string            `json:"connectionId"`
	To                    string            `json:"to"`
	Value                 string            `json:"value"`
	Data                  string            `json:"data,omitempty"`
	ChainID               int64             `json:"chainId"`
	IsGasless             bool              `json:"isGasless"`
	CreatedAt             time.Time         `json:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt"`

	TxHash            string     `json:"txHash,omitempty"`
	From              string     `json:"from,omitempty"`
	GasUsed           string     `json:"gasUsed,omitempty"`
	EffectiveGasPrice string     `json:"effectiveGasPrice,omitempty"`
	BlockNumber       int64      `json:"blockNumber,omitempty"`
	BlockHash         string     `json:"blockHash,omitempty"`
	ExecutedAt        *time.Time `json:"executedAt,omitempty"`
}

// TransactionRequest is the body of POST /transactions/send.
// ConnectionID must be supplied by the caller.
type TransactionRequest struct {
	ConnectionID string `json:"connectionId"`
	To           string `json:"to"`
	Value        string `json:"value"`
	Data         string `json:"data,omitempty"`
	ChainID      int64  `json:"chainId,omitempty"`
	GasLimit     string `json:"gasLimit,omitempty"`
}

// GaslessTransactionRequest is the body of POST /transactions/gasless.
type GaslessTransactionRequest struct {
	ConnectionID string `json:"connectionId"`
	To           string `json:"to"`
	Value        string `json:"value"`
	Data         string `json:"data,omitempty"`
	ChainID      int64  `json:"chainId,omitempty"`
}

// ConfirmRequest is the body of POST /transactions/confirm.
type ConfirmRequest struct {
	TransactionID    string `json:"transactionId"`
	ConfirmationCode string `json:"confirmationCode"`
}

// HistoryFilters narrows GET /transactions/history. Zero-valued fields are
// left out of the query string entirely.
type HistoryFilters struct {
	ConnectionID string
	PhoneNumber  string
	Status       string
	Limit        int
	Offset       int
}

// Query encodes the set fields.
func (f HistoryFilters) Query() url.Values {
	q := url.Values{}
	if f.ConnectionID != "" {
		q.Set("connectionId", f.ConnectionID)
	}
	if f.PhoneNumber != "" {
		q.Set("phoneNumber", f.PhoneNumber)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}

// BalanceQuery selects the balance to fetch. TokenAddress empty means the
// native coin; ChainID zero lets the backend pick its default chain.
type BalanceQuery struct {
	ConnectionID string
	TokenAddress string
	ChainID      int64
}

// Query encodes the set fields.
func (b BalanceQuery) Query() url.Values {
	q := url.Values{}
	if b.ConnectionID != "" {
		q.Set("connectionId", b.ConnectionID)
	}
	if b.TokenAddress != "" {
		q.Set("tokenAddress", b.TokenAddress)
	}
	if b.ChainID != 0 {
		q.Set("chainId", strconv.FormatInt(b.ChainID, 10))
	}
	return q
}

// Balance is the data of GET /transactions/balance.
type Balance struct {
	Address      string `json:"address"`
	Balance      string `json:"balance"`
	Formatted    string `json:"formatted,omitempty"`
	Symbol       string `json:"symbol,omitempty"`
	Decimals     int    `json:"decimals"`
	ChainID      int64  `json:"chainId"`
	TokenAddress string `json:"tokenAddress,omitempty"`
}
