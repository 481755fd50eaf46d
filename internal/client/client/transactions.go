package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/walletlink/internal/client/models"
	"github.com/dmitrijs2005/walletlink/internal/common"
)

// SendTransaction submits a regular relay transaction. The returned record
// is awaiting confirmation; its code is confirmed out of band.
func (c *Client) SendTransaction(ctx context.Context, req models.TransactionRequest) (*models.Transaction, error) {
	if err := validateTransfer(req.ConnectionID, req.To); err != nil {
		return nil, err
	}
	return call[models.Transaction](ctx, c, http.MethodPost, common.EndpointTransactionSend, req, CodeTransactionSend)
}

// SendGaslessTransaction submits a sponsored transaction.
func (c *Client) SendGaslessTransaction(ctx context.Context, req models.GaslessTransactionRequest) (*models.Transaction, error) {
	if err := validateTransfer(req.ConnectionID, req.To); err != nil {
		return nil, err
	}
	return call[models.Transaction](ctx, c, http.MethodPost, common.EndpointTransactionGasless, req, CodeGaslessTransaction)
}

// ConfirmTransaction posts the confirmation code for a transaction.
func (c *Client) ConfirmTransaction(ctx context.Context, transactionID, confirmationCode string) (*models.Transaction, error) {
	transactionID = strings.TrimSpace(transactionID)
	confirmationCode = strings.TrimSpace(confirmationCode)
	switch {
	case transactionID == "":
		return nil, newValidationError("transaction id is required", nil)
	case confirmationCode == "":
		return nil, newValidationError("confirmation code is required", nil)
	}

	req := models.ConfirmRequest{TransactionID: transactionID, ConfirmationCode: confirmationCode}
	return call[models.Transaction](ctx, c, http.MethodPost, common.EndpointTransactionConfirm, req, CodeTransactionConfirm)
}

// GetTransactionStatus fetches a transaction once. Callers poll it until
// Status.IsTerminal.
func (c *Client) GetTransactionStatus(ctx context.Context, transactionID string) (*models.Transaction, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, newValidationError("transaction id is required", nil)
	}
	endpoint := common.EndpointTransactions + url.PathEscape(transactionID) + "/status"
	return call[models.Transaction](ctx, c, http.MethodGet, endpoint, nil, CodeTransactionStatus)
}

// GetTransactionHistory lists transactions matching filters.
func (c *Client) GetTransactionHistory(ctx context.Context, filters models.HistoryFilters) ([]models.Transaction, error) {
	endpoint := withQuery(common.EndpointTransactionHistory, filters.Query())
	txs, err := call[[]models.Transaction](ctx, c, http.MethodGet, endpoint, nil, CodeTransactionHistory)
	if err != nil {
		return nil, err
	}
	return *txs, nil
}

// GetBalance fetches the balance of the wallet behind a connection.
func (c *Client) GetBalance(ctx context.Context, q models.BalanceQuery) (*models.Balance, error) {
	if strings.TrimSpace(q.ConnectionID) == "" {
		return nil, newValidationError("connection id is required", nil)
	}
	endpoint := withQuery(common.EndpointTransactionBalance, q.Query())
	return call[models.Balance](ctx, c, http.MethodGet, endpoint, nil, CodeBalanceFetch)
}

func validateTransfer(connectionID, to string) error {
	switch {
	case strings.TrimSpace(connectionID) == "":
		return newValidationError("connection id is required", nil)
	case strings.TrimSpace(to) == "":
		return newValidationError("destination address is required", nil)
	}
	return nil
}

func withQuery(endpoint string, q url.Values) string {
	if len(q) == 0 {
		return endpoint
	}
	return endpoint + "?" + q.Encode()
}
