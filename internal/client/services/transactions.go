package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/walletlink/internal/client/client"
	"github.com/dmitrijs2005/walletlink/internal/client/models"
)

// connectionID returns the approved connection, or ErrNotConnected when
// there is none or the client is not in session mode.
func (w *walletService) connectionID() (string, error) {
	w.mu.Lock()
	st := w.state
	w.mu.Unlock()
	if !st.Connected || st.ConnectionID == "" || !w.api.IsUsingSessionToken() {
		return "", ErrNotConnected
	}
	return st.ConnectionID, nil
}

// Send relays a regular transaction over the current connection.
func (w *walletService) Send(ctx context.Context, req models.TransactionRequest) (*models.Transaction, error) {
	id, err := w.connectionID()
	if err != nil {
		return nil, err
	}
	req.ConnectionID = id
	return withTokenSync(ctx, w, func() (*models.Transaction, error) {
		return w.api.SendTransaction(ctx, req)
	})
}

// SendGasless relays a sponsored transaction over the current connection.
func (w *walletService) SendGasless(ctx context.Context, req models.GaslessTransactionRequest) (*models.Transaction, error) {
	id, err := w.connectionID()
	if err != nil {
		return nil, err
	}
	req.ConnectionID = id
	return withTokenSync(ctx, w, func() (*models.Transaction, error) {
		return w.api.SendGaslessTransaction(ctx, req)
	})
}

func (w *walletService) Confirm(ctx context.Context, transactionID, code string) (*models.Transaction, error) {
	return withTokenSync(ctx, w, func() (*models.Transaction, error) {
		return w.api.ConfirmTransaction(ctx, transactionID, code)
	})
}

func (w *walletService) Transaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	return withTokenSync(ctx, w, func() (*models.Transaction, error) {
		return w.api.GetTransactionStatus(ctx, transactionID)
	})
}

// WaitForTransaction polls the transaction every interval until it reaches
// a terminal status. onUpdate, if set, sees every status change. Up to
// Config.PollRetries consecutive network errors are tolerated; any other
// error ends the wait.
func (w *walletService) WaitForTransaction(ctx context.Context, transactionID string, interval time.Duration, onUpdate func(*models.Transaction)) (*models.Transaction, error) {
	if interval <= 0 {
		interval = time.Second
	}
	retries := w.api.Config().PollRetries()

	var (
		last     models.TransactionStatus
		failures int
	)
	for {
		tx, err := w.Transaction(ctx, transactionID)
		switch {
		case err == nil:
			failures = 0
			if tx.Status != last {
				last = tx.Status
				if onUpdate != nil {
					onUpdate(tx)
				}
			}
			if tx.Status.IsTerminal() {
				return tx, nil
			}
		case errors.Is(err, client.ErrNetwork) && failures < retries:
			failures++
		default:
			return nil, err
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// History lists transactions. Without an explicit connection filter it
// defaults to the current connection, if any.
func (w *walletService) History(ctx context.Context, filters models.HistoryFilters) ([]models.Transaction, error) {
	if filters.ConnectionID == "" && filters.PhoneNumber == "" {
		w.mu.Lock()
		filters.ConnectionID = w.state.ConnectionID
		w.mu.Unlock()
	}
	return withTokenSync(ctx, w, func() ([]models.Transaction, error) {
		return w.api.GetTransactionHistory(ctx, filters)
	})
}

// Balance returns the balance of the connected wallet.
func (w *walletService) Balance(ctx context.Context, tokenAddress string, chainID int64) (*models.Balance, error) {
	id, err := w.connectionID()
	if err != nil {
		return nil, err
	}
	q := models.BalanceQuery{ConnectionID: id, TokenAddress: tokenAddress, ChainID: chainID}
	return withTokenSync(ctx, w, func() (*models.Balance, error) {
		return w.api.GetBalance(ctx, q)
	})
}
