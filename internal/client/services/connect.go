package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/walletlink/internal/client/models"
	"github.com/dmitrijs2005/walletlink/internal/client/repositories/metadata"
)

// Connect requests a connection for phoneNumber and remembers it as the
// pending connection that Verify will complete.
func (w *walletService) Connect(ctx context.Context, phoneNumber string, meta map[string]any) (*models.Connection, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	conn, err := withTokenSync(ctx, w, func() (*models.Connection, error) {
		return w.api.RequestConnection(ctx, phoneNumber, meta)
	})
	if err != nil {
		return nil, err
	}

	err = w.applyMetadata(ctx, metadata.Entries{
		keyPendingConnection: []byte(conn.ID),
		keyPhoneNumber:       []byte(phoneNumber),
	})
	if err != nil {
		return nil, fmt.Errorf("save pending connection: %w", err)
	}

	w.mu.Lock()
	w.state.PendingConnectionID = conn.ID
	w.state.PhoneNumber = phoneNumber
	w.mu.Unlock()
	return conn, nil
}

// Register creates the account behind a phone number.
func (w *walletService) Register(ctx context.Context, firstName, lastName, phoneNumber string) (string, error) {
	return withTokenSync(ctx, w, func() (string, error) {
		return w.api.RegisterAccount(ctx, firstName, lastName, phoneNumber)
	})
}

// Verify completes the pending connection with otp. On approval the
// connection becomes current and the session is persisted. A rejected or
// expired connection is forgotten; a still-pending one can be retried.
func (w *walletService) Verify(ctx context.Context, otp string) (*models.Connection, error) {
	w.mu.Lock()
	pending := w.state.PendingConnectionID
	phone := w.state.PhoneNumber
	w.mu.Unlock()
	if pending == "" {
		return nil, ErrNoPendingConnection
	}

	conn, err := withTokenSync(ctx, w, func() (*models.Connection, error) {
		return w.api.VerifyOTP(ctx, pending, otp)
	})
	if err != nil {
		return nil, err
	}

	switch conn.Status {
	case models.ConnectionApproved:
		if conn.PhoneNumber != "" {
			phone = conn.PhoneNumber
		}
		err = w.applyMetadata(ctx, metadata.Entries{
			keyConnectionID:      []byte(conn.ID),
			keyPhoneNumber:       []byte(phone),
			keyPendingConnection: nil,
		})
		if err != nil {
			return nil, fmt.Errorf("save connection: %w", err)
		}

		w.mu.Lock()
		w.state = State{PhoneNumber: phone, ConnectionID: conn.ID, Connected: w.api.IsUsingSessionToken()}
		w.mu.Unlock()

	case models.ConnectionRejected, models.ConnectionExpired:
		if err := w.applyMetadata(ctx, metadata.Entries{keyPendingConnection: nil}); err != nil {
			return nil, fmt.Errorf("drop pending connection: %w", err)
		}
		w.mu.Lock()
		w.state.PendingConnectionID = ""
		w.mu.Unlock()
	}
	return conn, nil
}

// Status asks the backend whether the remembered phone number is connected.
func (w *walletService) Status(ctx context.Context) (*models.ConnectionCheck, error) {
	w.mu.Lock()
	phone := w.state.PhoneNumber
	w.mu.Unlock()
	if phone == "" {
		return nil, ErrNotConnected
	}
	return withTokenSync(ctx, w, func() (*models.ConnectionCheck, error) {
		return w.api.CheckConnectionStatus(ctx, phone)
	})
}
