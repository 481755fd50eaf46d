// Package services contains the application services of the walletlink CLI.
// The wallet service sits between the REPL and the session client: it keeps
// track of the current connection, persists credentials in the local
// metadata store and enforces that transactions are only sent over an
// approved connection.
//
// Stored tokens are sealed with AES-GCM under a key derived from the app
// token and a per-store salt.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/walletlink/internal/client/config"
	"github.com/dmitrijs2005/walletlink/internal/client/models"
	"github.com/dmitrijs2005/walletlink/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/walletlink/internal/cryptox"
	"github.com/dmitrijs2005/walletlink/internal/dbx"
)

var (
	// ErrNotConnected is returned by operations that need an approved
	// connection and a session token.
	ErrNotConnected = errors.New("wallet is not connected")
	// ErrNoPendingConnection is returned by Verify before Connect.
	ErrNoPendingConnection = errors.New("no pending connection, request one first")
)

// Metadata keys of the persisted session.
const (
	keySessionToken      = "session_token"
	keyRefreshToken      = "refresh_token"
	keyConnectionID      = "connection_id"
	keyPhoneNumber       = "phone_number"
	keyPendingConnection = "pending_connection_id"
	keyTokenSalt         = "token_salt"
)

// API is the part of the session client the wallet service uses.
// *client.Client implements it.
type API interface {
	Config() config.Config

	RequestConnection(ctx context.Context, phoneNumber string, metadata map[string]any) (*models.Connection, error)
	RegisterAccount(ctx context.Context, firstName, lastName, phoneNumber string) (string, error)
	VerifyOTP(ctx context.Context, connectionID, otp string) (*models.Connection, error)
	CheckConnectionStatus(ctx context.Context, phoneNumber string) (*models.ConnectionCheck, error)

	SendTransaction(ctx context.Context, req models.TransactionRequest) (*models.Transaction, error)
	SendGaslessTransaction(ctx context.Context, req models.GaslessTransactionRequest) (*models.Transaction, error)
	ConfirmTransaction(ctx context.Context, transactionID, confirmationCode string) (*models.Transaction, error)
	GetTransactionStatus(ctx context.Context, transactionID string) (*models.Transaction, error)
	GetTransactionHistory(ctx context.Context, filters models.HistoryFilters) ([]models.Transaction, error)
	GetBalance(ctx context.Context, q models.BalanceQuery) (*models.Balance, error)

	SessionToken() string
	RefreshToken() string
	SetTokens(sessionToken, refreshToken string)
	ClearTokens()
	IsUsingSessionToken() bool
}

// State is what the wallet service knows about the current session.
type State struct {
	PhoneNumber         string
	ConnectionID        string
	PendingConnectionID string
	Connected           bool
}

// WalletService is used by the CLI commands.
//
// Every method that talks to the backend writes rotated credentials back to
// the local store before returning, so a later run resumes the session.
type WalletService interface {
	Restore(ctx context.Context) (State, error)
	State() State

	Connect(ctx context.Context, phoneNumber string, metadata map[string]any) (*models.Connection, error)
	Register(ctx context.Context, firstName, lastName, phoneNumber string) (string, error)
	Verify(ctx context.Context, otp string) (*models.Connection, error)
	Status(ctx context.Context) (*models.ConnectionCheck, error)

	Send(ctx context.Context, req models.TransactionRequest) (*models.Transaction, error)
	SendGasless(ctx context.Context, req models.GaslessTransactionRequest) (*models.Transaction, error)
	Confirm(ctx context.Context, transactionID, code string) (*models.Transaction, error)
	Transaction(ctx context.Context, transactionID string) (*models.Transaction, error)
	WaitForTransaction(ctx context.Context, transactionID string, interval time.Duration, onUpdate func(*models.Transaction)) (*models.Transaction, error)
	History(ctx context.Context, filters models.HistoryFilters) ([]models.Transaction, error)
	Balance(ctx context.Context, tokenAddress string, chainID int64) (*models.Balance, error)

	Logout(ctx context.Context) error
}

type walletService struct {
	api API
	db  *sql.DB

	mu    sync.Mutex
	state State
	// last persisted credentials, to skip writes when nothing rotated
	savedSession string
	savedRefresh string
	key          []byte // derived sealing key, cached
}

// NewWalletService binds a wallet service to a session client and the
// local credential store.
func NewWalletService(api API, db *sql.DB) WalletService {
	return &walletService{api: api, db: db}
}

func (w *walletService) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(w.db)
}

// applyMetadata writes entries atomically.
func (w *walletService) applyMetadata(ctx context.Context, entries metadata.Entries) error {
	return dbx.WithTx(ctx, w.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).Apply(ctx, entries)
	})
}

// Restore loads persisted credentials into the client. Missing keys simply
// leave the client in app-token mode.
func (w *walletService) Restore(ctx context.Context) (State, error) {
	stored, err := w.getMetadataRepo().Load(ctx)
	if err != nil {
		return State{}, fmt.Errorf("load session: %w", err)
	}

	// Tokens sealed under another app token cannot be opened; the session
	// then starts over in app-token mode.
	var session, refresh string
	if salt := stored[keyTokenSalt]; len(salt) > 0 {
		key := w.deriveKey(salt)
		s, serr := openToken(stored[keySessionToken], key)
		r, rerr := openToken(stored[keyRefreshToken], key)
		if serr == nil && rerr == nil {
			session, refresh = s, r
		}
	}
	w.api.SetTokens(session, refresh)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.savedSession, w.savedRefresh = session, refresh
	w.state = State{
		PhoneNumber:         string(stored[keyPhoneNumber]),
		ConnectionID:        string(stored[keyConnectionID]),
		PendingConnectionID: string(stored[keyPendingConnection]),
	}
	w.state.Connected = w.state.ConnectionID != "" && session != ""
	return w.state, nil
}

func (w *walletService) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Logout drops the session from the client and from the store.
func (w *walletService) Logout(ctx context.Context) error {
	w.api.ClearTokens()

	w.mu.Lock()
	w.state = State{}
	w.savedSession, w.savedRefresh = "", ""
	w.key = nil
	w.mu.Unlock()

	if err := w.getMetadataRepo().Purge(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// saveTokens persists the client's credentials if they changed since the
// last write. A refresh inside any call can rotate them.
func (w *walletService) saveTokens(ctx context.Context) error {
	session, refresh := w.api.SessionToken(), w.api.RefreshToken()

	w.mu.Lock()
	unchanged := session == w.savedSession && refresh == w.savedRefresh
	w.mu.Unlock()
	if unchanged {
		return nil
	}

	err := dbx.WithTx(ctx, w.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		key, err := w.sealingKey(ctx, repo)
		if err != nil {
			return err
		}
		sealedSession, err := sealToken(session, key)
		if err != nil {
			return err
		}
		sealedRefresh, err := sealToken(refresh, key)
		if err != nil {
			return err
		}
		return repo.Apply(ctx, metadata.Entries{
			keySessionToken: sealedSession,
			keyRefreshToken: sealedRefresh,
		})
	})
	if err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}

	w.mu.Lock()
	w.savedSession, w.savedRefresh = session, refresh
	w.mu.Unlock()
	return nil
}

// withTokenSync runs op and then persists any rotated credentials. An
// operation error wins over a persistence error.
func withTokenSync[T any](ctx context.Context, w *walletService, op func() (T, error)) (T, error) {
	res, err := op()
	if serr := w.saveTokens(ctx); serr != nil && err == nil {
		return res, serr
	}
	return res, err
}

// deriveKey stretches the app token with salt and caches the result.
func (w *walletService) deriveKey(salt []byte) []byte {
	key := cryptox.DeriveMasterKey([]byte(w.api.Config().AppToken), salt)
	w.mu.Lock()
	w.key = key
	w.mu.Unlock()
	return key
}

// sealingKey returns the cached key, creating the store's salt on first use.
func (w *walletService) sealingKey(ctx context.Context, repo metadata.Repository) ([]byte, error) {
	w.mu.Lock()
	key := w.key
	w.mu.Unlock()
	if key != nil {
		return key, nil
	}

	salt, ok, err := repo.Lookup(ctx, keyTokenSalt)
	if err != nil {
		return nil, err
	}
	if !ok || len(salt) == 0 {
		if salt, err = cryptox.NewSalt(); err != nil {
			return nil, err
		}
		if err := repo.Apply(ctx, metadata.Entries{keyTokenSalt: salt}); err != nil {
			return nil, err
		}
	}
	return w.deriveKey(salt), nil
}

// sealToken returns nil for an empty token so that Apply removes its key.
func sealToken(token string, key []byte) ([]byte, error) {
	if token == "" {
		return nil, nil
	}
	return cryptox.Seal([]byte(token), key)
}

func openToken(sealed, key []byte) (string, error) {
	if len(sealed) == 0 {
		return "", nil
	}
	plain, err := cryptox.Open(sealed, key)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
