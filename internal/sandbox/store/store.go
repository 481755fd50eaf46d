// Package store is the in-memory state of the sandbox backend: accounts,
// connections with their OTPs, refresh tokens and relayed transactions.
package store

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/walletlink/internal/client/models"
	"github.com/dmitrijs2005/walletlink/internal/common"
	"github.com/dmitrijs2005/walletlink/internal/shared"
)

var (
	ErrAccountExists    = errors.New("account already exists")
	ErrAccountNotFound  = errors.New("no account for this phone number")
	ErrNotPending       = errors.New("connection is not pending")
	ErrWrongConnection  = errors.New("transaction belongs to another connection")
	ErrInvalidCode      = errors.New("invalid confirmation code")
	ErrNotConfirmable   = errors.New("transaction is not awaiting confirmation")
	ErrConfirmationGone = errors.New("confirmation code expired")
)

type Account struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	CreatedAt   time.Time
}

type Options struct {
	Now             func() time.Time
	BcryptCost      int
	MaxOTPAttempts  int
	ConnectionTTL   time.Duration
	ConfirmationTTL time.Duration
	RefreshTTL      time.Duration
	// RandHex fills tx and block hashes; shared.MakeRandHexString by default.
	RandHex         func(size int) (string, error)
}

type connection struct {
	models.Connection
	otpHash []byte
}

type refreshToken struct {
	connectionID string
	expiresAt    time.Time
}

type Store struct {
	mu   sync.Mutex
	opts Options

	accounts    map[string]*Account
	connections map[string]*connection
	refresh     map[string]refreshToken
	txs         map[string]*models.Transaction
	nextBlock   int64
}

func New(opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RandHex == nil {
		opts.RandHex = shared.MakeRandHexString
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.MaxOTPAttempts <= 0 {
		opts.MaxOTPAttempts = 3
	}
	return &Store{
		opts:        opts,
		accounts:    make(map[string]*Account),
		connections: make(map[string]*connection),
		refresh:     make(map[string]refreshToken),
		txs:         make(map[string]*models.Transaction),
		nextBlock:   19_000_000,
	}
}

// GenerateCode returns n random decimal digits.
func GenerateCode(n int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v), nil
}

func (s *Store) CreateAccount(firstName, lastName, phone string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[phone]; ok {
		return nil, ErrAccountExists
	}
	a := &Account{FirstName: firstName, LastName: lastName, PhoneNumber: phone, CreatedAt: s.opts.Now()}
	s.accounts[phone] = a
	cp := *a
	return &cp, nil
}

// RequestConnection opens a pending connection for an existing account.
// Only the bcrypt hash of otp is kept.
func (s *Store) RequestConnection(appID, phone string, metadata map[string]any, otp string) (*models.Connection, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(otp), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash otp: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[phone]; !ok {
		return nil, ErrAccountNotFound
	}

	now := s.opts.Now()
	c := &connection{
		Connection: models.Connection{
			ID:          uuid.NewString(),
			AppID:       appID,
			PhoneNumber: phone,
			Status:      models.ConnectionPending,
			ExpiresAt:   now.Add(s.opts.ConnectionTTL),
			Metadata:    metadata,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		otpHash: hash,
	}
	s.connections[c.ID] = c
	out := c.Connection
	return &out, nil
}

// VerifyOTP checks otp against a pending connection. A wrong code counts an
// attempt; the last allowed failure rejects the connection. A connection
// past its expiry becomes expired. The returned connection carries no
// tokens; the caller issues them for approved connections.
func (s *Store) VerifyOTP(id, otp string) (*models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.connections[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if c.Status != models.ConnectionPending {
		return nil, ErrNotPending
	}

	now := s.opts.Now()
	switch {
	case now.After(c.ExpiresAt):
		c.Status = models.ConnectionExpired
	case bcrypt.CompareHashAndPassword(c.otpHash, []byte(otp)) == nil:
		c.Status = models.ConnectionApproved
		c.otpHash = nil
	default:
		c.OTPAttempts++
		if c.OTPAttempts >= s.opts.MaxOTPAttempts {
			c.Status = models.ConnectionRejected
		}
	}
	c.UpdatedAt = now

	out := c.Connection
	return &out, nil
}

func (s *Store) Connection(id string) (*models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.connections[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := c.Connection
	return &out, nil
}

// ActiveConnection returns the most recently approved connection of phone.
func (s *Store) ActiveConnection(phone string) (*models.Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *connection
	for _, c := range s.connections {
		if c.PhoneNumber != phone || c.Status != models.ConnectionApproved {
			continue
		}
		if best == nil || c.UpdatedAt.After(best.UpdatedAt) {
			best = c
		}
	}
	if best == nil {
		return nil, false
	}
	out := best.Connection
	return &out, true
}

// IssueRefreshToken creates an opaque refresh token for connectionID.
func (s *Store) IssueRefreshToken(connectionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueRefreshLocked(connectionID)
}

func (s *Store) issueRefreshLocked(connectionID string) string {
	token := uuid.NewString()
	s.refresh[token] = refreshToken{connectionID: connectionID, expiresAt: s.opts.Now().Add(s.opts.RefreshTTL)}
	return token
}

// RotateRefreshToken consumes token and returns its connection with a new
// refresh token. A token can be used once.
func (s *Store) RotateRefreshToken(token string) (connectionID, next string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.refresh[token]
	if !ok {
		return "", "", common.ErrInvalidToken
	}
	delete(s.refresh, token)
	if s.opts.Now().After(rt.expiresAt) {
		return "", "", common.ErrRefreshTokenExpired
	}
	return rt.connectionID, s.issueRefreshLocked(rt.connectionID), nil
}

// TransferInput is what a send or gasless request carries.
type TransferInput struct {
	ConnectionID string
	To           string
	Value        string
	Data         string
	ChainID      int64
	Gasless      bool
}

// CreateTransaction records a transaction awaiting confirmation with code.
func (s *Store) CreateTransaction(in TransferInput, code string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.connections[in.ConnectionID]; !ok {
		return nil, common.ErrNotFound
	}

	now := s.opts.Now()
	exp := now.Add(s.opts.ConfirmationTTL)
	chainID := in.ChainID
	if chainID == 0 {
		chainID = 1
	}
	tx := &models.Transaction{
		ID:                    uuid.NewString(),
		ConfirmationCode:      code,
		ConfirmationExpiresAt: &exp,
		Status:                models.TxAwaitingConfirmation,
		ConnectionID:          in.ConnectionID,
		To:                    in.To,
		Value:                 in.Value,
		Data:                  in.Data,
		ChainID:               chainID,
		IsGasless:             in.Gasless,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	s.txs[tx.ID] = tx
	out := *tx
	return &out, nil
}

func (s *Store) ownedTxLocked(id, connectionID string) (*models.Transaction, error) {
	tx, ok := s.txs[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if tx.ConnectionID != connectionID {
		return nil, ErrWrongConnection
	}
	return tx, nil
}

// expireLocked moves an unconfirmed transaction past its deadline to expired.
func (s *Store) expireLocked(tx *models.Transaction, now time.Time) {
	if tx.Status == models.TxAwaitingConfirmation && tx.ConfirmationExpiresAt != nil && now.After(*tx.ConfirmationExpiresAt) {
		tx.Status = models.TxExpired
		tx.UpdatedAt = now
	}
}

func (s *Store) ConfirmTransaction(id, connectionID, code string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.ownedTxLocked(id, connectionID)
	if err != nil {
		return nil, err
	}
	now := s.opts.Now()
	s.expireLocked(tx, now)

	switch {
	case tx.Status == models.TxExpired:
		return nil, ErrConfirmationGone
	case tx.Status != models.TxAwaitingConfirmation:
		return nil, ErrNotConfirmable
	case tx.ConfirmationCode != code:
		return nil, ErrInvalidCode
	}
	tx.Status = models.TxConfirmed
	tx.UpdatedAt = now
	out := *tx
	return &out, nil
}

// AdvanceTransaction reports a transaction's status, moving a confirmed one
// a step further on each call: confirmed, executing, completed. changed
// tells whether this call moved it.
func (s *Store) AdvanceTransaction(id, connectionID string) (tx *models.Transaction, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.ownedTxLocked(id, connectionID)
	if err != nil {
		return nil, false, err
	}
	before := cur.Status
	now := s.opts.Now()
	s.expireLocked(cur, now)

	switch cur.Status {
	case models.TxConfirmed:
		cur.Status = models.TxExecuting
		cur.UpdatedAt = now
	case models.TxExecuting:
		if err := s.completeLocked(cur, now); err != nil {
			return nil, false, err
		}
	}
	out := *cur
	return &out, out.Status != before, nil
}

// completeLocked leaves tx executing when the hashes cannot be generated.
func (s *Store) completeLocked(tx *models.Transaction, now time.Time) error {
	hash, err := s.opts.RandHex(32)
	if err != nil {
		return fmt.Errorf("generate tx hash: %w", err)
	}
	block, err := s.opts.RandHex(32)
	if err != nil {
		return fmt.Errorf("generate block hash: %w", err)
	}

	s.nextBlock++
	tx.Status = models.TxCompleted
	tx.TxHash = "0x" + hash
	tx.BlockHash = "0x" + block
	tx.BlockNumber = s.nextBlock
	tx.From = WalletAddress(tx.ConnectionID)
	tx.GasUsed = "21000"
	tx.EffectiveGasPrice = "1000000000"
	if tx.IsGasless {
		tx.EffectiveGasPrice = "0"
	}
	tx.ExecutedAt = &now
	tx.UpdatedAt = now
	return nil
}

// History returns transactions matching f, newest first.
func (s *Store) History(f models.HistoryFilters) []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	var out []models.Transaction
	for _, tx := range s.txs {
		s.expireLocked(tx, now)
		if f.ConnectionID != "" && tx.ConnectionID != f.ConnectionID {
			continue
		}
		if f.PhoneNumber != "" {
			c, ok := s.connections[tx.ConnectionID]
			if !ok || c.PhoneNumber != f.PhoneNumber {
				continue
			}
		}
		if f.Status != "" && string(tx.Status) != f.Status {
			continue
		}
		out = append(out, *tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []models.Transaction{}
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	if out == nil {
		out = []models.Transaction{}
	}
	return out
}

// WalletAddress derives the sandbox wallet address of a connection.
func WalletAddress(connectionID string) string {
	sum := sha256.Sum256([]byte(connectionID))
	return "0x" + hex.EncodeToString(sum[:20])
}
