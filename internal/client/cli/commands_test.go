package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/walletlink/internal/client/client"
	"github.com/dmitrijs2005/walletlink/internal/client/config"
	"github.com/dmitrijs2005/walletlink/internal/client/models"
	"github.com/dmitrijs2005/walletlink/internal/client/services"
	"github.com/dmitrijs2005/walletlink/internal/common"
	"github.com/dmitrijs2005/walletlink/internal/logging"
)

// fakeWallet implements services.WalletService with canned replies.
type fakeWallet struct {
	state services.State
	err   error

	conn    *models.Connection
	check   *models.ConnectionCheck
	tx      *models.Transaction
	txs     []models.Transaction
	balance *models.Balance

	gotPhone    string
	gotMeta     map[string]any
	gotOTP      string
	gotSend     models.TransactionRequest
	gotGasless  models.GaslessTransactionRequest
	gotHistory  models.HistoryFilters
	gotToken    string
	gotChain    int64
	gotInterval time.Duration
	loggedOut   bool
}

func (f *fakeWallet) Restore(ctx context.Context) (services.State, error) { return f.state, f.err }
func (f *fakeWallet) State() services.State { return f.state }

func (f *fakeWallet) Connect(ctx context.Context, phone string, meta map[string]any) (*models.Connection, error) {
	f.gotPhone, f.gotMeta = phone, meta
	return f.conn, f.err
}

func (f *fakeWallet) Register(ctx context.Context, first, last, phone string) (string, error) {
	return "account created for " + first + " " + last + " " + phone, f.err
}

func (f *fakeWallet) Verify(ctx context.Context, otp string) (*models.Connection, error) {
	f.gotOTP = otp
	return f.conn, f.err
}

func (f *fakeWallet) Status(ctx context.Context) (*models.ConnectionCheck, error) {
	return f.check, f.err
}

func (f *fakeWallet) Send(ctx context.Context, req models.TransactionRequest) (*models.Transaction, error) {
	f.gotSend = req
	return f.tx, f.err
}

func (f *fakeWallet) SendGasless(ctx context.Context, req models.GaslessTransactionRequest) (*models.Transaction, error) {
	f.gotGasless = req
	return f.tx, f.err
}

func (f *fakeWallet) Confirm(ctx context.Context, id, code string) (*models.Transaction, error) {
	return f.tx, f.err
}

func (f *fakeWallet) Transaction(ctx context.Context, id string) (*models.Transaction, error) {
	return f.tx, f.err
}

func (f *fakeWallet) WaitForTransaction(ctx context.Context, id string, interval time.Duration, onUpdate func(*models.Transaction)) (*models.Transaction, error) {
	f.gotInterval = interval
	if f.err != nil {
		return nil, f.err
	}
	onUpdate(&models.Transaction{ID: id, Status: models.TxExecuting})
	onUpdate(f.tx)
	return f.tx, nil
}

func (f *fakeWallet) History(ctx context.Context, filters models.HistoryFilters) ([]models.Transaction, error) {
	f.gotHistory = filters
	return f.txs, f.err
}

func (f *fakeWallet) Balance(ctx context.Context, token string, chainID int64) (*models.Balance, error) {
	f.gotToken, f.gotChain = token, chainID
	return f.balance, f.err
}

func (f *fakeWallet) Logout(ctx context.Context) error {
	f.loggedOut = true
	return f.err
}

func testApp(w *fakeWallet, input string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	s := &config.Settings{}
	s.LoadDefaults()
	return newApp(s, w, nil, logging.Nop{}, strings.NewReader(input), &out), &out
}

func TestConnect_PromptsForPhone(t *testing.T) {
	w := &fakeWallet{conn: &models.Connection{ID: "conn-1", Status: models.ConnectionPending, PhoneNumber: "+233123456789"}}
	app, out := testApp(w, "+233123456789\n")

	require.NoError(t, app.Connect(context.Background(), nil))
	assert.Equal(t, "+233123456789", w.gotPhone)
	assert.Nil(t, w.gotMeta)
	assert.Contains(t, out.String(), "Connection conn-1 is pending")
}

func TestConnect_ArgsAndMetadata(t *testing.T) {
	w := &fakeWallet{conn: &models.Connection{ID: "conn-1", Status: models.ConnectionPending}}
	app, _ := testApp(w, "")

	require.NoError(t, app.Connect(context.Background(), []string{"+1555", "source=cli"}))
	assert.Equal(t, "+1555", w.gotPhone)
	assert.Equal(t, map[string]any{"source": "cli"}, w.gotMeta)

	assert.Error(t, app.Connect(context.Background(), []string{"+1555", "broken"}))
}

func TestRegister_Prompts(t *testing.T) {
	w := &fakeWallet{}
	app, out := testApp(w, "Mensah\n+233123456789\n")

	require.NoError(t, app.Register(context.Background(), []string{"Ama"}))
	assert.Contains(t, out.String(), "account created for Ama Mensah +233123456789")
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		conn    *models.Connection
		args    []string
		want    string
		wantOTP string
	}{
		{"approved", &models.Connection{Status: models.ConnectionApproved, PhoneNumber: "+1"}, []string{"123456"}, "Connected as +1.", "123456"},
		{"still pending", &models.Connection{Status: models.ConnectionPending, OTPAttempts: 2}, []string{"000000"}, "attempt 2", "000000"},
		{"rejected", &models.Connection{Status: models.ConnectionRejected}, []string{"000000"}, "Connection rejected", "000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeWallet{conn: tt.conn}
			app, out := testApp(w, "")
			require.NoError(t, app.Verify(context.Background(), tt.args))
			assert.Contains(t, out.String(), tt.want)
			assert.Equal(t, tt.wantOTP, w.gotOTP)
		})
	}
}

func TestVerify_ReadsOTPWhenMissing(t *testing.T) {
	old := getOTP
	getOTP = func(*bufio.Reader, io.Writer) (string, error) { return "777777", nil }
	t.Cleanup(func() { getOTP = old })

	w := &fakeWallet{conn: &models.Connection{Status: models.ConnectionApproved}}
	app, _ := testApp(w, "")
	require.NoError(t, app.Verify(context.Background(), nil))
	assert.Equal(t, "777777", w.gotOTP)
}

func TestSendAndGasless(t *testing.T) {
	exp := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	w := &fakeWallet{tx: &models.Transaction{ID: "tx-1", Status: models.TxAwaitingConfirmation, ConfirmationCode: "4242", ConfirmationExpiresAt: &exp}}
	app, out := testApp(w, "")
	ctx := context.Background()

	require.NoError(t, app.Send(ctx, []string{"0xabc", "1.5", "137"}))
	assert.Equal(t, models.TransactionRequest{To: "0xabc", Value: "1.5", ChainID: 137}, w.gotSend)
	assert.Contains(t, out.String(), "Confirmation code: 4242")

	require.NoError(t, app.Gasless(ctx, []string{"0xdef", "0"}))
	assert.Equal(t, models.GaslessTransactionRequest{To: "0xdef", Value: "0"}, w.gotGasless)

	assert.ErrorIs(t, app.Send(ctx, []string{"0xabc"}), errUsage)
	assert.Error(t, app.Send(ctx, []string{"0xabc", "1", "mainnet"}))
	assert.ErrorIs(t, app.Confirm(ctx, []string{"tx-1"}), errUsage)
	assert.ErrorIs(t, app.Tx(ctx, nil), errUsage)
	assert.ErrorIs(t, app.Watch(ctx, nil), errUsage)
}

func TestWatch_PrintsUpdates(t *testing.T) {
	w := &fakeWallet{tx: &models.Transaction{ID: "tx-1", Status: models.TxCompleted, TxHash: "0xhash", BlockNumber: 42, GasUsed: "21000"}}
	app, out := testApp(w, "")

	require.NoError(t, app.Watch(context.Background(), []string{"tx-1"}))
	assert.Equal(t, app.settings.PollInterval, w.gotInterval)
	assert.Contains(t, out.String(), "  executing\n  completed\n")
	assert.Contains(t, out.String(), "hash 0xhash  block 42  gas 21000")
}

func TestHistoryAndBalance_ParseArgs(t *testing.T) {
	w := &fakeWallet{
		balance: &models.Balance{Balance: "1000", Formatted: "0.001", Symbol: "ETH", ChainID: 1, Address: "0xme"},
	}
	app, out := testApp(w, "")
	ctx := context.Background()

	require.NoError(t, app.History(ctx, []string{"25", "completed"}))
	assert.Equal(t, models.HistoryFilters{Status: "completed", Limit: 25}, w.gotHistory)
	assert.Contains(t, out.String(), "No transactions.")

	require.NoError(t, app.Balance(ctx, []string{"137", "0xtoken"}))
	assert.Equal(t, "0xtoken", w.gotToken)
	assert.EqualValues(t, 137, w.gotChain)
	assert.Contains(t, out.String(), "0.001 ETH on chain 1 (0xme)")
}

func TestStatusAndLogout(t *testing.T) {
	w := &fakeWallet{check: &models.ConnectionCheck{IsConnected: false}}
	app, out := testApp(w, "")
	ctx := context.Background()

	require.NoError(t, app.Status(ctx, nil))
	assert.Contains(t, out.String(), "Not connected.")

	require.NoError(t, app.Logout(ctx, nil))
	assert.True(t, w.loggedOut)
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"plain", errors.New("boom"), "boom"},
		{"coded", &client.Error{Kind: client.KindClient, Code: client.CodeRateLimited, Message: "slow down"}, "slow down [RATE_LIMIT_EXCEEDED]"},
		{"expired", &client.Error{Kind: client.KindAuthentication, Reason: client.ReasonSessionExpired}, "session expired, run 'logout' and 'connect' again"},
		{"no account", &client.Error{Kind: client.KindClient, Code: common.CodeAccountNotFound, Message: "no account"}, "no account (run 'register' first)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeError(tt.err))
		})
	}
}

func TestGetStatus(t *testing.T) {
	w := &fakeWallet{}
	app, _ := testApp(w, "")
	assert.Empty(t, app.getStatus())

	w.state = services.State{PhoneNumber: "+1", PendingConnectionID: "c"}
	assert.Equal(t, "(+1 pending)", app.getStatus())

	w.state = services.State{PhoneNumber: "+1", ConnectionID: "c", Connected: true}
	assert.Equal(t, "(+1 connected)", app.getStatus())
}
