package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/walletlink/internal/client/models"
	"github.com/dmitrijs2005/walletlink/internal/common"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/config"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/metrics"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/middleware"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/store"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/tokens"
)

const (
	testAppToken = "test-app-token"
	testOTP      = "123456"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

type harness struct {
	t      *testing.T
	router *gin.Engine
	clock  *testClock
	deps   Deps
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.LoadFrom(func(string) string { return "" })
	cfg.AppTokens = []string{testAppToken}
	cfg.DevOTP = testOTP
	cfg.BcryptCost = bcrypt.MinCost
	cfg.RateLimit = 0
	if mutate != nil {
		mutate(cfg)
	}

	clk := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	t.Cleanup(limiter.Stop)

	deps := Deps{
		Config: cfg,
		Store: store.New(store.Options{
			Now:             clk.now,
			BcryptCost:      cfg.BcryptCost,
			MaxOTPAttempts:  cfg.MaxOTPAttempts,
			ConnectionTTL:   cfg.ConnectionTTL,
			ConfirmationTTL: cfg.ConfirmationTTL,
			RefreshTTL:      cfg.RefreshTTL,
		}),
		Issuer:  &tokens.Issuer{Secret: []byte(cfg.JWTSecret), TTL: cfg.SessionTTL, Now: clk.now},
		Metrics: metrics.New(),
		Limiter: limiter,
	}
	return &harness{t: t, router: NewRouter(deps), clock: clk, deps: deps}
}

type auth func(*http.Request)

func appToken(token string) auth {
	return func(r *http.Request) { r.Header.Set(common.AppTokenHeaderName, token) }
}

func bearer(token string) auth {
	return func(r *http.Request) { r.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token) }
}

func (h *harness) do(method, path string, body any, a auth) (int, envelope) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set(common.ContentTypeHeaderName, common.JSONContentType)
	if a != nil {
		a(req)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// connect registers phone and walks it through to an approved connection.
func (h *harness) connect(phone string) *models.Connection {
	h.t.Helper()
	status, _ := h.do(http.MethodPost, "/connections/register", models.RegisterRequest{FirstName: "Ada", LastName: "Lovelace", PhoneNumber: phone}, appToken(testAppToken))
	require.Equal(h.t, http.StatusCreated, status)

	status, env := h.do(http.MethodPost, "/connections/request", models.ConnectionRequest{PhoneNumber: phone}, appToken(testAppToken))
	require.Equal(h.t, http.StatusCreated, status)
	pending := decode[models.Connection](h.t, env)

	status, env = h.do(http.MethodPost, "/connections/verify", models.VerifyRequest{ConnectionID: pending.ID, OTP: testOTP}, appToken(testAppToken))
	require.Equal(h.t, http.StatusOK, status)
	conn := decode[models.Connection](h.t, env)
	require.Equal(h.t, models.ConnectionApproved, conn.Status)
	require.NotEmpty(h.t, conn.SessionToken)
	require.NotEmpty(h.t, conn.RefreshToken)
	return &conn
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConnectionFlow(t *testing.T) {
	h := newHarness(t, nil)
	app := appToken(testAppToken)
	phone := "+15551234"

	status, env := h.do(http.MethodPost, "/connections/request", models.ConnectionRequest{PhoneNumber: phone}, app)
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, common.CodeAccountNotFound, env.Code)

	status, env = h.do(http.MethodPost, "/connections/register", models.RegisterRequest{FirstName: "Ada", LastName: "Lovelace", PhoneNumber: phone}, app)
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, decode[models.RegisterResult](t, env).Message)

	status, env = h.do(http.MethodPost, "/connections/register", models.RegisterRequest{FirstName: "Ada", LastName: "Lovelace", PhoneNumber: phone}, app)
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ACCOUNT_EXISTS", env.Code)

	status, env = h.do(http.MethodPost, "/connections/request", models.ConnectionRequest{PhoneNumber: phone, Metadata: map[string]any{"device": "test"}}, app)
	require.Equal(t, http.StatusCreated, status)
	pending := decode[models.Connection](t, env)
	assert.Equal(t, models.ConnectionPending, pending.Status)
	assert.Equal(t, "test", pending.Metadata["device"])

	status, env = h.do(http.MethodPost, "/connections/verify", models.VerifyRequest{ConnectionID: pending.ID, OTP: "000000"}, app)
	require.Equal(t, http.StatusOK, status)
	wrong := decode[models.Connection](t, env)
	assert.Equal(t, models.ConnectionPending, wrong.Status)
	assert.Equal(t, 1, wrong.OTPAttempts)
	assert.Empty(t, wrong.SessionToken)

	status, env = h.do(http.MethodPost, "/connections/verify", models.VerifyRequest{ConnectionID: pending.ID, OTP: testOTP}, app)
	require.Equal(t, http.StatusOK, status)
	conn := decode[models.Connection](t, env)
	require.Equal(t, models.ConnectionApproved, conn.Status)

	status, env = h.do(http.MethodGet, "/connections/"+conn.ID, nil, bearer(conn.SessionToken))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, conn.ID, decode[models.Connection](t, env).ID)

	status, env = h.do(http.MethodGet, "/connections/check/status?phoneNumber=%2B15551234", nil, app)
	require.Equal(t, http.StatusOK, status)
	check := decode[models.ConnectionCheck](t, env)
	assert.True(t, check.IsConnected)
	require.NotNil(t, check.Connection)
	assert.Equal(t, conn.ID, check.Connection.ID)
}

func TestConnectionsAreScopedToTheApp(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.AppTokens = []string{testAppToken, "other-app"} })
	conn := h.connect("+15550100")

	status, env := h.do(http.MethodGet, "/connections/"+conn.ID, nil, appToken("other-app"))
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, common.CodeNotFound, env.Code)

	status, env = h.do(http.MethodGet, "/connections/check/status?phoneNumber=%2B15550100", nil, appToken("other-app"))
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decode[models.ConnectionCheck](t, env).IsConnected)
}

func TestValidationErrors(t *testing.T) {
	h := newHarness(t, nil)
	app := appToken(testAppToken)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"register missing names", http.MethodPost, "/connections/register", models.RegisterRequest{PhoneNumber: "+1"}},
		{"request missing phone", http.MethodPost, "/connections/request", models.ConnectionRequest{}},
		{"verify missing otp", http.MethodPost, "/connections/verify", models.VerifyRequest{ConnectionID: "x"}},
		{"status missing phone", http.MethodGet, "/connections/check/status", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := h.do(tt.method, tt.path, tt.body, app)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, common.CodeValidation, env.Code)
		})
	}
}

func TestMissingAppToken(t *testing.T) {
	h := newHarness(t, nil)
	status, env := h.do(http.MethodPost, "/connections/request", models.ConnectionRequest{PhoneNumber: "+1"}, nil)
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, common.CodeInvalidAppToken, env.Code)
}

func TestRefreshRotatesTokens(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect("+15550200")

	status, env := h.do(http.MethodPost, "/connections/refresh", models.RefreshRequest{RefreshToken: conn.RefreshToken}, appToken(testAppToken))
	require.Equal(t, http.StatusOK, status)
	pair := decode[models.TokenPair](t, env)
	assert.NotEmpty(t, pair.SessionToken)
	assert.NotEqual(t, conn.RefreshToken, pair.RefreshToken)

	status, env = h.do(http.MethodPost, "/connections/refresh", models.RefreshRequest{RefreshToken: conn.RefreshToken}, appToken(testAppToken))
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, common.CodeInvalidToken, env.Code)

	status, _ = h.do(http.MethodPost, "/connections/refresh", models.RefreshRequest{RefreshToken: pair.RefreshToken}, bearer(pair.SessionToken))
	assert.Equal(t, http.StatusUnauthorized, status, "refresh authenticates with the app token only")
}

func TestExpiredSession(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect("+15550300")

	h.clock.t = h.clock.t.Add(h.deps.Config.SessionTTL + time.Second)
	status, env := h.do(http.MethodGet, "/transactions/history", nil, bearer(conn.SessionToken))
	require.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, common.CodeSessionExpired, env.Code)
	assert.Equal(t, "Session expired", env.Error)
}

func TestTransactionFlow(t *testing.T) {
	h := newHarness(t, nil)
	conn := h.connect("+15550400")
	session := bearer(conn.SessionToken)

	status, env := h.do(http.MethodPost, "/transactions/send", models.TransactionRequest{ConnectionID: conn.ID, To: "0xdead", Value: "1000"}, session)
	require.Equal(t, http.StatusCreated, status)
	tx := decode[models.Transaction](t, env)
	assert.Equal(t, models.TxAwaitingConfirmation, tx.Status)
	assert.Equal(t, testOTP, tx.ConfirmationCode)

	status, env = h.do(http.MethodPost, "/transactions/confirm", models.ConfirmRequest{TransactionID: tx.ID, ConfirmationCode: "999999"}, session)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_CONFIRMATION_CODE", env.Code)

	status, env = h.do(http.MethodPost, "/transactions/confirm", models.ConfirmRequest{TransactionID: tx.ID, ConfirmationCode: testOTP}, session)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.TxConfirmed, decode[models.Transaction](t, env).Status)

	for _, want := range []models.TransactionStatus{models.TxExecuting, models.TxCompleted} {
		status, env = h.do(http.MethodGet, "/transactions/"+tx.ID+"/status", nil, session)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, want, decode[models.Transaction](t, env).Status)
	}

	status, env = h.do(http.MethodGet, "/transactions/history?limit=5", nil, session)
	require.Equal(t, http.StatusOK, status)
	history := decode[[]models.Transaction](t, env)
	require.Len(t, history, 1)
	assert.NotEmpty(t, history[0].TxHash)

	status, env = h.do(http.MethodGet, "/transactions/balance?connectionId="+conn.ID, nil, session)
	require.Equal(t, http.StatusOK, status)
	bal := decode[models.Balance](t, env)
	assert.Equal(t, "9999999999999999000", bal.Balance)
	assert.Equal(t, "ETH", bal.Symbol)
	assert.Equal(t, store.WalletAddress(conn.ID), bal.Address)
}

func TestTransactionsRejectForeignConnection(t *testing.T) {
	h := newHarness(t, nil)
	a := h.connect("+15550500")
	b := h.connect("+15550501")

	status, env := h.do(http.MethodPost, "/transactions/gasless", models.GaslessTransactionRequest{ConnectionID: b.ID, To: "0x1", Value: "1"}, bearer(a.SessionToken))
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "CONNECTION_MISMATCH", env.Code)

	status, env = h.do(http.MethodPost, "/transactions/gasless", models.GaslessTransactionRequest{ConnectionID: b.ID, To: "0x1", Value: "1"}, bearer(b.SessionToken))
	require.Equal(t, http.StatusCreated, status)
	tx := decode[models.Transaction](t, env)
	assert.True(t, tx.IsGasless)

	status, _ = h.do(http.MethodGet, "/transactions/"+tx.ID+"/status", nil, bearer(a.SessionToken))
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = h.do(http.MethodPost, "/transactions/send", models.TransactionRequest{ConnectionID: a.ID, To: "0x1"}, appToken(testAppToken))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.RateLimit = 1 })

	status, _ := h.do(http.MethodGet, "/connections/check/status?phoneNumber=1", nil, appToken(testAppToken))
	require.Equal(t, http.StatusOK, status)

	status, env := h.do(http.MethodGet, "/connections/check/status?phoneNumber=1", nil, appToken(testAppToken))
	require.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, common.CodeRateLimited, env.Code)
}

func TestIPAllowList(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.AllowedIPs = []string{"198.51.100.1"} })

	status, env := h.do(http.MethodGet, "/connections/check/status?phoneNumber=1", nil, appToken(testAppToken))
	require.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, common.CodeIPNotWhitelisted, env.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, nil)
	h.connect("+15550600")

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `walletlink_sandbox_otp_verifications_total{status="approved"} 1`)
}
