package handlers

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/walletlink/internal/client/models"
	"github.com/dmitrijs2005/walletlink/internal/common"
	mw "github.com/dmitrijs2005/walletlink/internal/sandbox/middleware"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/store"
)

// Every sandbox wallet starts with this many wei of the native coin.
var startingBalance, _ = new(big.Int).SetString("10000000000000000000", 10)

type TransactionHandler struct {
	*Deps
}

// sessionConnection returns the connection the bearer token was issued for,
// rejecting requests that name a different one.
func sessionConnection(c *gin.Context, requested string) (string, bool) {
	claims, ok := mw.ClaimsFromContext(c)
	if !ok {
		mw.Fail(c, http.StatusUnauthorized, common.CodeInvalidToken, "Invalid authentication token")
		return "", false
	}
	if requested != "" && requested != claims.ConnectionID {
		mw.Fail(c, http.StatusBadRequest, CodeConnectionMismatch, "connectionId does not match the session")
		return "", false
	}
	return claims.ConnectionID, true
}

func (h *TransactionHandler) Send(c *gin.Context) {
	var body models.TransactionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		mw.Fail(c, http.StatusBadRequest, common.CodeValidation, "Invalid request body")
		return
	}
	h.create(c, store.TransferInput{
		ConnectionID: body.ConnectionID,
		To:           body.To,
		Value:        body.Value,
		Data:         body.Data,
		ChainID:      body.ChainID,
	})
}

func (h *TransactionHandler) Gasless(c *gin.Context) {
	var body models.GaslessTransactionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		mw.Fail(c, http.StatusBadRequest, common.CodeValidation, "Invalid request body")
		return
	}
	h.create(c, store.TransferInput{
		ConnectionID: body.ConnectionID,
		To:           body.To,
		Value:        body.Value,
		Data:         body.Data,
		ChainID:      body.ChainID,
		Gasless:      true,
	})
}

func (h *TransactionHandler) create(c *gin.Context, in store.TransferInput) {
	if in.ConnectionID == "" || in.To == "" {
		mw.Fail(c, http.StatusBadRequest, common.CodeValidation, "connectionId and to are required")
		return
	}
	if in.Value == "" {
		in.Value = "0"
	}
	if _, ok := new(big.Int).SetString(in.Value, 10); !ok {
		mw.Fail(c, http.StatusBadRequest, common.CodeValidation, "value must be a decimal amount in wei")
		return
	}
	if _, ok := sessionConnection(c, in.ConnectionID); !ok {
		return
	}

	code, err := h.code()
	if err != nil {
		mw.Fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}
	tx, err := h.Store.CreateTransaction(in, code)
	if err != nil {
		mw.Fail(c, http.StatusNotFound, common.CodeNotFound, "Connection not found")
		return
	}

	h.Metrics.Transaction(string(tx.Status))
	h.Log.Info(c.Request.Context(), "transaction created", "transaction_id", tx.ID, "gasless", tx.IsGasless, "code", code)
	mw.OK(c, http.StatusCreated, tx)
}

func (h *TransactionHandler) Confirm(c *gin.Context) {
	var body models.ConfirmRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.TransactionID == "" || body.ConfirmationCode == "" {
		mw.Fail(c, http.StatusBadRequest, common.CodeValidation, "transactionId and confirmationCode are required")
		return
	}
	connID, ok := sessionConnection(c, "")
	if !ok {
		return
	}

	tx, err := h.Store.ConfirmTransaction(body.TransactionID, connID, body.ConfirmationCode)
	if err != nil {
		h.failTransaction(c, err)
		return
	}
	h.Metrics.Transaction(string(tx.Status))
	mw.OK(c, http.StatusOK, tx)
}

func (h *TransactionHandler) Status(c *gin.Context) {
	connID, ok := sessionConnection(c, "")
	if !ok {
		return
	}

	tx, changed, err := h.Store.AdvanceTransaction(c.Param("id"), connID)
	if err != nil {
		h.failTransaction(c, err)
		return
	}
	if changed {
		h.Metrics.Transaction(string(tx.Status))
		h.Log.Debug(c.Request.Context(), "transaction advanced", "transaction_id", tx.ID, "status", tx.Status)
	}
	mw.OK(c, http.StatusOK, tx)
}

func (h *TransactionHandler) failTransaction(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound), errors.Is(err, store.ErrWrongConnection):
		mw.Fail(c, http.StatusNotFound, common.CodeNotFound, "Transaction not found")
	case errors.Is(err, store.ErrInvalidCode):
		mw.Fail(c, http.StatusBadRequest, CodeInvalidCode, "Invalid confirmation code")
	case errors.Is(err, store.ErrConfirmationGone):
		mw.Fail(c, http.StatusBadRequest, CodeCodeExpired, "Confirmation code expired")
	case errors.Is(err, store.ErrNotConfirmable):
		mw.Fail(c, http.StatusConflict, CodeInvalidState, "Transaction is not awaiting confirmation")
	default:
		mw.Fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}
}

func (h *TransactionHandler) History(c *gin.Context) {
	f := models.HistoryFilters{
		ConnectionID: c.Query("connectionId"),
		PhoneNumber:  c.Query("phoneNumber"),
		Status:       c.Query("status"),
	}
	var ok bool
	if f.Limit, ok = queryInt(c, "limit"); !ok {
		return
	}
	if f.Offset, ok = queryInt(c, "offset"); !ok {
		return
	}
	if f.ConnectionID, ok = sessionConnection(c, f.ConnectionID); !ok {
		return
	}
	mw.OK(c, http.StatusOK, h.Store.History(f))
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		mw.Fail(c, http.StatusBadRequest, common.CodeValidation, key+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}

// Balance reports a synthetic balance: the starting amount less the value
// of completed, non-gasless transfers on the chain. Token balances are fixed.
func (h *TransactionHandler) Balance(c *gin.Context) {
	requested := c.Query("connectionId")
	if requested == "" {
		mw.Fail(c, http.StatusBadRequest, common.CodeValidation, "connectionId is required")
		return
	}
	connID, ok := sessionConnection(c, requested)
	if !ok {
		return
	}

	chainID := int64(1)
	if raw := c.Query("chainId"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			mw.Fail(c, http.StatusBadRequest, common.CodeValidation, "chainId must be a positive integer")
			return
		}
		chainID = v
	}

	out := models.Balance{
		Address: store.WalletAddress(connID),
		ChainID: chainID,
	}
	if token := c.Query("tokenAddress"); token != "" {
		out.TokenAddress = token
		out.Balance = "250000000"
		out.Decimals = 6
		out.Symbol = "USDC"
	} else {
		spent := new(big.Int)
		for _, tx := range h.Store.History(models.HistoryFilters{ConnectionID: connID, Status: string(models.TxCompleted)}) {
			if tx.ChainID != chainID || tx.IsGasless {
				continue
			}
			if v, ok := new(big.Int).SetString(tx.Value, 10); ok {
				spent.Add(spent, v)
			}
		}
		bal := new(big.Int).Sub(startingBalance, spent)
		if bal.Sign() < 0 {
			bal.SetInt64(0)
		}
		out.Balance = bal.String()
		out.Decimals = 18
		out.Symbol = "ETH"
	}
	out.Formatted = formatUnits(out.Balance, out.Decimals)
	mw.OK(c, http.StatusOK, out)
}

func formatUnits(amount string, decimals int) string {
	v, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return ""
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Rat).SetFrac(v, scale).FloatString(4)
}
