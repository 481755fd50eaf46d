package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/walletlink/internal/client/models"
	"github.com/dmitrijs2005/walletlink/internal/common"
	mw "github.com/dmitrijs2005/walletlink/internal/sandbox/middleware"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/store"
)

type ConnectionHandler struct {
	*Deps
}

func (h *ConnectionHandler) Register(c *gin.Context) {
	var body models.RegisterRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		mw.Fail(c, http.StatusBadRequest, common.CodeValidation, "Invalid request body")
		return
	}
	if strings.TrimSpace(body.FirstName) == "" || strings.TrimSpace(body.LastName) == "" || strings.TrimSpace(body.PhoneNumber) == "" {
		mw.Fail(c, http.StatusBadRequest, common.CodeValidation, "firstName, lastName and phoneNumber are required")
		return
	}

	if _, err := h.Store.CreateAccount(body.FirstName, body.LastName, body.PhoneNumber); err != nil {
		if errors.Is(err, store.ErrAccountExists) {
			mw.Fail(c, http.StatusConflict, CodeAccountExists, "An account with this phone number already exists")
			return
		}
		mw.Fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}

	h.Log.Info(c.Request.Context(), "account registered", "phone", body.PhoneNumber)
	mw.OK(c, http.StatusCreated, models.RegisterResult{Message: "Account created. You can now request a connection."})
}

func (h *ConnectionHandler) Request(c *gin.Context) {
	var body models.ConnectionRequest
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.PhoneNumber) == "" {
		mw.Fail(c, http.StatusBadRequest, common.CodeValidation, "phoneNumber is required")
		return
	}

	otp, err := h.code()
	if err != nil {
		mw.Fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}

	conn, err := h.Store.RequestConnection(mw.AppIDFromContext(c), body.PhoneNumber, body.Metadata, otp)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			mw.Fail(c, http.StatusNotFound, common.CodeAccountNotFound, "No account is registered for this phone number")
			return
		}
		mw.Fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}

	// Stands in for the SMS a real deployment would send.
	h.Log.Info(c.Request.Context(), "otp issued", "connection_id", conn.ID, "phone", conn.PhoneNumber, "otp", otp)
	mw.OK(c, http.StatusCreated, conn)
}

func (h *ConnectionHandler) Verify(c *gin.Context) {
	var body models.VerifyRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.ConnectionID == "" || body.OTP == "" {
		mw.Fail(c, http.StatusBadRequest, common.CodeValidation, "connectionId and otp are required")
		return
	}

	conn, err := h.Store.VerifyOTP(body.ConnectionID, body.OTP)
	switch {
	case errors.Is(err, common.ErrNotFound):
		mw.Fail(c, http.StatusNotFound, common.CodeNotFound, "Connection not found")
		return
	case errors.Is(err, store.ErrNotPending):
		mw.Fail(c, http.StatusConflict, CodeConnectionNotReady, "Connection is no longer pending")
		return
	case err != nil:
		mw.Fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}
	h.Metrics.OTPVerified(string(conn.Status))

	if conn.IsApproved() {
		session, err := h.Issuer.Generate(conn.ID, conn.AppID)
		if err != nil {
			mw.Fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
			return
		}
		conn.SessionToken = session
		conn.RefreshToken = h.Store.IssueRefreshToken(conn.ID)
	}

	h.Log.Info(c.Request.Context(), "otp verified", "connection_id", conn.ID, "status", conn.Status, "attempts", conn.OTPAttempts)
	mw.OK(c, http.StatusOK, conn)
}

func (h *ConnectionHandler) Refresh(c *gin.Context) {
	var body models.RefreshRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.RefreshToken == "" {
		mw.Fail(c, http.StatusBadRequest, common.CodeValidation, "refreshToken is required")
		return
	}

	connID, next, err := h.Store.RotateRefreshToken(body.RefreshToken)
	if err != nil {
		h.Metrics.Refreshed(false)
		if errors.Is(err, common.ErrRefreshTokenExpired) {
			mw.Fail(c, http.StatusUnauthorized, CodeRefreshExpired, "Refresh token expired")
			return
		}
		mw.Fail(c, http.StatusUnauthorized, common.CodeInvalidToken, "Invalid refresh token")
		return
	}

	conn, err := h.Store.Connection(connID)
	if err != nil {
		h.Metrics.Refreshed(false)
		mw.Fail(c, http.StatusUnauthorized, common.CodeInvalidToken, "Invalid refresh token")
		return
	}
	session, err := h.Issuer.Generate(conn.ID, conn.AppID)
	if err != nil {
		mw.Fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}

	h.Metrics.Refreshed(true)
	h.Log.Debug(c.Request.Context(), "session refreshed", "connection_id", conn.ID)
	mw.OK(c, http.StatusOK, models.TokenPair{SessionToken: session, RefreshToken: next})
}

func (h *ConnectionHandler) Get(c *gin.Context) {
	conn, err := h.Store.Connection(c.Param("id"))
	if err != nil || conn.AppID != mw.AppIDFromContext(c) {
		mw.Fail(c, http.StatusNotFound, common.CodeNotFound, "Connection not found")
		return
	}
	mw.OK(c, http.StatusOK, conn)
}

func (h *ConnectionHandler) Status(c *gin.Context) {
	phone := strings.TrimSpace(c.Query("phoneNumber"))
	if phone == "" {
		mw.Fail(c, http.StatusBadRequest, common.CodeValidation, "phoneNumber is required")
		return
	}

	conn, ok := h.Store.ActiveConnection(phone)
	if !ok || conn.AppID != mw.AppIDFromContext(c) {
		mw.OK(c, http.StatusOK, models.ConnectionCheck{IsConnected: false})
		return
	}
	mw.OK(c, http.StatusOK, models.ConnectionCheck{IsConnected: true, Connection: conn})
}
