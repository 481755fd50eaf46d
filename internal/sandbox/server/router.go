// Package server wires the sandbox handlers into a gin engine and runs it.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/walletlink/internal/logging"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/config"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/handlers"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/metrics"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/middleware"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/store"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/tokens"
)

type Deps struct {
	Config  *config.Config
	Store   *store.Store
	Issuer  *tokens.Issuer
	Metrics *metrics.Metrics
	Limiter *middleware.RateLimiter
	Log     logging.Logger
}

// NewDeps builds the default dependencies for cfg.
func NewDeps(cfg *config.Config, log logging.Logger) Deps {
	return Deps{
		Config: cfg,
		Store: store.New(store.Options{
			BcryptCost:      cfg.BcryptCost,
			MaxOTPAttempts:  cfg.MaxOTPAttempts,
			ConnectionTTL:   cfg.ConnectionTTL,
			ConfirmationTTL: cfg.ConfirmationTTL,
			RefreshTTL:      cfg.RefreshTTL,
		}),
		Issuer:  &tokens.Issuer{Secret: []byte(cfg.JWTSecret), TTL: cfg.SessionTTL},
		Metrics: metrics.New(),
		Limiter: middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow),
		Log:     log,
	}
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Log == nil {
		deps.Log = logging.Nop{}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLog(deps.Log))
	r.Use(deps.Metrics.Middleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", deps.Metrics.Handler())

	hd := &handlers.Deps{
		Store:   deps.Store,
		Issuer:  deps.Issuer,
		Metrics: deps.Metrics,
		Log:     deps.Log,
		DevOTP:  deps.Config.DevOTP,
	}
	connections := &handlers.ConnectionHandler{Deps: hd}
	transactions := &handlers.TransactionHandler{Deps: hd}

	api := r.Group(deps.Config.BasePath)
	api.Use(middleware.AllowIPs(deps.Config.AllowedIPs))
	if deps.Limiter != nil {
		api.Use(middleware.RateLimitMiddleware(deps.Limiter))
	}

	appOnly := api.Group("/connections")
	appOnly.Use(middleware.RequireAppToken(deps.Config.AppTokens))
	appOnly.POST("/refresh", connections.Refresh)

	conn := api.Group("/connections")
	conn.Use(middleware.RequireClient(deps.Config.AppTokens, deps.Issuer))
	conn.POST("/register", connections.Register)
	conn.POST("/request", connections.Request)
	conn.POST("/verify", connections.Verify)
	conn.GET("/check/status", connections.Status)
	conn.GET("/:id", connections.Get)

	tx := api.Group("/transactions")
	tx.Use(middleware.RequireSession(deps.Issuer))
	tx.POST("/send", transactions.Send)
	tx.POST("/gasless", transactions.Gasless)
	tx.POST("/confirm", transactions.Confirm)
	tx.GET("/history", transactions.History)
	tx.GET("/balance", transactions.Balance)
	tx.GET("/:id/status", transactions.Status)

	return r
}
