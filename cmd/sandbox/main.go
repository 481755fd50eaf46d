package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/walletlink/internal/buildinfo"
	"github.com/dmitrijs2005/walletlink/internal/logging"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/config"
	"github.com/dmitrijs2005/walletlink/internal/sandbox/server"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(os.Stderr, os.Getenv("SANDBOX_LOG_LEVEL"))
	gin.SetMode(gin.ReleaseMode)

	deps := server.NewDeps(cfg, logger)
	defer deps.Limiter.Stop()

	srv := server.NewHTTPServer(cfg.Port, server.NewRouter(deps))
	if err := server.Run(ctx, srv, logger); err != nil {
		log.Fatalf("%v", err)
	}
}
