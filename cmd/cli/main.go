package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/walletlink/internal/buildinfo"
	"github.com/dmitrijs2005/walletlink/internal/client/cli"
	"github.com/dmitrijs2005/walletlink/internal/client/client"
	"github.com/dmitrijs2005/walletlink/internal/client/config"
	"github.com/dmitrijs2005/walletlink/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := config.LoadSettings()
	logger := logging.New(os.Stderr, s.LogLevel)

	var registry client.Registry
	app, err := cli.NewApp(ctx, s, logger, &registry)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)
}
