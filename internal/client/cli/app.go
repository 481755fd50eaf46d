package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"os"

	"github.com/dmitrijs2005/walletlink/internal/client/client"
	"github.com/dmitrijs2005/walletlink/internal/client/config"
	"github.com/dmitrijs2005/walletlink/internal/client/services"
	"github.com/dmitrijs2005/walletlink/internal/filex"
	"github.com/dmitrijs2005/walletlink/internal/logging"
)

type App struct {
	settings *config.Settings
	wallet   services.WalletService
	db       *sql.DB
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp opens the credential store, initializes the session client in
// registry and restores any persisted session.
func NewApp(ctx context.Context, s *config.Settings, log logging.Logger, registry *client.Registry) (*App, error) {
	if _, err := filex.EnsureParentDir(s.StorePath); err != nil {
		log.Error(ctx, "error preparing credential store directory", "path", s.StorePath, "error", err)
		return nil, err
	}

	db, err := client.InitDatabase(ctx, s.StorePath)
	if err != nil {
		log.Error(ctx, "error initializing credential store", "path", s.StorePath, "error", err)
		return nil, err
	}

	apiClient, err := registry.Init(s.Config, client.WithLogger(log.With("component", "client")))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	wallet := services.NewWalletService(apiClient, db)
	st, err := wallet.Restore(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if st.Connected {
		log.Info(ctx, "restored session", "phone", st.PhoneNumber, "connection_id", st.ConnectionID)
	}

	return newApp(s, wallet, db, log, os.Stdin, os.Stdout), nil
}

func newApp(s *config.Settings, wallet services.WalletService, db *sql.DB, log logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		settings: s,
		wallet:   wallet,
		db:       db,
		log:      log,
		reader:   bufio.NewReader(in),
		out:      out,
	}
}

// Run starts the REPL and returns when the user exits, input ends or ctx
// is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.close()
	a.Root(ctx)
}

func (a *App) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) isConnected() bool {
	return a.wallet.State().Connected
}
