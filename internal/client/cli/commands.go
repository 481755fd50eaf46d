package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/walletlink/internal/client/client"
	"github.com/dmitrijs2005/walletlink/internal/client/models"
	"github.com/dmitrijs2005/walletlink/internal/common"
)

// getSimpleText and getOTP are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getOTP        = GetOTP
)

var errUsage = errors.New("wrong number of arguments, see 'help'")

// describeError renders err for the terminal. SDK errors show their code so
// the user can tell a rate limit from an expired session.
func describeError(err error) string {
	e, ok := client.AsError(err)
	if !ok {
		return err.Error()
	}
	switch {
	case errors.Is(e, client.ErrSessionExpired):
		return "session expired, run 'logout' and 'connect' again"
	case e.Code == common.CodeAccountNotFound:
		return e.Message + " (run 'register' first)"
	}
	return fmt.Sprintf("%s [%s]", e.Message, e.Code)
}

// argOrPrompt returns args[i] when present, otherwise asks the user.
func (a *App) argOrPrompt(args []string, i int, prompt string) (string, error) {
	if i < len(args) {
		return args[i], nil
	}
	return getSimpleText(a.reader, prompt, a.out)
}

func (a *App) Connect(ctx context.Context, args []string) error {
	phone, err := a.argOrPrompt(args, 0, "Enter phone number (e.g. +233123456789)")
	if err != nil {
		return err
	}
	var meta map[string]any
	if len(args) > 1 {
		if meta, err = ParseMetadata(args[1:]); err != nil {
			return err
		}
	}

	conn, err := a.wallet.Connect(ctx, phone, meta)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Connection %s is %s. A code was sent to %s, run 'verify'.\n", conn.ID, conn.Status, conn.PhoneNumber)
	return nil
}

func (a *App) Register(ctx context.Context, args []string) error {
	first, err := a.argOrPrompt(args, 0, "First name")
	if err != nil {
		return err
	}
	last, err := a.argOrPrompt(args, 1, "Last name")
	if err != nil {
		return err
	}
	phone, err := a.argOrPrompt(args, 2, "Phone number")
	if err != nil {
		return err
	}

	msg, err := a.wallet.Register(ctx, first, last, phone)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) Verify(ctx context.Context, args []string) error {
	var (
		otp string
		err error
	)
	if len(args) > 0 {
		otp = args[0]
	} else if otp, err = getOTP(a.reader, a.out); err != nil {
		return err
	}

	conn, err := a.wallet.Verify(ctx, otp)
	if err != nil {
		return err
	}
	switch conn.Status {
	case models.ConnectionApproved:
		fmt.Fprintf(a.out, "Connected as %s.\n", conn.PhoneNumber)
	case models.ConnectionPending:
		fmt.Fprintf(a.out, "Code not accepted (attempt %d), try again.\n", conn.OTPAttempts)
	default:
		fmt.Fprintf(a.out, "Connection %s, request a new one with 'connect'.\n", conn.Status)
	}
	return nil
}

func (a *App) Status(ctx context.Context, _ []string) error {
	check, err := a.wallet.Status(ctx)
	if err != nil {
		return err
	}
	if !check.IsConnected {
		fmt.Fprintln(a.out, "Not connected.")
		return nil
	}
	if check.Connection != nil {
		fmt.Fprintf(a.out, "Connected: %s (connection %s, %s)\n", check.Connection.PhoneNumber, check.Connection.ID, check.Connection.Status)
		return nil
	}
	fmt.Fprintln(a.out, "Connected.")
	return nil
}

// transferArgs parses "<to> <value> [chainId]".
func transferArgs(args []string) (to, value string, chainID int64, err error) {
	if len(args) < 2 || len(args) > 3 {
		return "", "", 0, errUsage
	}
	if len(args) == 3 {
		if chainID, err = strconv.ParseInt(args[2], 10, 64); err != nil {
			return "", "", 0, fmt.Errorf("invalid chain id %q", args[2])
		}
	}
	return args[0], args[1], chainID, nil
}

func (a *App) Send(ctx context.Context, args []string) error {
	to, value, chainID, err := transferArgs(args)
	if err != nil {
		return err
	}
	tx, err := a.wallet.Send(ctx, models.TransactionRequest{To: to, Value: value, ChainID: chainID})
	if err != nil {
		return err
	}
	a.printPending(tx)
	return nil
}

func (a *App) Gasless(ctx context.Context, args []string) error {
	to, value, chainID, err := transferArgs(args)
	if err != nil {
		return err
	}
	tx, err := a.wallet.SendGasless(ctx, models.GaslessTransactionRequest{To: to, Value: value, ChainID: chainID})
	if err != nil {
		return err
	}
	a.printPending(tx)
	return nil
}

func (a *App) printPending(tx *models.Transaction) {
	fmt.Fprintf(a.out, "Transaction %s is %s.\n", tx.ID, tx.Status)
	if tx.ConfirmationCode != "" {
		fmt.Fprintf(a.out, "Confirmation code: %s", tx.ConfirmationCode)
		if tx.ConfirmationExpiresAt != nil {
			fmt.Fprintf(a.out, " (expires %s)", tx.ConfirmationExpiresAt.Local().Format("15:04:05"))
		}
		fmt.Fprintln(a.out)
	}
}

func (a *App) Confirm(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	tx, err := a.wallet.Confirm(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Transaction %s is %s.\n", tx.ID, tx.Status)
	return nil
}

func (a *App) Tx(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	tx, err := a.wallet.Transaction(ctx, args[0])
	if err != nil {
		return err
	}
	a.printTransaction(tx)
	return nil
}

func (a *App) Watch(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	tx, err := a.wallet.WaitForTransaction(ctx, args[0], a.settings.PollInterval, func(tx *models.Transaction) {
		fmt.Fprintf(a.out, "  %s\n", tx.Status)
	})
	if err != nil {
		return err
	}
	a.printTransaction(tx)
	return nil
}

func (a *App) printTransaction(tx *models.Transaction) {
	kind := "regular"
	if tx.IsGasless {
		kind = "gasless"
	}
	fmt.Fprintf(a.out, "%s  %-22s %s  to %s  value %s\n", tx.ID, tx.Status, kind, tx.To, tx.Value)
	if tx.TxHash != "" {
		fmt.Fprintf(a.out, "  hash %s  block %d  gas %s\n", tx.TxHash, tx.BlockNumber, tx.GasUsed)
	}
}

// History accepts an optional status and limit, in either order.
func (a *App) History(ctx context.Context, args []string) error {
	var f models.HistoryFilters
	for _, arg := range args {
		if n, err := strconv.Atoi(arg); err == nil {
			f.Limit = n
			continue
		}
		f.Status = arg
	}

	txs, err := a.wallet.History(ctx, f)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Fprintln(a.out, "No transactions.")
		return nil
	}
	for i := range txs {
		a.printTransaction(&txs[i])
	}
	return nil
}

func (a *App) Balance(ctx context.Context, args []string) error {
	var (
		token   string
		chainID int64
	)
	for _, arg := range args {
		if n, err := strconv.ParseInt(arg, 10, 64); err == nil {
			chainID = n
			continue
		}
		token = arg
	}

	bal, err := a.wallet.Balance(ctx, token, chainID)
	if err != nil {
		return err
	}
	amount := bal.Formatted
	if amount == "" {
		amount = bal.Balance
	}
	fmt.Fprintf(a.out, "%s %s on chain %d (%s)\n", amount, strings.TrimSpace(bal.Symbol), bal.ChainID, bal.Address)
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.wallet.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
