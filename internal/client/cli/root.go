package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	st := a.wallet.State()
	s := st.PhoneNumber
	switch {
	case st.Connected:
		s += " connected"
	case st.PendingConnectionID != "":
		s += " pending"
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root prints the banner and runs the REPL on the app's input.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to walletlink CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
