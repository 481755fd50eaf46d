package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. The real App
// satisfies it; tests provide a stub.
type execIface interface {
	isConnected() bool
	Connect(ctx context.Context, args []string) error
	Register(ctx context.Context, args []string) error
	Verify(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
	Send(ctx context.Context, args []string) error
	Gasless(ctx context.Context, args []string) error
	Confirm(ctx context.Context, args []string) error
	Tx(ctx context.Context, args []string) error
	Watch(ctx context.Context, args []string) error
	History(ctx context.Context, args []string) error
	Balance(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
}

const (
	helpDisconnected = "Available commands: connect [phone] [name=value...], register, verify [code], status, tx <id>, history, exit"
	helpConnected    = "Available commands: send <to> <value> [chainId], gasless <to> <value> [chainId], confirm <id> <code>, " +
		"tx <id>, watch <id>, history [status] [limit], balance [token] [chainId], status, logout, exit"
)

// runREPL reads one command per line from in and dispatches it to a.
// The loop ends on EOF, on "exit"/"quit", or when ctx is cancelled between
// commands. Command errors are printed and do not stop the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("wl %s> ", statusFn()))

		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isConnected() {
				printlnFn(helpConnected)
			} else {
				printlnFn(helpDisconnected)
			}

		case "connect":
			cmdErr = a.Connect(ctx, args)
		case "register":
			cmdErr = a.Register(ctx, args)
		case "verify":
			cmdErr = a.Verify(ctx, args)
		case "status":
			cmdErr = a.Status(ctx, args)
		case "send":
			cmdErr = a.Send(ctx, args)
		case "gasless":
			cmdErr = a.Gasless(ctx, args)
		case "confirm":
			cmdErr = a.Confirm(ctx, args)
		case "tx":
			cmdErr = a.Tx(ctx, args)
		case "watch":
			cmdErr = a.Watch(ctx, args)
		case "history":
			cmdErr = a.History(ctx, args)
		case "balance":
			cmdErr = a.Balance(ctx, args)
		case "logout":
			cmdErr = a.Logout(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", describeError(cmdErr))
		}
		if err != nil {
			return
		}
	}
}
