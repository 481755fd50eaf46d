package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	connected bool
	failOn    string

	calls []string
	args  map[string][]string
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, name)
	if f.args == nil {
		f.args = map[string][]string{}
	}
	f.args[name] = args
	if name == f.failOn {
		return errors.New(name + " failed")
	}
	return nil
}

func (f *fakeExec) isConnected() bool                                 { return f.connected }
func (f *fakeExec) Connect(ctx context.Context, args []string) error  { return f.record("connect", args) }
func (f *fakeExec) Register(ctx context.Context, args []string) error { return f.record("register", args) }
func (f *fakeExec) Status(ctx context.Context, args []string) error   { return f.record("status", args) }
func (f *fakeExec) Send(ctx context.Context, args []string) error     { return f.record("send", args) }
func (f *fakeExec) Gasless(ctx context.Context, args []string) error  { return f.record("gasless", args) }
func (f *fakeExec) Confirm(ctx context.Context, args []string) error  { return f.record("confirm", args) }
func (f *fakeExec) Tx(ctx context.Context, args []string) error       { return f.record("tx", args) }
func (f *fakeExec) Watch(ctx context.Context, args []string) error    { return f.record("watch", args) }
func (f *fakeExec) History(ctx context.Context, args []string) error  { return f.record("history", args) }
func (f *fakeExec) Balance(ctx context.Context, args []string) error  { return f.record("balance", args) }

func (f *fakeExec) Verify(ctx context.Context, args []string) error {
	f.connected = true
	return f.record("verify", args)
}

func (f *fakeExec) Logout(ctx context.Context, args []string) error {
	f.connected = false
	return f.record("logout", args)
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	out := captureOutput(t)

	input := strings.Join([]string{
		"help",
		"connect +233123456789 source=cli",
		"verify 123456",
		"help",
		"send 0xabc 1",
		"confirm tx-1 4242",
		"watch tx-1",
		"history pending 10",
		"balance",
		"foobar",
		"logout",
		"exit",
		"status",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, rdr(input))

	assert.Equal(t, []string{"connect", "verify", "send", "confirm", "watch", "history", "balance", "logout"}, exec.calls)
	assert.Equal(t, []string{"+233123456789", "source=cli"}, exec.args["connect"])
	assert.Equal(t, []string{"pending", "10"}, exec.args["history"])
	assert.Empty(t, exec.args["balance"])

	assert.Contains(t, *out, helpDisconnected)
	assert.Contains(t, *out, helpConnected)
	assert.Contains(t, *out, "Unknown command: foobar")
	assert.Contains(t, *out, "Bye!")
}

func TestRunREPL_PrintsErrorsAndContinues(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{failOn: "tx"}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("tx tx-1\nstatus\n"))

	assert.Equal(t, []string{"tx", "status"}, exec.calls)
	assert.Contains(t, *out, "Error: tx failed")
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	captureOutput(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "" }, bufio.NewReader(strings.NewReader("\n\nstatus")))

	assert.Equal(t, []string{"status"}, exec.calls)
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	captureOutput(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	runREPL(ctx, exec, func() string { return "" }, rdr("status\n"))
	assert.Empty(t, exec.calls)
}
