package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dmitrijs2005/walletlink/internal/shared"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetOTP reads the one-time password from the terminal without echo.
// When stdin is not a terminal (piped input) it falls back to reader.
func GetOTP(reader *bufio.Reader, w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return GetSimpleText(reader, "Enter the code sent to your phone", w)
	}

	if _, err := fmt.Fprint(w, "Enter the code sent to your phone: "); err != nil {
		return "", err
	}
	otp, err := readPassword(fd)
	defer shared.WipeByteArray(otp)
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(otp)), nil
}

var isTerminal = term.IsTerminal

// ParseMetadata turns "name=value" arguments into a map. Arguments without
// '=' are rejected; an empty input yields nil.
func ParseMetadata(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	meta := make(map[string]any, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("metadata must be name=value, got %q", a)
		}
		meta[k] = strings.TrimSpace(v)
	}
	return meta, nil
}
