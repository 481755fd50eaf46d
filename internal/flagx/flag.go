// Package flagx lets independent loaders pick their own flags out of os.Args
// without tripping over each other's definitions.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// FilterArgs keeps the arguments that set one of the named flags, with
// their values, and drops everything else. Names are given without dashes;
// "-name" and "--name" both match, as separate "-name value" or joined
// "-name=value". A separate value is taken only if it does not itself start
// with a dash. Scanning stops at "--".
func FilterArgs(args []string, names ...string) []string {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}

	kept := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name, joined := flagName(arg)
		if name == "" || !known[name] {
			continue
		}

		kept = append(kept, arg)
		if !joined && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			kept = append(kept, args[i])
		}
	}
	return kept
}

// flagName returns the name arg sets and whether its value is joined with
// "=". It returns "" for positional arguments.
func flagName(arg string) (string, bool) {
	if !strings.HasPrefix(arg, "-") {
		return "", false
	}
	name := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
	if i := strings.IndexByte(name, '='); i >= 0 {
		return name[:i], true
	}
	return name, false
}

// ConfigFileFlag extracts the settings file path given via -c or -config.
// Other arguments are ignored. If neither flag is present, it returns "".
func ConfigFileFlag() string {
	return stringFlag("config", "c")
}

// EnvFileFlag extracts the dotenv file path given via -env-file.
// It returns "" when the flag is absent.
func EnvFileFlag() string {
	return stringFlag("env-file", "")
}

func stringFlag(long, short string) string {
	var value string

	args := FilterArgs(os.Args[1:], long, short)

	fs := flag.NewFlagSet(long, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&value, long, "", long)
	if short != "" {
		fs.StringVar(&value, short, "", long+" (short)")
	}
	_ = fs.Parse(args)

	return value
}
