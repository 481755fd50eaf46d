package config

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/walletlink/internal/flagx"
)

// parseFlags populates selected Settings fields from command-line flags.
//
//	-t string   app token
//	-u string   backend base URL
//	-e string   environment (development|production)
//	-d string   credential store path
//	-i int      transaction poll interval (seconds)
//
// Only these flags are looked at (see flagx.FilterArgs). It panics on a
// malformed value.
func parseFlags(s *Settings) {
	args := flagx.FilterArgs(os.Args[1:], "t", "u", "e", "d", "i")

	fs := flag.NewFlagSet("walletlink", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&s.AppToken, "t", s.AppToken, "application token")
	fs.StringVar(&s.BaseURL, "u", s.BaseURL, "backend base URL")
	env := fs.String("e", string(s.Environment), "environment (development|production)")
	fs.StringVar(&s.StorePath, "d", s.StorePath, "credential store path")
	pollInterval := fs.Int("i", int(s.PollInterval.Seconds()), "transaction poll interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	s.Environment = ParseEnvironment(*env)
	s.PollInterval = time.Duration(*pollInterval) * time.Second
}
