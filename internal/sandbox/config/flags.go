package config

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/walletlink/internal/flagx"
)

// parseFlags overlays command-line flags on cfg.
//
//	-a string   listen port
//	-s string   JWT HMAC secret
//	-o string   fixed OTP and confirmation code ("" for random codes)
//	-t int      session token validity (minutes)
//	-r int      refresh token validity (minutes)
//	-l int      requests per rate window and client IP (0 disables)
//
// It panics on a malformed value.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], "a", "s", "o", "t", "r", "l")

	fs := flag.NewFlagSet("sandbox", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Port, "a", cfg.Port, "listen port")
	fs.StringVar(&cfg.JWTSecret, "s", cfg.JWTSecret, "JWT secret")
	fs.StringVar(&cfg.DevOTP, "o", cfg.DevOTP, "fixed OTP")
	sessionTTL := fs.Int("t", int(cfg.SessionTTL.Minutes()), "session token validity (in minutes)")
	refreshTTL := fs.Int("r", int(cfg.RefreshTTL.Minutes()), "refresh token validity (in minutes)")
	fs.IntVar(&cfg.RateLimit, "l", cfg.RateLimit, "rate limit")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SessionTTL = time.Duration(*sessionTTL) * time.Minute
	cfg.RefreshTTL = time.Duration(*refreshTTL) * time.Minute
}
