// Package config holds the SDK configuration (Config) and the runtime
// settings of the walletlink CLI (Settings).
//
// # SDK configuration
//
// Config carries the mandatory app token, an optional base URL override,
// the environment used to pick a default URL, the request timeout and the
// poll retry budget. Partial updates are expressed with Update and applied
// with Config.Merge.
//
// # CLI settings: sources & precedence
//
//  1. Built-in defaults (see (*Settings).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Environment variables WALLETLINK_*, after loading an optional .env
//     file (-env-file, else ./.env).
//  4. Command-line flags, which override everything else.
//
// # JSON schema
//
//	{
//	  "app_token": "pk_live_...",
//	  "base_url": "http://localhost:8080/api/v1",
//	  "environment": "development",
//	  "timeout": "30s",
//	  "retry_attempts": 3,
//	  "store_path": "walletlink.db",
//	  "poll_interval": "3s",
//	  "log_level": "info"
//	}
package config
