// Package cli provides the interactive walletlink command-line client.
//
// It wires settings, the local credential store, the session client and a
// REPL. A typical session: connect with a phone number, verify the code
// that was sent to it, then send, confirm and watch transactions. The
// session survives restarts because the wallet service persists tokens.
package cli
