// Package client is the walletlink session client.
//
// A Client talks to the walletlink REST backend on behalf of one
// application. It starts in app-token mode, sending the public app token in
// the X-App-Token header. Once an OTP verification returns a session token
// it switches to session mode and sends "Authorization: Bearer <token>"
// instead. The two headers are never sent together.
//
// # Session refresh
//
// When a request fails because the session expired and a refresh token is
// held, the client exchanges the refresh token for a new pair and retries
// the request once. Concurrent requests that hit the expiry together share
// a single refresh call.
//
// # Errors
//
// Every operation returns either its payload or an *Error. Match on Kind,
// Code, or the sentinels with errors.Is:
//
//	if errors.Is(err, client.ErrSessionExpired) { ... }
//
// # Persistence
//
// The client keeps credentials in memory only. InitDatabase opens the local
// SQLite store that the services layer uses to persist them between runs.
package client
