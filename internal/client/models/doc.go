// Package models defines the wire types of the walletlink backend:
// connections, transactions, their request bodies, and the common response
// envelope. Values are plain transient payloads; nothing here is cached.
package models
