package client

import (
	"sync"

	"github.com/dmitrijs2005/walletlink/internal/client/config"
)

// Registry holds the one Client a hosting application works with. It is an
// ordinary value: the application creates it, and nothing else in the
// package depends on it.
type Registry struct {
	mu     sync.RWMutex
	client *Client
}

// Init builds a Client from cfg and makes it current, replacing any
// previous one.
func (r *Registry) Init(cfg config.Config, opts ...Option) (*Client, error) {
	c, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.client = c
	r.mu.Unlock()
	return c, nil
}

// Get returns the current Client, or an SDK_NOT_INITIALIZED error before
// Init.
func (r *Registry) Get() (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.client == nil {
		return nil, newClientError("client is not initialized, call Init first", CodeNotInitialized, 0, nil)
	}
	return r.client, nil
}

// Reset forgets the current Client.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.client = nil
	r.mu.Unlock()
}
