// Package ortex provides typed wrappers for the ORTEX data API endpoints.
//
// Wrappers can be called as methods on an API bound to a specific client, or
// as package-level functions backed by a shared default client configured via
// SetAPIKey or Configure.
package ortex

import (
	"sync"

	"github.com/ortex-financial/ortex-go/pkg/client"
)

// API exposes the ORTEX endpoints on top of a configured client.
type API struct {
	client *client.Client
}

// NewAPI wraps an existing client.
func NewAPI(c *client.Client) *API {
	return &API{client: c}
}

// Client returns the underlying client.
func (a *API) Client() *client.Client {
	return a.client
}

var (
	defaultMu     sync.Mutex
	defaultAPIKey string
	defaultConfig *client.Config
	defaultClient *client.Client
)

// SetAPIKey sets the API key used by the package-level functions. Any
// previously built default client is discarded so the key takes effect.
func SetAPIKey(key string) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultAPIKey = key
	defaultClient = nil
}

// Configure replaces the configuration used to build the default client.
// The client is rebuilt lazily on the next package-level call.
func Configure(cfg client.Config) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultConfig = &cfg
	defaultClient = nil
}

// DefaultClient returns the shared client, building it on first use from the
// configuration given to Configure and the key given to SetAPIKey. Without an
// explicit key the client falls back to the ORTEX_API_KEY environment variable.
func DefaultClient() (*client.Client, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient != nil {
		return defaultClient, nil
	}

	cfg := client.DefaultConfig()
	if defaultConfig != nil {
		cfg = *defaultConfig
	}
	if defaultAPIKey != "" {
		cfg.APIKey = defaultAPIKey
	}

	c, err := client.New(cfg)
	if err != nil {
		return nil, err
	}
	defaultClient = c
	return c, nil
}

// Reset discards the default client and its configuration. Intended for tests.
func Reset() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultAPIKey = ""
	defaultConfig = nil
	defaultClient = nil
}

func defaultAPI() (*API, error) {
	c, err := DefaultClient()
	if err != nil {
		return nil, err
	}
	return &API{client: c}, nil
}
