// Package dextools fetches token and pool data from the DexTools v2 REST API.
package dextools

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Default configuration values.
const (
	DefaultBaseURL        = "https://public-api.dextools.io/trial/v2"
	DefaultChain          = "base"
	DefaultRequestTimeout = 10 * time.Second

	maxErrorBody = 2048
)

// Scope is the top-level resource an endpoint belongs to.
type Scope string

const (
	ScopeToken Scope = "token"
	ScopePool  Scope = "pool"
)

// Endpoint identifies one upstream resource. It is comparable and is used
// as the key of collected fragments.
type Endpoint struct {
	Scope Scope
	Path  string
}

// Known endpoints.
var (
	TokenInfo   = Endpoint{Scope: ScopeToken, Path: ""}
	TokenPrice  = Endpoint{Scope: ScopeToken, Path: "/price"}
	TokenMarket = Endpoint{Scope: ScopeToken, Path: "/info"}
	TokenAudit  = Endpoint{Scope: ScopeToken, Path: "/audit"}
	TokenLocks  = Endpoint{Scope: ScopeToken, Path: "/locks"}
	TokenPools  = Endpoint{Scope: ScopeToken, Path: "/pools"}
	PoolPrice   = Endpoint{Scope: ScopePool, Path: "/price"}
)

func (e Endpoint) String() string {
	return string(e.Scope) + e.Path
}

// Fragment is the payload of one successful endpoint call: the contents of
// the response's "data" object, with numbers kept as json.Number.
type Fragment struct {
	Endpoint Endpoint
	ID       string
	Data     map[string]any
}

// Client performs single-attempt GETs against the DexTools API.
type Client struct {
	baseURL        string
	chain          string
	apiKey         string
	httpClient     *http.Client
	requestTimeout time.Duration
	logger         zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a client for the given API key. The key is sent with
// every request; it is never read from the environment here.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		chain:          DefaultChain,
		apiKey:         apiKey,
		httpClient:     &http.Client{},
		requestTimeout: DefaultRequestTimeout,
		logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithChain sets the chain identifier used in every URL.
func WithChain(chain string) ClientOption {
	return func(c *Client) {
		c.chain = chain
	}
}

// WithRequestTimeout bounds each call. Zero disables the per-call deadline.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.requestTimeout = d
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "dextools").Logger()
	}
}

// Chain returns the chain identifier the client queries.
func (c *Client) Chain() string {
	return c.chain
}
