// Package steamapi provides a client for the Steam Web API endpoints used to build a stats report.
package steamapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/lepinkainen/steamfetch/internal/metrics"
	"github.com/lepinkainen/steamfetch/internal/ratelimit"
)

const (
	defaultBaseURL         = "https://api.steampowered.com"
	defaultMaxAttempts     = 3
	defaultBackoffBase     = 500 * time.Millisecond
	defaultTimeout         = 30 * time.Second
	defaultIdleConnTimeout = 5 * time.Second
	defaultLanguage        = "english"
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is a Steam Web API client bound to one API key and one Steam ID.
type Client struct {
	apiKey        string
	steamID       string
	baseURL       string
	language      string
	httpClient    HTTPDoer
	rateLimiter   *ratelimit.Limiter
	metrics       *metrics.Recorder
	retryAttempts int
	backoffBase   time.Duration
	sleep         func(time.Duration)
}

// NewClient creates a new Steam Web API client.
func NewClient(apiKey, steamID string, opts ...Option) *Client {
	client := &Client{
		apiKey:        apiKey,
		steamID:       steamID,
		baseURL:       defaultBaseURL,
		language:      defaultLanguage,
		httpClient:    NewHTTPClient(defaultTimeout),
		retryAttempts: defaultMaxAttempts,
		backoffBase:   defaultBackoffBase,
		sleep:         time.Sleep,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// NewHTTPClient returns the http.Client used for a run. Idle connections are
// dropped quickly because the Steam endpoints tend to reset long-lived ones.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.IdleConnTimeout = defaultIdleConnTimeout
	transport.MaxIdleConnsPerHost = 2

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// SteamID returns the Steam ID the client queries.
func (c *Client) SteamID() string {
	return c.steamID
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(client *Client) {
		if doer != nil {
			client.httpClient = doer
		}
	}
}

// WithTimeout replaces the HTTP client with one using the given per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(client *Client) {
		client.httpClient = NewHTTPClient(timeout)
	}
}

// WithBaseURL sets a custom base URL for the Steam Web API.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithLanguage sets the language used for achievement display names.
func WithLanguage(language string) Option {
	return func(client *Client) {
		if language != "" {
			client.language = language
		}
	}
}

// WithRetryAttempts sets the total number of attempts per request.
func WithRetryAttempts(attempts int) Option {
	return func(client *Client) {
		if attempts > 0 {
			client.retryAttempts = attempts
		}
	}
}

// WithBackoffBase sets the delay before the first retry; later retries double it.
func WithBackoffBase(base time.Duration) Option {
	return func(client *Client) {
		if base >= 0 {
			client.backoffBase = base
		}
	}
}

// WithRateLimiter sets the limiter awaited before every request. nil disables pacing.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(client *Client) {
		client.rateLimiter = limiter
	}
}

// WithMetrics sets the recorder for request metrics.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(client *Client) {
		client.metrics = recorder
	}
}
