// Package client provides the splits.io HTTP client with response
// caching, request pacing, and error classification.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/splitsio/go-splitsio/pkg/cache"
	"github.com/splitsio/go-splitsio/pkg/ratelimit"
)

// DefaultBaseURL is the splits.io REST API base.
const DefaultBaseURL = "https://splits.io/api/v4/"

// DefaultUserAgent identifies this client to splits.io.
const DefaultUserAgent = "go-splitsio/0.1.0"

// Prometheus metrics for API requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitsio_requests_total",
		Help: "Total splits.io requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "splitsio_request_duration_seconds",
		Help:    "splits.io request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitsio_errors_total",
		Help: "Total splits.io errors by class",
	}, []string{"class"})
)

// Client is the splits.io API client. A single fetch is one blocking
// GET; there is no retry and no concurrent prefetching.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager // nil when caching is disabled
	pacer      *ratelimit.Pacer
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the splits.io API (default: DefaultBaseURL).
	BaseURL string

	// UserAgent sent with every request.
	UserAgent string

	// Redis enables response caching when set; nil disables it.
	Redis *redis.Client

	// Timeout per request.
	Timeout time.Duration

	// RateLimit caps requests per second; 0 means unlimited.
	RateLimit int
}

// DefaultConfig returns a safe default configuration. Caching is off
// unless a Redis client is supplied afterwards.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: DefaultUserAgent,
		Timeout:   30 * time.Second,
		RateLimit: 5,
	}
}

// New creates a new splits.io client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}

	logger := log.With().Str("component", "splitsio-client").Logger()

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager = cache.NewManager(cfg.Redis)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:  cacheManager,
		pacer:  ratelimit.NewPacer(cfg.RateLimit, logger),
		config: cfg,
		logger: logger,
	}, nil
}

// Get fetches one endpoint (path relative to the base URL, query
// included) and returns the response headers and body. Non-2xx
// statuses and network failures return an *APIError; the body of a
// successful response is fully read before returning.
func (c *Client) Get(ctx context.Context, endpoint string) (http.Header, []byte, error) {
	path, query := splitEndpoint(endpoint)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(path).Observe(time.Since(startTime).Seconds())
	}()

	// Check the response cache first; a hit never touches the network.
	cacheKey := cache.Key{Endpoint: path, Query: query}
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, cacheKey)
		if err == nil {
			c.logger.Debug().
				Str("endpoint", path).
				Bool("cache_hit", true).
				Msg("Serving response from cache")
			requestsTotal.WithLabelValues(path, "cached").Inc()
			return entry.Header, entry.Data, nil
		}
		if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("endpoint", path).Msg("Cache get error")
		}
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("pacing: %w", err)
	}

	uri := strings.TrimSuffix(c.config.BaseURL, "/") + "/" + strings.TrimPrefix(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", path).
		Msg("Executing splits.io request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(path, "network_error").Inc()
		c.logger.Error().Err(err).Str("endpoint", path).Msg("HTTP request failed")
		return nil, nil, &APIError{
			ErrorClass: ErrorClassNetwork,
			Endpoint:   path,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	requestsTotal.WithLabelValues(path, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errClass := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("endpoint", path).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("splits.io request error")
		return nil, nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Endpoint:   path,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Endpoint:   path,
			Message:    "read body",
			Err:        err,
		}
	}

	if c.cache != nil && resp.StatusCode == http.StatusOK {
		ttl := cache.TTLFor(path)
		entry := cache.NewEntry(resp.StatusCode, resp.Header, body, ttl)
		if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", path).Msg("Failed to cache response")
		} else {
			c.logger.Debug().
				Str("endpoint", path).
				Dur("ttl", ttl).
				Msg("Cached response")
		}
	}

	return resp.Header, body, nil
}

// classifyStatus categorizes a non-success status for observability.
func classifyStatus(status int) ErrorClass {
	if status >= 500 {
		return ErrorClassServer
	}
	return ErrorClassClient
}

// splitEndpoint separates an endpoint's path from its query string.
func splitEndpoint(endpoint string) (string, url.Values) {
	path, rawQuery, found := strings.Cut(endpoint, "?")
	path = strings.Trim(path, "/")
	if !found {
		return path, nil
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return path, nil
	}
	return path, query
}
