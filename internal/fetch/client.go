// internal/fetch/client.go
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/grantio/grantscraper/internal/utils"
)

// Client is the HTTP fetcher used for one source. Each source gets its
// own client so rate limits never leak across domains.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *Cache
	logger     utils.Logger

	userAgents []string
	currentUA  int
	uaMutex    sync.Mutex

	retryAttempts int
	retryDelay    time.Duration
	maxBodySize   int64
}

// ClientConfig defines configuration options for the HTTP fetcher
type ClientConfig struct {
	Timeout           time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgents        []string
	Cache             *Cache
	Logger            utils.Logger
	MaxBodySize       int64
}

// NewClient creates an HTTP fetcher with the specified configuration
func NewClient(config ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RetryAttempts == 0 {
		config.RetryAttempts = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = 1.0
	}
	if config.Burst == 0 {
		config.Burst = 2
	}
	if len(config.UserAgents) == 0 {
		config.UserAgents = DefaultUserAgents()
	}
	if config.Logger == nil {
		config.Logger = utils.NewNopLogger()
	}
	if config.MaxBodySize == 0 {
		config.MaxBodySize = 20 << 20 // grant PDFs run to a few MB
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		httpClient:    httpClient,
		limiter:       rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		cache:         config.Cache,
		logger:        config.Logger,
		userAgents:    config.UserAgents,
		retryAttempts: config.RetryAttempts,
		retryDelay:    config.RetryDelay,
		maxBodySize:   config.MaxBodySize,
	}
}

// Fetch performs a GET with rate limiting and retry. Transient
// failures (network errors, 429, 5xx) are retried with exponential
// backoff; other HTTP errors return immediately wrapping ErrPermanent.
func (c *Client) Fetch(ctx context.Context, targetURL string) (*Response, error) {
	if _, err := url.Parse(targetURL); err != nil {
		return nil, fmt.Errorf("%w: invalid URL %q: %v", ErrPermanent, targetURL, err)
	}

	if resp, ok := c.cache.Get(targetURL); ok {
		c.logger.WithField("url", targetURL).Debug("cache hit")
		return resp, nil
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.doRequest(ctx, targetURL)
		if err == nil {
			c.cache.Put(targetURL, resp)
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !IsTransient(err) {
			return nil, err
		}

		if attempt < c.retryAttempts {
			c.logger.WithFields(map[string]interface{}{
				"url":     targetURL,
				"attempt": attempt + 1,
			}).Warnf("fetch failed, retrying: %v", err)

			if err := c.waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("fetch %s failed after %d attempts: %w",
		targetURL, c.retryAttempts+1, lastErr)
}

func (c *Client) doRequest(ctx context.Context, targetURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrPermanent, err)
	}
	c.setRequestHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := ErrPermanent
		if retryableStatus(resp.StatusCode) {
			kind = ErrTransient
		}
		return nil, fmt.Errorf("%w: HTTP %d for %s", kind, resp.StatusCode, targetURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %v", ErrTransient, err)
	}

	return &Response{
		URL:         targetURL,
		StatusCode:  resp.StatusCode,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FetchedAt:   time.Now(),
	}, nil
}

// setRequestHeaders configures browser-like headers with UA rotation
func (c *Client) setRequestHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.nextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "cs-CZ,cs;q=0.9,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")
}

func (c *Client) nextUserAgent() string {
	c.uaMutex.Lock()
	defer c.uaMutex.Unlock()

	ua := c.userAgents[c.currentUA]
	c.currentUA = (c.currentUA + 1) % len(c.userAgents)
	return ua
}

// waitForRetry implements exponential backoff with jitter
func (c *Client) waitForRetry(ctx context.Context, attempt int) error {
	delay := c.retryDelay * time.Duration(1<<uint(attempt))
	delay += time.Duration(rand.Int63n(int64(delay/2) + 1))
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func retryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	// CloudFlare's 52x family.
	return statusCode >= 520 && statusCode <= 524
}

// IsTransient reports whether an error is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// DefaultUserAgents returns the rotation pool used when a deployment
// does not configure its own.
func DefaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	}
}
