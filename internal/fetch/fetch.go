// internal/fetch/fetch.go

// Package fetch retrieves pages and files from grant sources. It
// wraps HTTP access with per-source rate limiting, retry with backoff,
// user-agent rotation and a short-lived response cache, and can route
// JavaScript-heavy sources through a headless browser.
package fetch

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Sentinel errors that classify fetch failures. Transient failures are
// retried and counted against the source; permanent ones fail fast.
var (
	ErrTransient = errors.New("transient fetch error")
	ErrPermanent = errors.New("permanent fetch error")
)

// Response is a fetched resource.
type Response struct {
	URL         string
	StatusCode  int
	Body        []byte
	ContentType string
	FetchedAt   time.Time
}

// Fetcher retrieves a single resource. Implementations must honor
// context cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// Cache keeps fetched responses for a TTL so that a run revisiting the
// same listing page (hybrid navigators do) does not refetch it.
type Cache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	resp    *Response
	expires time.Time
}

// NewCache creates a response cache. A non-positive TTL disables it.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns a cached response that has not expired.
func (c *Cache) Get(url string) (*Response, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expires) {
		delete(c.entries, url)
		return nil, false
	}
	return entry.resp, true
}

// Put stores a response.
func (c *Cache) Put(url string, resp *Response) {
	if c == nil || c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = cacheEntry{resp: resp, expires: time.Now().Add(c.ttl)}
}

// Len reports the number of live entries, expired ones included until
// their next lookup.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
