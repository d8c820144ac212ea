// internal/fetch/client_test.go
package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/grantio/grantscraper/internal/utils"
)

func newTestClient(cache *Cache) *Client {
	return NewClient(ClientConfig{
		RetryAttempts:     2,
		RetryDelay:        5 * time.Millisecond,
		RequestsPerSecond: 1000,
		Burst:             1000,
		Cache:             cache,
		Logger:            utils.NewNopLogger(),
	})
}

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("request sent without User-Agent")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	client := newTestClient(nil)
	resp, err := client.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if string(resp.Body) != "<html><body>ok</body></html>" {
		t.Errorf("unexpected body: %q", resp.Body)
	}
	if resp.ContentType != "text/html; charset=utf-8" {
		t.Errorf("content type = %q", resp.ContentType)
	}
}

func TestFetchRetriesTransient(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	client := newTestClient(nil)
	resp, err := client.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(resp.Body) != "recovered" {
		t.Errorf("body = %q, want recovered", resp.Body)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestFetchPermanentNoRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(nil)
	_, err := client.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Fetch() expected error for 404")
	}
	if !errors.Is(err, ErrPermanent) {
		t.Errorf("error %v is not ErrPermanent", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("404 retried: server called %d times, want 1", got)
	}
}

func TestFetchTransientClassification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(nil)
	_, err := client.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Fetch() expected error for persistent 502")
	}
	if !IsTransient(err) {
		t.Errorf("persistent 502 error %v should remain transient", err)
	}
}

func TestFetchCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := newTestClient(nil)
	_, err := client.Fetch(ctx, server.URL)
	if err == nil {
		t.Fatal("Fetch() expected error after cancellation")
	}
}

func TestFetchUsesCache(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("cached"))
	}))
	defer server.Close()

	client := newTestClient(NewCache(time.Minute))

	for i := 0; i < 3; i++ {
		if _, err := client.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server called %d times, want 1 (cache miss only)", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(10 * time.Millisecond)
	cache.Put("u", &Response{URL: "u"})

	if _, ok := cache.Get("u"); !ok {
		t.Fatal("fresh entry missing from cache")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := cache.Get("u"); ok {
		t.Error("expired entry still served")
	}
}

func TestUserAgentRotation(t *testing.T) {
	client := NewClient(ClientConfig{
		UserAgents: []string{"ua-1", "ua-2"},
		Logger:     utils.NewNopLogger(),
	})

	if got := client.nextUserAgent(); got != "ua-1" {
		t.Errorf("first UA = %q", got)
	}
	if got := client.nextUserAgent(); got != "ua-2" {
		t.Errorf("second UA = %q", got)
	}
	if got := client.nextUserAgent(); got != "ua-1" {
		t.Errorf("rotation did not wrap: %q", got)
	}
}

func TestFetchInvalidURL(t *testing.T) {
	client := newTestClient(nil)
	_, err := client.Fetch(context.Background(), "http://invalid host/")
	if err == nil {
		t.Fatal("Fetch() expected error for invalid URL")
	}
}
