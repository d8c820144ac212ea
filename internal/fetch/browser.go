// internal/fetch/browser.go
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/grantio/grantscraper/internal/utils"
)

// BrowserFetcher renders pages in headless Chrome before returning
// their HTML. Regional portals built on client-side frameworks serve
// empty shells to plain HTTP clients; those sources set use_browser.
type BrowserFetcher struct {
	userAgent string
	timeout   time.Duration
	waitFor   time.Duration
	cache     *Cache
	logger    utils.Logger
}

// BrowserConfig defines options for the headless browser fetcher
type BrowserConfig struct {
	UserAgent string
	Timeout   time.Duration
	// WaitFor is the settle delay after load, giving client-side
	// rendering time to fill the page.
	WaitFor time.Duration
	Cache   *Cache
	Logger  utils.Logger
}

// NewBrowserFetcher creates a headless browser fetcher
func NewBrowserFetcher(config BrowserConfig) *BrowserFetcher {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.WaitFor == 0 {
		config.WaitFor = 2 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgents()[0]
	}
	if config.Logger == nil {
		config.Logger = utils.NewNopLogger()
	}

	return &BrowserFetcher{
		userAgent: config.UserAgent,
		timeout:   config.Timeout,
		waitFor:   config.WaitFor,
		cache:     config.Cache,
		logger:    config.Logger,
	}
}

// Fetch navigates to the URL, waits for the page to settle and
// returns the rendered HTML.
func (b *BrowserFetcher) Fetch(ctx context.Context, targetURL string) (*Response, error) {
	if resp, ok := b.cache.Get(targetURL); ok {
		b.logger.WithField("url", targetURL).Debug("cache hit")
		return resp, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(b.userAgent),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, b.timeout)
	defer cancelRun()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(b.waitFor),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: browser fetch of %s: %v", ErrTransient, targetURL, err)
	}

	resp := &Response{
		URL:         targetURL,
		StatusCode:  200,
		Body:        []byte(html),
		ContentType: "text/html",
		FetchedAt:   time.Now(),
	}
	b.cache.Put(targetURL, resp)
	return resp, nil
}
