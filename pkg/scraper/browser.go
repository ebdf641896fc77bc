package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders pages in headless Chrome so script-built content is
// visible to the selectors
type BrowserFetcher struct {
	userAgent string
	timeout   time.Duration
}

func NewBrowserFetcher(userAgent string, timeout time.Duration) *BrowserFetcher {
	return &BrowserFetcher{userAgent: userAgent, timeout: timeout}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(f.userAgent),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, f.timeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("browser fetch failed: %w", err)
	}
	return html, nil
}
