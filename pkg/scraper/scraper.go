// Package scraper fetches web pages and extracts text with CSS selectors.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

var ErrInvalidURL = errors.New("url must be an absolute http(s) URL")

const maxBodyBytes = 10 << 20

// Fetcher downloads the raw HTML of a page
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// HTTPFetcher fetches pages with a plain HTTP GET
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

func NewHTTPFetcher(userAgent string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	return string(body), nil
}

// Scraper turns fetched pages into structured results
type Scraper struct {
	fetcher Fetcher
}

func New(fetcher Fetcher) *Scraper {
	return &Scraper{fetcher: fetcher}
}

// ValidateURL accepts only absolute http and https URLs
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// Scrape fetches pageURL. With selectors, every key maps to the trimmed text of
// each matching element. Without selectors, the page is returned as html, text
// and markdown.
func (s *Scraper) Scrape(ctx context.Context, pageURL string, selectors map[string]string) (map[string]interface{}, error) {
	if err := ValidateURL(pageURL); err != nil {
		return nil, err
	}

	html, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := make(map[string]interface{})

	if len(selectors) > 0 {
		for key, selector := range selectors {
			texts := []string{}
			doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
				texts = append(texts, strings.TrimSpace(sel.Text()))
			})
			result[key] = texts
		}
		return result, nil
	}

	result["title"] = strings.TrimSpace(doc.Find("title").First().Text())
	result["html"] = html
	result["text"] = strings.TrimSpace(doc.Find("body").Text())
	result["markdown"] = toMarkdown(pageURL, html)
	return result, nil
}

func toMarkdown(pageURL, html string) string {
	domain := ""
	if u, err := url.Parse(pageURL); err == nil {
		domain = u.Host
	}

	converter := md.NewConverter(domain, true, &md.Options{
		HeadingStyle:   "atx",
		CodeBlockStyle: "fenced",
	})
	converter.Remove("script", "style", "nav", "footer")

	markdown, err := converter.ConvertString(html)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(markdown)
}
