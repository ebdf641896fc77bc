package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<html>
<head><title> Shop </title></head>
<body>
  <h1>Catalog</h1>
  <ul>
    <li><span class="name">Pen</span> <span class="price"> 10 </span></li>
    <li><span class="name">Book</span> <span class="price">20</span></li>
  </ul>
</body>
</html>`

func newTestServer(t *testing.T) (*httptest.Server, *atomic.Value) {
	gotUA := &atomic.Value{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(testPage))
	}))
	t.Cleanup(server.Close)
	return server, gotUA
}

func TestScrape_WithSelectors(t *testing.T) {
	server, gotUA := newTestServer(t)
	s := New(NewHTTPFetcher("Mozilla/5.0 (test)", 5*time.Second))

	result, err := s.Scrape(context.Background(), server.URL, map[string]string{
		"prices": ".price",
		"names":  ".name",
		"none":   ".absent",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"10", "20"}, result["prices"])
	assert.Equal(t, []string{"Pen", "Book"}, result["names"])
	assert.Equal(t, []string{}, result["none"])
	assert.Equal(t, "Mozilla/5.0 (test)", gotUA.Load())
}

func TestScrape_WithoutSelectors(t *testing.T) {
	server, _ := newTestServer(t)
	s := New(NewHTTPFetcher("ua", 5*time.Second))

	result, err := s.Scrape(context.Background(), server.URL, nil)
	require.NoError(t, err)

	assert.Equal(t, "Shop", result["title"])
	assert.Contains(t, result["html"], `class="price"`)
	assert.Contains(t, result["text"], "Catalog")
	assert.Contains(t, result["markdown"], "# Catalog")
}

func TestScrape_Errors(t *testing.T) {
	server, _ := newTestServer(t)
	s := New(NewHTTPFetcher("ua", 5*time.Second))

	_, err := s.Scrape(context.Background(), "ftp://example.com", nil)
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, err = s.Scrape(context.Background(), "not a url", nil)
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, err = s.Scrape(context.Background(), server.URL+"/missing", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
