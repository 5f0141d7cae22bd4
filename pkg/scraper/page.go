package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/markusmobius/go-trafilatura"

	"github.com/digestly/digestly/pkg/domain"
)

// PageExtractor pulls full article text from a blog item's page using
// trafilatura, filling in Content, Author and ImageURL the feed entry lacked.
// Completeness matters: extracted body text and images raise the item's
// quality score during selection.
type PageExtractor struct {
	client        *http.Client
	minTextLength int
	userAgent     string
}

// NewPageExtractor creates a page extractor
func NewPageExtractor(timeout time.Duration, minTextLength int, userAgent string) *PageExtractor {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &PageExtractor{
		client:        newHTTPClient(timeout),
		minTextLength: minTextLength,
		userAgent:     userAgent,
	}
}

// Enrich fetches the item's page and merges extracted fields into a copy of
// the item. Extraction failures leave the item as-is and return the error so
// the caller can log and move on.
func (e *PageExtractor) Enrich(ctx context.Context, item domain.ContentItem) (domain.ContentItem, error) {
	parsedURL, err := url.Parse(item.SourceURL)
	if err != nil {
		return item, fmt.Errorf("parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return item, fmt.Errorf("invalid URL: %s", item.SourceURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.SourceURL, http.NoBody)
	if err != nil {
		return item, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	addBrowserHeaders(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return item, fmt.Errorf("fetch URL %s: %w", item.SourceURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return item, fmt.Errorf("unexpected status code %d for URL %s", resp.StatusCode, item.SourceURL)
	}

	result, err := trafilatura.Extract(resp.Body, trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: true,
		IncludeImages:   true,
		OriginalURL:     parsedURL,
	})
	if err != nil {
		return item, fmt.Errorf("extract content from %s: %w", item.SourceURL, err)
	}
	if result == nil {
		return item, fmt.Errorf("no content extracted from %s", item.SourceURL)
	}

	text := strings.TrimSpace(result.ContentText)
	if len(text) >= e.minTextLength {
		item.Content = text
	}
	if item.Author == "" && result.Metadata.Author != "" {
		item.Author = result.Metadata.Author
	}
	if item.ImageURL == "" && result.Metadata.Image != "" {
		item.ImageURL = result.Metadata.Image
	}
	if item.Summary == "" && result.Metadata.Description != "" {
		item.Summary = result.Metadata.Description
	}

	return item, nil
}
