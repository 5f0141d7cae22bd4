// Package scraper fetches content items from configured sources. Every
// scraper normalizes items at ingestion: Title and SourceURL are always set
// and CreatedAt falls back to the fetch time when the source provides no
// timestamp, so downstream scoring never sees a zero time.
package scraper

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// newHTTPClient builds the shared client used by all scrapers
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// stripHTML flattens markup to plain text, collapsing whitespace. Feed
// descriptions frequently carry HTML fragments that would pollute summaries.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	var sb strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			sb.WriteString(tokenizer.Token().Data)
			sb.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
