package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/digestly/digestly/pkg/domain"
)

// RSS scrapes configured RSS/Atom feeds. Also used for blog feeds, with the
// source label switched so blog items score on the generic branch but can be
// enriched by full-text extraction afterwards.
type RSS struct {
	parser  *gofeed.Parser
	urls    []string
	source  domain.Source
	timeout time.Duration
	now     func() time.Time
}

// NewRSS creates a feed scraper producing items labeled as the given source
func NewRSS(urls []string, source domain.Source, timeout time.Duration, userAgent string) *RSS {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &RSS{
		parser:  parser,
		urls:    urls,
		source:  source,
		timeout: timeout,
		now:     time.Now,
	}
}

// Name returns the scraper identifier
func (r *RSS) Name() string { return string(r.source) }

// Fetch retrieves and parses all configured feeds
func (r *RSS) Fetch(ctx context.Context) ([]domain.ContentItem, error) {
	var items []domain.ContentItem
	for _, url := range r.urls {
		feedItems, err := r.fetchFeed(ctx, url)
		if err != nil {
			return items, fmt.Errorf("fetch feed %s: %w", url, err)
		}
		items = append(items, feedItems...)
	}
	return items, nil
}

func (r *RSS) fetchFeed(ctx context.Context, url string) ([]domain.ContentItem, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	feed, err := r.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]domain.ContentItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry.Title == "" || entry.Link == "" {
			continue
		}

		item := domain.ContentItem{
			Title:     entry.Title,
			Source:    r.source,
			SourceURL: entry.Link,
			Summary:   stripHTML(entry.Description),
			Content:   stripHTML(entry.Content),
			Tags:      entry.Categories,
		}

		// normalize publish time at ingestion so scoring never sees zero
		switch {
		case entry.PublishedParsed != nil:
			item.CreatedAt = entry.PublishedParsed.UTC()
		case entry.UpdatedParsed != nil:
			item.CreatedAt = entry.UpdatedParsed.UTC()
		default:
			item.CreatedAt = r.now().UTC()
		}

		if entry.Author != nil {
			item.Author = entry.Author.Name
		}
		if entry.Image != nil {
			item.ImageURL = entry.Image.URL
		}

		items = append(items, item)
	}
	return items, nil
}
