package scraper

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/digestly/digestly/pkg/domain"
)

// YouTube scrapes channel upload feeds. YouTube publishes a plain Atom feed
// per channel with media extensions carrying view counts and thumbnails, so no
// API key is required.
type YouTube struct {
	parser   *gofeed.Parser
	channels []string
	timeout  time.Duration
	baseURL  string
	now      func() time.Time
}

// NewYouTube creates a youtube channel feed scraper
func NewYouTube(channels []string, timeout time.Duration, userAgent string) *YouTube {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	return &YouTube{
		parser:   parser,
		channels: channels,
		timeout:  timeout,
		baseURL:  "https://www.youtube.com/feeds/videos.xml",
		now:      time.Now,
	}
}

// Name returns the scraper identifier
func (y *YouTube) Name() string { return "youtube" }

// Fetch retrieves latest uploads from all configured channels
func (y *YouTube) Fetch(ctx context.Context) ([]domain.ContentItem, error) {
	var items []domain.ContentItem
	for _, channel := range y.channels {
		channelItems, err := y.fetchChannel(ctx, channel)
		if err != nil {
			return items, fmt.Errorf("fetch channel %s: %w", channel, err)
		}
		items = append(items, channelItems...)
	}
	return items, nil
}

func (y *YouTube) fetchChannel(ctx context.Context, channelID string) ([]domain.ContentItem, error) {
	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	feed, err := y.parser.ParseURLWithContext(fmt.Sprintf("%s?channel_id=%s", y.baseURL, channelID), ctx)
	if err != nil {
		return nil, fmt.Errorf("parse channel feed: %w", err)
	}

	items := make([]domain.ContentItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry.Title == "" || entry.Link == "" {
			continue
		}

		item := domain.ContentItem{
			Title:     entry.Title,
			Source:    domain.SourceYouTube,
			SourceURL: entry.Link,
		}

		switch {
		case entry.PublishedParsed != nil:
			item.CreatedAt = entry.PublishedParsed.UTC()
		case entry.UpdatedParsed != nil:
			item.CreatedAt = entry.UpdatedParsed.UTC()
		default:
			item.CreatedAt = y.now().UTC()
		}

		if entry.Author != nil {
			item.Author = entry.Author.Name
		}

		fillMediaStats(&item, entry.Extensions)
		items = append(items, item)
	}
	return items, nil
}

// fillMediaStats pulls views, description and thumbnail from the media:group
// extension block of a youtube feed entry
func fillMediaStats(item *domain.ContentItem, extensions ext.Extensions) {
	media, ok := extensions["media"]
	if !ok {
		return
	}
	groups, ok := media["group"]
	if !ok || len(groups) == 0 {
		return
	}
	group := groups[0]

	if descs, ok := group.Children["description"]; ok && len(descs) > 0 {
		item.Summary = descs[0].Value
	}
	if thumbs, ok := group.Children["thumbnail"]; ok && len(thumbs) > 0 {
		item.ImageURL = thumbs[0].Attrs["url"]
	}
	if communities, ok := group.Children["community"]; ok && len(communities) > 0 {
		community := communities[0]
		if stats, ok := community.Children["statistics"]; ok && len(stats) > 0 {
			if views, err := strconv.Atoi(stats[0].Attrs["views"]); err == nil {
				item.ViewsCount = views
			}
		}
		if ratings, ok := community.Children["starRating"]; ok && len(ratings) > 0 {
			if count, err := strconv.Atoi(ratings[0].Attrs["count"]); err == nil {
				item.Score = count
			}
		}
	}
}
