package domain

import "time"

// Source identifies where a content item was scraped from. Scoring is normalized
// per source because raw engagement metrics are not comparable across them.
type Source string

// known content sources
const (
	SourceReddit  Source = "reddit"
	SourceYouTube Source = "youtube"
	SourceRSS     Source = "rss"
	SourceBlog    Source = "blog"
	SourceX       Source = "x"
	SourceOther   Source = "other"
)

// ParseSource maps a raw string to a known source, falling back to SourceOther
// so unknown origins still get the generic scoring branch.
func ParseSource(s string) Source {
	switch Source(s) {
	case SourceReddit, SourceYouTube, SourceRSS, SourceBlog, SourceX:
		return Source(s)
	}
	return SourceOther
}

// ContentItem is one scraped unit (post, video, article) with engagement metrics
// and metadata. SourceURL is the item's identity; exact-URL dedup happens at
// ingestion time, not during selection.
type ContentItem struct {
	ID            int64
	Title         string
	Source        Source
	SourceURL     string
	CreatedAt     time.Time
	Score         int // source-native engagement signal, e.g. upvotes
	CommentsCount int
	ViewsCount    int
	Summary       string
	Content       string
	Author        string
	ImageURL      string
	Tags          []string
}

// Newsletter is a generated document persisted after a selection run.
type Newsletter struct {
	ID        int64
	Title     string
	HTML      string
	ItemCount int
	Fallback  bool // true when the LLM draft failed and the deterministic renderer was used
	CreatedAt time.Time
}
