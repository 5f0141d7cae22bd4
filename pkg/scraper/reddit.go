package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/digestly/digestly/pkg/domain"
)

// Reddit scrapes hot posts from configured subreddits via the public JSON
// listing API, no OAuth needed for read-only access.
type Reddit struct {
	client     *http.Client
	subreddits []string
	limit      int
	userAgent  string
	baseURL    string
	now        func() time.Time
}

// RedditConfig holds reddit scraper settings
type RedditConfig struct {
	Subreddits []string
	Limit      int
	Timeout    time.Duration
	UserAgent  string
	BaseURL    string // override for tests, defaults to https://www.reddit.com
}

// NewReddit creates a reddit scraper
func NewReddit(cfg RedditConfig) *Reddit {
	if cfg.Limit == 0 {
		cfg.Limit = 25
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.reddit.com"
	}
	return &Reddit{
		client:     newHTTPClient(cfg.Timeout),
		subreddits: cfg.Subreddits,
		limit:      cfg.Limit,
		userAgent:  cfg.UserAgent,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		now:        time.Now,
	}
}

// Name returns the scraper identifier
func (r *Reddit) Name() string { return "reddit" }

// redditListing mirrors the subset of the listing response we care about
type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title         string  `json:"title"`
	Permalink     string  `json:"permalink"`
	Score         int     `json:"score"`
	NumComments   int     `json:"num_comments"`
	CreatedUTC    float64 `json:"created_utc"`
	Author        string  `json:"author"`
	Selftext      string  `json:"selftext"`
	Thumbnail     string  `json:"thumbnail"`
	LinkFlairText string  `json:"link_flair_text"`
	Stickied      bool    `json:"stickied"`
}

// Fetch retrieves hot posts from all configured subreddits
func (r *Reddit) Fetch(ctx context.Context) ([]domain.ContentItem, error) {
	var items []domain.ContentItem
	for _, sub := range r.subreddits {
		subItems, err := r.fetchSubreddit(ctx, sub)
		if err != nil {
			return items, fmt.Errorf("fetch subreddit %s: %w", sub, err)
		}
		items = append(items, subItems...)
	}
	return items, nil
}

func (r *Reddit) fetchSubreddit(ctx context.Context, sub string) ([]domain.ContentItem, error) {
	url := fmt.Sprintf("%s/r/%s/hot.json?limit=%d&raw_json=1", r.baseURL, sub, r.limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	items := make([]domain.ContentItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Title == "" || post.Stickied {
			continue // pinned mod posts are noise, not content
		}

		createdAt := r.now().UTC()
		if post.CreatedUTC > 0 {
			createdAt = time.Unix(int64(post.CreatedUTC), 0).UTC()
		}

		item := domain.ContentItem{
			Title:         post.Title,
			Source:        domain.SourceReddit,
			SourceURL:     r.baseURL + post.Permalink,
			CreatedAt:     createdAt,
			Score:         post.Score,
			CommentsCount: post.NumComments,
			Content:       post.Selftext,
			Author:        post.Author,
		}
		if strings.HasPrefix(post.Thumbnail, "http") {
			item.ImageURL = post.Thumbnail
		}
		if post.LinkFlairText != "" {
			item.Tags = []string{post.LinkFlairText}
		}
		items = append(items, item)
	}
	return items, nil
}
