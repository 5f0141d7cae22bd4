package db

import (
	"strings"
	"time"

	"github.com/digestly/digestly/pkg/domain"
)

// Item represents a scraped content item row
type Item struct {
	ID            int64     `db:"id"`
	Title         string    `db:"title"`
	Source        string    `db:"source"`
	SourceURL     string    `db:"source_url"`
	CreatedAt     time.Time `db:"created_at"`
	Score         int       `db:"score"`
	CommentsCount int       `db:"comments_count"`
	ViewsCount    int       `db:"views_count"`
	Summary       string    `db:"summary"`
	Content       string    `db:"content"`
	Author        string    `db:"author"`
	ImageURL      string    `db:"image_url"`
	Tags          string    `db:"tags"` // comma-separated
	FetchedAt     time.Time `db:"fetched_at"`
}

// Newsletter represents a generated newsletter row
type Newsletter struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	HTML      string    `db:"html"`
	ItemCount int       `db:"item_count"`
	Fallback  bool      `db:"fallback"`
	CreatedAt time.Time `db:"created_at"`
}

// tags are stored as a comma-separated column, empty string means no tags

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// fromDomainItem converts a domain item to its storage representation
func fromDomainItem(item *domain.ContentItem) *Item {
	return &Item{
		ID:            item.ID,
		Title:         item.Title,
		Source:        string(item.Source),
		SourceURL:     item.SourceURL,
		CreatedAt:     item.CreatedAt,
		Score:         item.Score,
		CommentsCount: item.CommentsCount,
		ViewsCount:    item.ViewsCount,
		Summary:       item.Summary,
		Content:       item.Content,
		Author:        item.Author,
		ImageURL:      item.ImageURL,
		Tags:          joinTags(item.Tags),
	}
}

// toDomainItem converts a storage row to a domain item
func toDomainItem(item *Item) domain.ContentItem {
	return domain.ContentItem{
		ID:            item.ID,
		Title:         item.Title,
		Source:        domain.ParseSource(item.Source),
		SourceURL:     item.SourceURL,
		CreatedAt:     item.CreatedAt,
		Score:         item.Score,
		CommentsCount: item.CommentsCount,
		ViewsCount:    item.ViewsCount,
		Summary:       item.Summary,
		Content:       item.Content,
		Author:        item.Author,
		ImageURL:      item.ImageURL,
		Tags:          splitTags(item.Tags),
	}
}
