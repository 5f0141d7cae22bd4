package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digestly/digestly/pkg/domain"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// create temp file for test database
	tmpFile, err := os.CreateTemp(t.TempDir(), "test-*.db")
	require.NoError(t, err)
	tmpFile.Close()

	database, err := New(Config{DSN: "file:" + tmpFile.Name() + "?mode=rwc"})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return database
}

func testItem(title, sourceURL string) domain.ContentItem {
	return domain.ContentItem{
		Title:         title,
		Source:        domain.SourceReddit,
		SourceURL:     sourceURL,
		CreatedAt:     time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Score:         42,
		CommentsCount: 7,
		Summary:       "a summary",
		Author:        "alice",
		Tags:          []string{"go", "news"},
	}
}

func TestDB_InitSchema(t *testing.T) {
	database := setupTestDB(t)

	var count int
	err := database.conn.Get(&count, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name IN ('items', 'newsletters')
	`)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDB_Ping(t *testing.T) {
	database := setupTestDB(t)
	assert.NoError(t, database.Ping(context.Background()))
}

func TestDB_CreateItem(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	item := testItem("First Post", "https://reddit.com/r/golang/1")
	created, err := database.CreateItem(ctx, &item)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, item.ID)

	got, err := database.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "First Post", got.Title)
	assert.Equal(t, domain.SourceReddit, got.Source)
	assert.Equal(t, []string{"go", "news"}, got.Tags)
	assert.Equal(t, 42, got.Score)
}

func TestDB_CreateItem_DuplicateURL(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	item := testItem("First Post", "https://reddit.com/r/golang/1")
	created, err := database.CreateItem(ctx, &item)
	require.NoError(t, err)
	assert.True(t, created)

	dup := testItem("Same Story Reposted", "https://reddit.com/r/golang/1")
	created, err = database.CreateItem(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, created, "exact source_url duplicates are skipped at ingestion")

	items, err := database.GetItems(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestDB_CreateItem_MissingCreatedAt(t *testing.T) {
	database := setupTestDB(t)

	item := domain.ContentItem{Title: "bad", Source: domain.SourceRSS, SourceURL: "https://e.com/1"}
	_, err := database.CreateItem(context.Background(), &item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "created_at")
}

func TestDB_CreateItems_Batch(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	items := []domain.ContentItem{
		testItem("Post 1", "https://reddit.com/r/golang/1"),
		testItem("Post 2", "https://reddit.com/r/golang/2"),
		testItem("Post 1 again", "https://reddit.com/r/golang/1"), // dup URL within batch
	}

	inserted, err := database.CreateItems(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
}

func TestDB_GetRecentItems(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	fresh := testItem("Fresh", "https://reddit.com/r/golang/fresh")
	fresh.CreatedAt = now.Add(-2 * time.Hour)
	stale := testItem("Stale", "https://reddit.com/r/golang/stale")
	stale.CreatedAt = now.Add(-100 * time.Hour)

	_, err := database.CreateItems(ctx, []domain.ContentItem{fresh, stale})
	require.NoError(t, err)

	items, err := database.GetRecentItems(ctx, now.Add(-48*time.Hour), 100)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Fresh", items[0].Title)
}

func TestDB_GetItemsBySource(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	reddit := testItem("Reddit Post", "https://reddit.com/r/golang/1")
	video := testItem("Video", "https://youtube.com/watch?v=1")
	video.Source = domain.SourceYouTube

	_, err := database.CreateItems(ctx, []domain.ContentItem{reddit, video})
	require.NoError(t, err)

	items, err := database.GetItemsBySource(ctx, domain.SourceYouTube, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Video", items[0].Title)
}

func TestDB_GetItem_NotFound(t *testing.T) {
	database := setupTestDB(t)

	_, err := database.GetItem(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestDB_DeleteItemsOlderThan(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	old := testItem("Old", "https://reddit.com/r/golang/old")
	old.CreatedAt = now.Add(-30 * 24 * time.Hour)
	recent := testItem("Recent", "https://reddit.com/r/golang/recent")
	recent.CreatedAt = now.Add(-time.Hour)

	_, err := database.CreateItems(ctx, []domain.ContentItem{old, recent})
	require.NoError(t, err)

	deleted, err := database.DeleteItemsOlderThan(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	items, err := database.GetItems(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestDB_Newsletters(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	nl := &domain.Newsletter{Title: "Weekly Digest", HTML: "<h1>Weekly Digest</h1>", ItemCount: 5}
	require.NoError(t, database.CreateNewsletter(ctx, nl))
	assert.NotZero(t, nl.ID)

	got, err := database.GetNewsletter(ctx, nl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Weekly Digest", got.Title)
	assert.Equal(t, 5, got.ItemCount)
	assert.False(t, got.Fallback)
	assert.False(t, got.CreatedAt.IsZero())

	fallback := &domain.Newsletter{Title: "Fallback Digest", HTML: "<ul></ul>", ItemCount: 3, Fallback: true}
	require.NoError(t, database.CreateNewsletter(ctx, fallback))

	list, err := database.GetNewsletters(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	_, err = database.GetNewsletter(ctx, 9999)
	assert.ErrorIs(t, err, ErrNewsletterNotFound)
}
