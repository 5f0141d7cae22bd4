package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/jmoiron/sqlx"

	"github.com/digestly/digestly/pkg/domain"
)

// ErrItemNotFound is returned when a requested item does not exist
var ErrItemNotFound = errors.New("item not found")

// CreateItem inserts a new item, silently skipping exact source_url duplicates.
// Ingestion-time dedup by URL happens here; near-duplicate titles are the
// selector's concern.
func (db *DB) CreateItem(ctx context.Context, item *domain.ContentItem) (created bool, err error) {
	if item.CreatedAt.IsZero() {
		return false, fmt.Errorf("item %q has no created_at", item.SourceURL)
	}

	dbItem := fromDomainItem(item)
	query := `
		INSERT INTO items (
			title, source, source_url, created_at, score, comments_count,
			views_count, summary, content, author, image_url, tags
		) VALUES (
			:title, :source, :source_url, :created_at, :score, :comments_count,
			:views_count, :summary, :content, :author, :image_url, :tags
		)
		ON CONFLICT(source_url) DO NOTHING
	`
	result, err := db.conn.NamedExecContext(ctx, query, dbItem)
	if err != nil {
		return false, fmt.Errorf("insert item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil // duplicate source_url
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("get last insert id: %w", err)
	}
	item.ID = id
	return true, nil
}

// CreateItems inserts a batch of items in one transaction, retrying on
// transient SQLite busy errors. Returns the number of newly inserted rows.
func (db *DB) CreateItems(ctx context.Context, items []domain.ContentItem) (int, error) {
	for _, item := range items {
		if item.CreatedAt.IsZero() {
			return 0, fmt.Errorf("item %q has no created_at", item.SourceURL)
		}
	}

	inserted := 0
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))
	err := retrier.Do(ctx, func() error {
		inserted = 0
		return db.InTransaction(ctx, func(tx *sqlx.Tx) error {
			query := `
				INSERT INTO items (
					title, source, source_url, created_at, score, comments_count,
					views_count, summary, content, author, image_url, tags
				) VALUES (
					:title, :source, :source_url, :created_at, :score, :comments_count,
					:views_count, :summary, :content, :author, :image_url, :tags
				)
				ON CONFLICT(source_url) DO NOTHING
			`
			for i := range items {
				result, err := tx.NamedExecContext(ctx, query, fromDomainItem(&items[i]))
				if err != nil {
					return fmt.Errorf("insert item: %w", err)
				}
				rows, err := result.RowsAffected()
				if err != nil {
					return fmt.Errorf("get rows affected: %w", err)
				}
				inserted += int(rows)
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// GetItem retrieves an item by ID
func (db *DB) GetItem(ctx context.Context, id int64) (*domain.ContentItem, error) {
	var dbItem Item
	err := db.conn.GetContext(ctx, &dbItem, `SELECT * FROM items WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	item := toDomainItem(&dbItem)
	return &item, nil
}

// GetRecentItems retrieves items created within the lookback window, newest
// first. These are the newsletter selection candidates.
func (db *DB) GetRecentItems(ctx context.Context, since time.Time, limit int) ([]domain.ContentItem, error) {
	query := `
		SELECT * FROM items
		WHERE created_at >= ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	var dbItems []Item
	if err := db.conn.SelectContext(ctx, &dbItems, query, since, limit); err != nil {
		return nil, fmt.Errorf("get recent items: %w", err)
	}

	items := make([]domain.ContentItem, len(dbItems))
	for i := range dbItems {
		items[i] = toDomainItem(&dbItems[i])
	}
	return items, nil
}

// GetItemsBySource retrieves items for one source with pagination
func (db *DB) GetItemsBySource(ctx context.Context, source domain.Source, limit, offset int) ([]domain.ContentItem, error) {
	query := `
		SELECT * FROM items
		WHERE source = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	var dbItems []Item
	if err := db.conn.SelectContext(ctx, &dbItems, query, string(source), limit, offset); err != nil {
		return nil, fmt.Errorf("get items by source: %w", err)
	}

	items := make([]domain.ContentItem, len(dbItems))
	for i := range dbItems {
		items[i] = toDomainItem(&dbItems[i])
	}
	return items, nil
}

// GetItems retrieves items with pagination, newest first
func (db *DB) GetItems(ctx context.Context, limit, offset int) ([]domain.ContentItem, error) {
	query := `
		SELECT * FROM items
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	var dbItems []Item
	if err := db.conn.SelectContext(ctx, &dbItems, query, limit, offset); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	items := make([]domain.ContentItem, len(dbItems))
	for i := range dbItems {
		items[i] = toDomainItem(&dbItems[i])
	}
	return items, nil
}

// DeleteItemsOlderThan removes items created before the cutoff, returns count
func (db *DB) DeleteItemsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM items WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old items: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return deleted, nil
}
