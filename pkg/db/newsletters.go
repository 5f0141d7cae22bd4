package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/digestly/digestly/pkg/domain"
)

// ErrNewsletterNotFound is returned when a requested newsletter does not exist
var ErrNewsletterNotFound = errors.New("newsletter not found")

// CreateNewsletter persists a generated newsletter
func (db *DB) CreateNewsletter(ctx context.Context, nl *domain.Newsletter) error {
	if nl.CreatedAt.IsZero() {
		nl.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO newsletters (title, html, item_count, fallback, created_at)
		VALUES (:title, :html, :item_count, :fallback, :created_at)
	`
	result, err := db.conn.NamedExecContext(ctx, query, &Newsletter{
		Title:     nl.Title,
		HTML:      nl.HTML,
		ItemCount: nl.ItemCount,
		Fallback:  nl.Fallback,
		CreatedAt: nl.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert newsletter: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	nl.ID = id
	return nil
}

// GetNewsletter retrieves a newsletter by ID
func (db *DB) GetNewsletter(ctx context.Context, id int64) (*domain.Newsletter, error) {
	var row Newsletter
	err := db.conn.GetContext(ctx, &row, `SELECT * FROM newsletters WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNewsletterNotFound
		}
		return nil, fmt.Errorf("get newsletter: %w", err)
	}
	return toDomainNewsletter(&row), nil
}

// GetNewsletters retrieves newsletters with pagination, newest first
func (db *DB) GetNewsletters(ctx context.Context, limit, offset int) ([]domain.Newsletter, error) {
	query := `
		SELECT * FROM newsletters
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	var rows []Newsletter
	if err := db.conn.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("get newsletters: %w", err)
	}

	newsletters := make([]domain.Newsletter, len(rows))
	for i := range rows {
		newsletters[i] = *toDomainNewsletter(&rows[i])
	}
	return newsletters, nil
}

func toDomainNewsletter(row *Newsletter) *domain.Newsletter {
	return &domain.Newsletter{
		ID:        row.ID,
		Title:     row.Title,
		HTML:      row.HTML,
		ItemCount: row.ItemCount,
		Fallback:  row.Fallback,
		CreatedAt: row.CreatedAt,
	}
}
