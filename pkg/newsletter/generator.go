package newsletter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/digestly/digestly/pkg/config"
	"github.com/digestly/digestly/pkg/curation"
	"github.com/digestly/digestly/pkg/domain"
)

// ErrNoContent is returned when the selection comes back below the configured
// minimum; the HTTP layer maps it to a user-facing "no content available"
// error, generation itself is not retried.
var ErrNoContent = errors.New("no content available to build a newsletter")

// candidateLimit bounds how many stored items one generation run considers
const candidateLimit = 500

// Store provides candidate items and persists generated newsletters
type Store interface {
	GetRecentItems(ctx context.Context, since time.Time, limit int) ([]domain.ContentItem, error)
	CreateNewsletter(ctx context.Context, nl *domain.Newsletter) error
}

// Writer drafts a newsletter from a selection
type Writer interface {
	Draft(ctx context.Context, items []domain.ContentItem) (*domain.Newsletter, error)
}

// Generator runs the full pipeline for one newsletter: load candidates,
// curate, draft with the LLM, fall back to deterministic rendering on draft
// failure, persist the result.
type Generator struct {
	store    Store
	writer   Writer
	selector *curation.Selector
	cfg      config.CurationConfig
	now      func() time.Time
}

// NewGenerator creates a generator. Writer may be nil, in which case every
// newsletter uses the fallback renderer. A nil now falls back to time.Now.
func NewGenerator(store Store, writer Writer, selector *curation.Selector, cfg config.CurationConfig, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{store: store, writer: writer, selector: selector, cfg: cfg, now: now}
}

// Request holds per-generation overrides; zero values fall back to the
// configured curation defaults
type Request struct {
	MaxItems      int
	MaxPerSource  int
	LookbackHours int
}

// Generate produces and persists one newsletter. Returns ErrNoContent when
// the selection is smaller than the configured minimum.
func (g *Generator) Generate(ctx context.Context, req Request) (*domain.Newsletter, error) {
	maxItems := req.MaxItems
	if maxItems <= 0 {
		maxItems = g.cfg.MaxItems
	}
	maxPerSource := req.MaxPerSource
	if maxPerSource <= 0 {
		maxPerSource = curation.DefaultPerSourceCap(maxItems)
	}
	lookback := req.LookbackHours
	if lookback <= 0 {
		lookback = g.cfg.LookbackHours
	}

	since := g.now().Add(-time.Duration(lookback) * time.Hour)
	candidates, err := g.store.GetRecentItems(ctx, since, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	// the upstream contract guarantees a usable timestamp on every item;
	// a zero time here means broken ingestion, failing loudly beats letting
	// malformed items rank as maximally fresh
	for i := range candidates {
		if candidates[i].CreatedAt.IsZero() {
			return nil, fmt.Errorf("candidate %q has no created_at, upstream contract violated", candidates[i].SourceURL)
		}
	}

	selected := g.selector.Select(candidates, maxItems, maxPerSource)
	if len(selected) < g.cfg.MinItems {
		return nil, ErrNoContent
	}

	nl := g.draft(ctx, selected)

	if err := g.store.CreateNewsletter(ctx, nl); err != nil {
		return nil, fmt.Errorf("store newsletter: %w", err)
	}

	log.Printf("[INFO] generated newsletter %q with %d items (fallback=%v)", nl.Title, nl.ItemCount, nl.Fallback)
	return nl, nil
}

// draft asks the LLM writer for a newsletter, dropping to the deterministic
// fallback renderer when the writer is unavailable or fails
func (g *Generator) draft(ctx context.Context, selected []domain.ContentItem) *domain.Newsletter {
	if g.writer != nil {
		nl, err := g.writer.Draft(ctx, selected)
		if err == nil {
			nl.HTML = sanitizeHTML(nl.HTML)
			return nl
		}
		log.Printf("[WARN] llm draft failed, using fallback rendering: %v", err)
	}

	return renderFallback(selected, g.now())
}
