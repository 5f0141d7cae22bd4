package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/digestly/digestly/pkg/domain"
	"github.com/digestly/digestly/pkg/newsletter"
)

// Scheduler runs periodic scraping across all configured sources and,
// optionally, periodic newsletter generation.
type Scheduler struct {
	store            Store
	scrapers         []Scraper
	enricher         Enricher
	generator        Generator
	scrapeInterval   time.Duration
	generateInterval time.Duration
	maxWorkers       int
	wg               sync.WaitGroup
	cancel           context.CancelFunc
	dbMutex          sync.Mutex // serialize database writes
}

// Store interface for scheduler persistence
type Store interface {
	CreateItems(ctx context.Context, items []domain.ContentItem) (int, error)
}

// Scraper interface for a single content source
type Scraper interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.ContentItem, error)
}

// Enricher interface for page-level content enrichment
type Enricher interface {
	Enrich(ctx context.Context, item domain.ContentItem) (domain.ContentItem, error)
}

// Generator interface for newsletter generation
type Generator interface {
	Generate(ctx context.Context, req newsletter.Request) (*domain.Newsletter, error)
}

// Config holds scheduler configuration
type Config struct {
	ScrapeInterval   time.Duration
	GenerateInterval time.Duration // zero disables periodic generation
	MaxWorkers       int
}

// NewScheduler creates a new scheduler instance. Enricher and generator are
// optional; a nil generator disables the generation worker.
func NewScheduler(store Store, scrapers []Scraper, enricher Enricher, generator Generator, cfg Config) *Scheduler {
	if cfg.ScrapeInterval == 0 {
		cfg.ScrapeInterval = 30 * time.Minute
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 4
	}

	return &Scheduler{
		store:            store,
		scrapers:         scrapers,
		enricher:         enricher,
		generator:        generator,
		scrapeInterval:   cfg.ScrapeInterval,
		generateInterval: cfg.GenerateInterval,
		maxWorkers:       cfg.MaxWorkers,
	}
}

// Start begins the scheduler workers
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.scrapeWorker(ctx)

	if s.generator != nil && s.generateInterval > 0 {
		s.wg.Add(1)
		go s.generateWorker(ctx)
	}

	lgr.Printf("[INFO] scheduler started with scrape interval %v, generate interval %v, %d workers",
		s.scrapeInterval, s.generateInterval, s.maxWorkers)
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	lgr.Printf("[INFO] stopping scheduler...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// scrapeWorker periodically scrapes all sources
func (s *Scheduler) scrapeWorker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.scrapeInterval)
	defer ticker.Stop()

	// run immediately on start
	s.scrapeAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scrapeAll(ctx)
		}
	}
}

// scrapeAll fetches all sources concurrently with a bounded worker pool
// and stores whatever each source returned. A failing source is logged
// and skipped, it never fails the whole run.
func (s *Scheduler) scrapeAll(ctx context.Context) {
	lgr.Printf("[INFO] scraping %d sources", len(s.scrapers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxWorkers)

	var total int64
	var totalMu sync.Mutex

	for _, sc := range s.scrapers {
		g.Go(func() error {
			n := s.scrapeOne(gctx, sc)
			totalMu.Lock()
			total += int64(n)
			totalMu.Unlock()
			return nil
		})
	}

	_ = g.Wait() // workers never return errors, failures are logged per source
	lgr.Printf("[INFO] scrape completed, %d new items", total)
}

// scrapeOne fetches a single source and stores the result, returns the
// number of newly inserted items
func (s *Scheduler) scrapeOne(ctx context.Context, sc Scraper) int {
	lgr.Printf("[DEBUG] scraping source: %s", sc.Name())

	items, err := sc.Fetch(ctx)
	if err != nil {
		lgr.Printf("[WARN] failed to scrape %s: %v", sc.Name(), err)
		return 0
	}
	if len(items) == 0 {
		return 0
	}

	items = s.enrichItems(ctx, items)

	s.dbMutex.Lock()
	created, err := s.store.CreateItems(ctx, items)
	s.dbMutex.Unlock()
	if err != nil {
		lgr.Printf("[ERROR] failed to store items from %s: %v", sc.Name(), err)
		return 0
	}

	if created > 0 {
		lgr.Printf("[INFO] added %d new items from %s", created, sc.Name())
	}
	return created
}

// enrichItems runs page extraction on article-like items that came back
// without content. Reddit and YouTube items carry their own text and are
// left alone.
func (s *Scheduler) enrichItems(ctx context.Context, items []domain.ContentItem) []domain.ContentItem {
	if s.enricher == nil {
		return items
	}

	for i, item := range items {
		if item.Source != domain.SourceRSS && item.Source != domain.SourceBlog {
			continue
		}
		if item.Content != "" {
			continue
		}
		enriched, err := s.enricher.Enrich(ctx, item)
		if err != nil {
			lgr.Printf("[DEBUG] failed to enrich %s: %v", item.SourceURL, err)
			continue
		}
		items[i] = enriched
	}
	return items
}

// generateWorker periodically generates a newsletter from the stored pool
func (s *Scheduler) generateWorker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.generateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.generator.Generate(ctx, newsletter.Request{}); err != nil {
				lgr.Printf("[WARN] scheduled generation failed: %v", err)
			}
		}
	}
}

// ScrapeNow triggers an immediate scrape of all sources
func (s *Scheduler) ScrapeNow(ctx context.Context) {
	lgr.Printf("[INFO] triggered immediate scrape")
	s.scrapeAll(ctx)
}

// GenerateNow triggers immediate newsletter generation with the given request
func (s *Scheduler) GenerateNow(ctx context.Context, req newsletter.Request) (*domain.Newsletter, error) {
	if s.generator == nil {
		return nil, newsletter.ErrNoContent
	}
	lgr.Printf("[INFO] triggered immediate generation")
	return s.generator.Generate(ctx, req)
}
