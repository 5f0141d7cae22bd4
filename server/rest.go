package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/digestly/digestly/pkg/db"
	"github.com/digestly/digestly/pkg/domain"
	"github.com/digestly/digestly/pkg/newsletter"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// itemJSON is the wire representation of a content item
type itemJSON struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Source        string    `json:"source"`
	SourceURL     string    `json:"source_url"`
	CreatedAt     time.Time `json:"created_at"`
	Score         int       `json:"score"`
	CommentsCount int       `json:"comments_count"`
	ViewsCount    int       `json:"views_count"`
	Summary       string    `json:"summary,omitempty"`
	Author        string    `json:"author,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
}

// newsletterJSON is the wire representation of a generated newsletter
type newsletterJSON struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	HTML      string    `json:"html,omitempty"`
	ItemCount int       `json:"item_count"`
	Fallback  bool      `json:"fallback"`
	CreatedAt time.Time `json:"created_at"`
}

func toItemJSON(item domain.ContentItem) itemJSON {
	return itemJSON{
		ID:            item.ID,
		Title:         item.Title,
		Source:        string(item.Source),
		SourceURL:     item.SourceURL,
		CreatedAt:     item.CreatedAt,
		Score:         item.Score,
		CommentsCount: item.CommentsCount,
		ViewsCount:    item.ViewsCount,
		Summary:       item.Summary,
		Author:        item.Author,
		ImageURL:      item.ImageURL,
		Tags:          item.Tags,
	}
}

func toNewsletterJSON(nl domain.Newsletter, includeHTML bool) newsletterJSON {
	res := newsletterJSON{
		ID:        nl.ID,
		Title:     nl.Title,
		ItemCount: nl.ItemCount,
		Fallback:  nl.Fallback,
		CreatedAt: nl.CreatedAt,
	}
	if includeHTML {
		res.HTML = nl.HTML
	}
	return res
}

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
	}
	renderJSON(w, r, http.StatusOK, status)
}

// listItemsHandler returns stored items, optionally filtered by source
func (s *Server) listItemsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := queryInt(r, "limit", defaultListLimit)
	offset := queryInt(r, "offset", 0)
	if limit <= 0 || limit > maxListLimit || offset < 0 {
		renderError(w, r, fmt.Errorf("invalid pagination parameters"), http.StatusBadRequest)
		return
	}

	var items []domain.ContentItem
	var err error
	if src := r.URL.Query().Get("source"); src != "" {
		items, err = s.db.GetItemsBySource(ctx, domain.ParseSource(src), limit, offset)
	} else {
		items, err = s.db.GetItems(ctx, limit, offset)
	}
	if err != nil {
		log.Printf("[ERROR] failed to get items: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}

	res := make([]itemJSON, 0, len(items))
	for _, item := range items {
		res = append(res, toItemJSON(item))
	}
	renderJSON(w, r, http.StatusOK, res)
}

// scrapeHandler triggers an immediate scrape of all configured sources
func (s *Server) scrapeHandler(w http.ResponseWriter, r *http.Request) {
	s.scheduler.ScrapeNow(r.Context())
	renderJSON(w, r, http.StatusAccepted, map[string]string{"status": "scrape completed"})
}

// generateRequest is the body of POST /newsletters/generate, all fields optional
type generateRequest struct {
	MaxItems      int `json:"max_items"`
	MaxPerSource  int `json:"max_per_source"`
	LookbackHours int `json:"lookback_hours"`
}

// generateHandler builds a newsletter from the stored content pool
func (s *Server) generateHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		renderError(w, r, fmt.Errorf("invalid request body"), http.StatusBadRequest)
		return
	}
	if req.MaxItems < 0 || req.MaxPerSource < 0 || req.LookbackHours < 0 {
		renderError(w, r, fmt.Errorf("negative limits are not allowed"), http.StatusBadRequest)
		return
	}

	nl, err := s.generator.Generate(ctx, newsletter.Request{
		MaxItems:      req.MaxItems,
		MaxPerSource:  req.MaxPerSource,
		LookbackHours: req.LookbackHours,
	})
	if err != nil {
		if errors.Is(err, newsletter.ErrNoContent) {
			renderError(w, r, fmt.Errorf("no content available to build a newsletter"), http.StatusUnprocessableEntity)
			return
		}
		log.Printf("[ERROR] failed to generate newsletter: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}

	renderJSON(w, r, http.StatusCreated, toNewsletterJSON(*nl, true))
}

// listNewslettersHandler returns generated newsletters, most recent first,
// without the HTML body
func (s *Server) listNewslettersHandler(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	offset := queryInt(r, "offset", 0)
	if limit <= 0 || limit > maxListLimit || offset < 0 {
		renderError(w, r, fmt.Errorf("invalid pagination parameters"), http.StatusBadRequest)
		return
	}

	newsletters, err := s.db.GetNewsletters(r.Context(), limit, offset)
	if err != nil {
		log.Printf("[ERROR] failed to get newsletters: %v", err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}

	res := make([]newsletterJSON, 0, len(newsletters))
	for _, nl := range newsletters {
		res = append(res, toNewsletterJSON(nl, false))
	}
	renderJSON(w, r, http.StatusOK, res)
}

// getNewsletterHandler returns a single newsletter with its HTML body
func (s *Server) getNewsletterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		renderError(w, r, fmt.Errorf("invalid newsletter ID"), http.StatusBadRequest)
		return
	}

	nl, err := s.db.GetNewsletter(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNewsletterNotFound) {
			renderError(w, r, err, http.StatusNotFound)
			return
		}
		log.Printf("[ERROR] failed to get newsletter %d: %v", id, err)
		renderError(w, r, err, http.StatusInternalServerError)
		return
	}

	renderJSON(w, r, http.StatusOK, toNewsletterJSON(*nl, true))
}

// queryInt reads an integer query parameter with a default
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1 // fails range validation upstream
	}
	return n
}
