package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digestly/digestly/pkg/db"
	"github.com/digestly/digestly/pkg/domain"
	"github.com/digestly/digestly/pkg/newsletter"
)

type mockDatabase struct {
	items          []domain.ContentItem
	itemsErr       error
	newsletters    []domain.Newsletter
	newsletter     *domain.Newsletter
	newsletterErr  error
	gotSource      domain.Source
	sourceFiltered bool
}

func (m *mockDatabase) GetItems(_ context.Context, _, _ int) ([]domain.ContentItem, error) {
	return m.items, m.itemsErr
}

func (m *mockDatabase) GetItemsBySource(_ context.Context, source domain.Source, _, _ int) ([]domain.ContentItem, error) {
	m.sourceFiltered = true
	m.gotSource = source
	return m.items, m.itemsErr
}

func (m *mockDatabase) GetNewsletter(_ context.Context, _ int64) (*domain.Newsletter, error) {
	return m.newsletter, m.newsletterErr
}

func (m *mockDatabase) GetNewsletters(_ context.Context, _, _ int) ([]domain.Newsletter, error) {
	return m.newsletters, m.newsletterErr
}

type mockScheduler struct {
	scrapeCalls int
}

func (m *mockScheduler) ScrapeNow(_ context.Context) { m.scrapeCalls++ }

type mockGenerator struct {
	res    *domain.Newsletter
	err    error
	gotReq newsletter.Request
}

func (m *mockGenerator) Generate(_ context.Context, req newsletter.Request) (*domain.Newsletter, error) {
	m.gotReq = req
	return m.res, m.err
}

type mockConfig struct{}

func (m *mockConfig) GetServerConfig() (string, time.Duration) {
	return "127.0.0.1:0", 30 * time.Second
}

func testServer(t *testing.T, database *mockDatabase, sched *mockScheduler, gen *mockGenerator) *httptest.Server {
	t.Helper()
	srv := New(&mockConfig{}, database, sched, gen, "test", false)
	ts := httptest.NewServer(srv.router)
	t.Cleanup(ts.Close)
	return ts
}

func TestServer_Status(t *testing.T) {
	ts := testServer(t, &mockDatabase{}, &mockScheduler{}, &mockGenerator{})

	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, "test", status["version"])
}

func TestServer_Ping(t *testing.T) {
	ts := testServer(t, &mockDatabase{}, &mockScheduler{}, &mockGenerator{})

	resp, err := http.Get(ts.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))
}

func TestServer_ListItems(t *testing.T) {
	database := &mockDatabase{items: []domain.ContentItem{
		{
			ID: 1, Title: "go 1.25 released", Source: domain.SourceReddit,
			SourceURL: "https://reddit.com/r/golang/1", CreatedAt: time.Now().UTC(),
			Score: 420, CommentsCount: 101, Tags: []string{"release"},
		},
		{
			ID: 2, Title: "profiling deep dive", Source: domain.SourceYouTube,
			SourceURL: "https://youtube.com/watch?v=xyz", CreatedAt: time.Now().UTC(),
			ViewsCount: 15000,
		},
	}}
	ts := testServer(t, database, &mockScheduler{}, &mockGenerator{})

	resp, err := http.Get(ts.URL + "/api/v1/items")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var items []itemJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&items))
	require.Len(t, items, 2)
	assert.Equal(t, "go 1.25 released", items[0].Title)
	assert.Equal(t, "reddit", items[0].Source)
	assert.Equal(t, 420, items[0].Score)
	assert.Equal(t, []string{"release"}, items[0].Tags)
	assert.False(t, database.sourceFiltered)
}

func TestServer_ListItems_SourceFilter(t *testing.T) {
	database := &mockDatabase{}
	ts := testServer(t, database, &mockScheduler{}, &mockGenerator{})

	resp, err := http.Get(ts.URL + "/api/v1/items?source=youtube")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.True(t, database.sourceFiltered)
	assert.Equal(t, domain.SourceYouTube, database.gotSource)
}

func TestServer_ListItems_UnknownSourceMapsToOther(t *testing.T) {
	database := &mockDatabase{}
	ts := testServer(t, database, &mockScheduler{}, &mockGenerator{})

	resp, err := http.Get(ts.URL + "/api/v1/items?source=mastodon")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.SourceOther, database.gotSource)
}

func TestServer_ListItems_BadPagination(t *testing.T) {
	ts := testServer(t, &mockDatabase{}, &mockScheduler{}, &mockGenerator{})

	for _, q := range []string{"limit=0", "limit=9999", "limit=abc", "offset=-1"} {
		resp, err := http.Get(ts.URL + "/api/v1/items?" + q)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestServer_ListItems_DBError(t *testing.T) {
	database := &mockDatabase{itemsErr: errors.New("db gone")}
	ts := testServer(t, database, &mockScheduler{}, &mockGenerator{})

	resp, err := http.Get(ts.URL + "/api/v1/items")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestServer_Scrape(t *testing.T) {
	sched := &mockScheduler{}
	ts := testServer(t, &mockDatabase{}, sched, &mockGenerator{})

	resp, err := http.Post(ts.URL+"/api/v1/scrape", "application/json", http.NoBody)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 1, sched.scrapeCalls)
}

func TestServer_Generate(t *testing.T) {
	gen := &mockGenerator{res: &domain.Newsletter{
		ID: 7, Title: "Digest for 2025-06-01", HTML: "<h1>Digest</h1>", ItemCount: 5,
		CreatedAt: time.Now().UTC(),
	}}
	ts := testServer(t, &mockDatabase{}, &mockScheduler{}, gen)

	body := strings.NewReader(`{"max_items": 8, "max_per_source": 3, "lookback_hours": 24}`)
	resp, err := http.Post(ts.URL+"/api/v1/newsletters/generate", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, newsletter.Request{MaxItems: 8, MaxPerSource: 3, LookbackHours: 24}, gen.gotReq)

	var nl newsletterJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&nl))
	assert.Equal(t, int64(7), nl.ID)
	assert.Equal(t, "<h1>Digest</h1>", nl.HTML)
	assert.Equal(t, 5, nl.ItemCount)
}

func TestServer_Generate_EmptyBodyUsesDefaults(t *testing.T) {
	gen := &mockGenerator{res: &domain.Newsletter{Title: "digest"}}
	ts := testServer(t, &mockDatabase{}, &mockScheduler{}, gen)

	resp, err := http.Post(ts.URL+"/api/v1/newsletters/generate", "application/json", http.NoBody)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, newsletter.Request{}, gen.gotReq)
}

func TestServer_Generate_NoContent(t *testing.T) {
	gen := &mockGenerator{err: newsletter.ErrNoContent}
	ts := testServer(t, &mockDatabase{}, &mockScheduler{}, gen)

	resp, err := http.Post(ts.URL+"/api/v1/newsletters/generate", "application/json", http.NoBody)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var errResp map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, "no content available to build a newsletter", errResp["error"])
}

func TestServer_Generate_BadRequests(t *testing.T) {
	ts := testServer(t, &mockDatabase{}, &mockScheduler{}, &mockGenerator{})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"max_items": `},
		{"negative max_items", `{"max_items": -1}`},
		{"negative lookback", `{"lookback_hours": -24}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/v1/newsletters/generate", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestServer_Generate_InternalError(t *testing.T) {
	gen := &mockGenerator{err: errors.New("llm exploded")}
	ts := testServer(t, &mockDatabase{}, &mockScheduler{}, gen)

	resp, err := http.Post(ts.URL+"/api/v1/newsletters/generate", "application/json", http.NoBody)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestServer_ListNewsletters(t *testing.T) {
	database := &mockDatabase{newsletters: []domain.Newsletter{
		{ID: 2, Title: "second", HTML: "<p>big body</p>", ItemCount: 10, CreatedAt: time.Now().UTC()},
		{ID: 1, Title: "first", HTML: "<p>body</p>", ItemCount: 8, Fallback: true, CreatedAt: time.Now().UTC()},
	}}
	ts := testServer(t, database, &mockScheduler{}, &mockGenerator{})

	resp, err := http.Get(ts.URL + "/api/v1/newsletters")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []newsletterJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)
	assert.Empty(t, list[0].HTML, "list view omits the body")
	assert.True(t, list[1].Fallback)
}

func TestServer_GetNewsletter(t *testing.T) {
	database := &mockDatabase{newsletter: &domain.Newsletter{
		ID: 3, Title: "digest", HTML: "<h1>hi</h1>", ItemCount: 4, CreatedAt: time.Now().UTC(),
	}}
	ts := testServer(t, database, &mockScheduler{}, &mockGenerator{})

	resp, err := http.Get(ts.URL + "/api/v1/newsletters/3")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var nl newsletterJSON
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&nl))
	assert.Equal(t, "<h1>hi</h1>", nl.HTML)
}

func TestServer_GetNewsletter_NotFound(t *testing.T) {
	database := &mockDatabase{newsletterErr: db.ErrNewsletterNotFound}
	ts := testServer(t, database, &mockScheduler{}, &mockGenerator{})

	resp, err := http.Get(ts.URL + "/api/v1/newsletters/99")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_GetNewsletter_BadID(t *testing.T) {
	ts := testServer(t, &mockDatabase{}, &mockScheduler{}, &mockGenerator{})

	resp, err := http.Get(ts.URL + "/api/v1/newsletters/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_RunAndShutdown(t *testing.T) {
	srv := New(&mockConfig{}, &mockDatabase{}, &mockScheduler{}, &mockGenerator{}, "test", true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond) // let it bind
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}
