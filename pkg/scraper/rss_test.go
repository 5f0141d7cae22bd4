package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digestly/digestly/pkg/domain"
)

func TestRSS_Fetch(t *testing.T) {
	rssContent := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
	<title>Test Feed</title>
	<link>http://example.com</link>
	<item>
		<title>Test Article 1</title>
		<link>http://example.com/article1</link>
		<description><![CDATA[<p>Article 1 <b>description</b></p>]]></description>
		<content:encoded><![CDATA[<p>Full content of article 1</p>]]></content:encoded>
		<pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate>
		<author>test@example.com (Test Author)</author>
		<category>golang</category>
		<category>release</category>
	</item>
	<item>
		<title>Test Article 2</title>
		<link>http://example.com/article2</link>
		<description>Article 2 description</description>
	</item>
</channel>
</rss>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssContent))
	}))
	defer server.Close()

	scraper := NewRSS([]string{server.URL}, domain.SourceRSS, 5*time.Second, "Digestly/1.0")
	fixedNow := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	scraper.now = func() time.Time { return fixedNow }

	items, err := scraper.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "Test Article 1", first.Title)
	assert.Equal(t, domain.SourceRSS, first.Source)
	assert.Equal(t, "http://example.com/article1", first.SourceURL)
	assert.Equal(t, "Article 1 description", first.Summary, "html stripped from description")
	assert.Equal(t, "Full content of article 1", first.Content)
	assert.Equal(t, "Test Author", first.Author)
	assert.Equal(t, []string{"golang", "release"}, first.Tags)
	assert.Equal(t, 2006, first.CreatedAt.Year())

	// no pubDate: normalized to fetch time at ingestion
	second := items[1]
	assert.Equal(t, fixedNow, second.CreatedAt)
}

func TestRSS_Fetch_BlogSource(t *testing.T) {
	atomContent := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>A Blog</title>
	<entry>
		<title>Blog Entry</title>
		<link href="http://blog.example.com/entry1"/>
		<id>urn:uuid:1225c695-cfb8-4ebb-aaaa-80da344efa6a</id>
		<updated>2025-05-30T15:04:05Z</updated>
		<summary>Entry summary</summary>
		<author><name>Jane Writer</name></author>
	</entry>
</feed>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(atomContent))
	}))
	defer server.Close()

	scraper := NewRSS([]string{server.URL}, domain.SourceBlog, 5*time.Second, "Digestly/1.0")
	items, err := scraper.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, domain.SourceBlog, items[0].Source)
	assert.Equal(t, "blog", scraper.Name())
	assert.Equal(t, "Jane Writer", items[0].Author)
}

func TestRSS_Fetch_Unreachable(t *testing.T) {
	scraper := NewRSS([]string{"http://127.0.0.1:1/feed.xml"}, domain.SourceRSS, time.Second, "Digestly/1.0")
	_, err := scraper.Fetch(context.Background())
	require.Error(t, err)
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "just text", "just text"},
		{"tags removed", "<p>hello <b>world</b></p>", "hello world"},
		{"whitespace collapsed", "  <div>\n a   b </div> ", "a b"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripHTML(tt.in))
		})
	}
}
