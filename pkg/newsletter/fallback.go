package newsletter

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/digestly/digestly/pkg/domain"
)

// htmlPolicy sanitizes both LLM-produced and fallback HTML before it is
// persisted; scraped summaries can carry arbitrary markup
var htmlPolicy = bluemonday.UGCPolicy()

func sanitizeHTML(s string) string {
	return htmlPolicy.Sanitize(s)
}

// renderFallback builds a deterministic newsletter listing each selected item
// with title, link, author, source and summary. Used when the LLM draft fails
// or no writer is configured: same selection in, same document out.
func renderFallback(items []domain.ContentItem, now time.Time) *domain.Newsletter {
	title := fmt.Sprintf("Digest for %s", now.UTC().Format("January 2, 2006"))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<h1>%s</h1>\n", html.EscapeString(title)))
	sb.WriteString("<ul>\n")
	for _, item := range items {
		sb.WriteString("<li>\n")
		sb.WriteString(fmt.Sprintf("<a href=%q><strong>%s</strong></a>\n",
			item.SourceURL, html.EscapeString(item.Title)))

		attribution := string(item.Source)
		if item.Author != "" {
			attribution = fmt.Sprintf("%s (%s)", html.EscapeString(item.Author), item.Source)
		}
		sb.WriteString(fmt.Sprintf("<em>%s</em>\n", attribution))

		if item.Summary != "" {
			sb.WriteString(fmt.Sprintf("<p>%s</p>\n", html.EscapeString(item.Summary)))
		}
		sb.WriteString("</li>\n")
	}
	sb.WriteString("</ul>\n")

	return &domain.Newsletter{
		Title:     title,
		HTML:      sanitizeHTML(sb.String()),
		ItemCount: len(items),
		Fallback:  true,
	}
}
