package curation

import (
	"time"

	"github.com/digestly/digestly/pkg/domain"
)

// Scorer computes a quality score per content item combining source-normalized
// engagement, recency and content completeness. Scores are only meaningful for
// relative ordering within a single selection run, they are never persisted or
// compared across runs.
type Scorer struct {
	now func() time.Time
}

// NewScorer creates a scorer with an injected clock. A nil now falls back to
// time.Now; tests pass a fixed clock for reproducible ranking.
func NewScorer(now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{now: now}
}

// Score maps an item to a single score. Pure function of the item and the
// clock, never fails; missing counters simply contribute nothing.
func (s *Scorer) Score(item domain.ContentItem) float64 {
	return s.ScoreAt(item, s.now())
}

// ScoreAt scores the item against an explicit timestamp so one captured "now"
// can be reused for every item in a selection run.
func (s *Scorer) ScoreAt(item domain.ContentItem, now time.Time) float64 {
	return engagementScore(item) + recencyScore(item.CreatedAt, now) + qualityScore(item)
}

// engagementScore normalizes raw engagement per source, each sub-term capped so
// one viral item cannot dominate the ranking. Max contribution is 15.
func engagementScore(item domain.ContentItem) float64 {
	switch item.Source {
	case domain.SourceReddit:
		return capped(float64(item.Score)/100, 10) + capped(float64(item.CommentsCount)/20, 5)
	case domain.SourceYouTube:
		return capped(float64(item.ViewsCount)/10000, 10) + capped(float64(item.CommentsCount)/50, 5)
	default:
		return capped(float64(item.Score)/50, 10) + capped(float64(item.CommentsCount)/10, 5)
	}
}

// recencyScore is a tiered step function on elapsed hours. An item sitting
// exactly on a tier boundary falls into the older tier.
func recencyScore(createdAt, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()
	switch {
	case hours < 6:
		return 5
	case hours < 24:
		return 3
	case hours < 48:
		return 1
	default:
		return 0
	}
}

// qualityScore rewards content completeness, max contribution is 10.
func qualityScore(item domain.ContentItem) float64 {
	var score float64
	if len(item.Summary) > 50 {
		score += 3
	}
	if item.Author != "" && item.Author != "Unknown" {
		score += 2
	}
	if len(item.Content) > 200 {
		score += 2
	}
	if item.ImageURL != "" {
		score++
	}
	if len(item.Tags) > 0 {
		score += 2
	}
	return score
}

func capped(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}
