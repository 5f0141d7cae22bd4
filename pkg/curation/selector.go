package curation

import (
	"sort"
	"strings"

	"github.com/digestly/digestly/pkg/domain"
)

// Selector picks a bounded, source-diverse, near-duplicate-free subset of
// candidates ordered by descending score. It is pure computation over in-memory
// slices: the input is never mutated and every call builds fresh output, so a
// single Selector is safe for concurrent use.
type Selector struct {
	scorer *Scorer
}

// NewSelector creates a selector using the given scorer.
func NewSelector(scorer *Scorer) *Selector {
	return &Selector{scorer: scorer}
}

// titlePrefixLen bounds the normalized title used as the near-duplicate signal,
// approximate by design - two headlines differing only in trailing punctuation
// count as the same story.
const titlePrefixLen = 50

// scoredItem pairs a candidate with its computed score for the sort pass.
type scoredItem struct {
	item  domain.ContentItem
	score float64
}

// Select scores all candidates against one captured timestamp, sorts by score
// descending and greedily accepts items while enforcing the per-source quota
// and near-duplicate title suppression, stopping at maxItems. Degenerate
// limits or an empty pool return an empty slice, never an error.
//
// The pass never backtracks: a high-score item skipped on quota is not
// reconsidered, so slots can stay unfilled even when requested (documented
// contract, simplicity over global optimality).
func (s *Selector) Select(items []domain.ContentItem, maxItems, maxPerSource int) []domain.ContentItem {
	if len(items) == 0 || maxItems <= 0 || maxPerSource <= 0 {
		return []domain.ContentItem{}
	}

	now := s.scorer.now()
	scored := make([]scoredItem, len(items))
	for i, item := range items {
		scored[i] = scoredItem{item: item, score: s.scorer.ScoreAt(item, now)}
	}

	// descending score, ties broken by SourceURL so output is reproducible
	// regardless of upstream ordering
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].item.SourceURL < scored[j].item.SourceURL
	})

	selected := make([]domain.ContentItem, 0, maxItems)
	perSource := make(map[domain.Source]int)
	seenTitles := make(map[string]struct{})

	for _, sc := range scored {
		if len(selected) >= maxItems {
			break
		}
		if perSource[sc.item.Source] >= maxPerSource {
			continue
		}
		norm := normalizeTitle(sc.item.Title)
		if _, ok := seenTitles[norm]; ok {
			continue
		}
		selected = append(selected, sc.item)
		perSource[sc.item.Source]++
		seenTitles[norm] = struct{}{}
	}

	return selected
}

// DefaultPerSourceCap is the caller policy for the per-source quota: no single
// source may supply more than half the newsletter, capped at 5 regardless of
// size, and never below 1.
func DefaultPerSourceCap(maxItems int) int {
	quota := maxItems / 2
	if quota > 5 {
		quota = 5
	}
	if quota < 1 {
		quota = 1
	}
	return quota
}

// normalizeTitle lowercases and truncates to the first titlePrefixLen runes.
func normalizeTitle(title string) string {
	norm := strings.ToLower(title)
	runes := []rune(norm)
	if len(runes) > titlePrefixLen {
		return string(runes[:titlePrefixLen])
	}
	return norm
}
