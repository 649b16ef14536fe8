// Package query extracts domain entities from user text and classifies the
// query into a retrieval category.
package query

import (
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/ragcore/internal/domain/entity"
)

// Extraction scoring.
const (
	baseConfidence     = 0.8
	numericBonus       = 0.1
	keywordBonus       = 0.05
	maxConfidence      = 0.99
	keywordWindow      = 50
	storedContextWidth = 30
)

// Extract finds entities in text in table order, deduplicated by
// (lower-cased text, type) with the first occurrence kept.
func Extract(text string) []entity.Entity {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []entity.Entity
	seen := make(map[string]struct{})
	for i := range rules {
		r := &rules[i]
		for _, p := range r.patterns {
			for _, loc := range p.re.FindAllStringIndex(text, -1) {
				e := entity.Entity{
					Text:    text[loc[0]:loc[1]],
					Type:    r.typ,
					Start:   loc[0],
					End:     loc[1],
					Pattern: p.source,
					Context: window(text, loc[0], loc[1], storedContextWidth),
				}
				if _, dup := seen[e.Key()]; dup {
					continue
				}
				seen[e.Key()] = struct{}{}
				e.Confidence = confidence(r, p, window(text, loc[0], loc[1], keywordWindow))
				out = append(out, e)
			}
		}
	}
	return out
}

func confidence(r *typeRule, p *compiledPattern, ctx string) float64 {
	c := baseConfidence
	if p.numeric {
		c += numericBonus
	}
	lc := strings.ToLower(ctx)
	for _, kw := range r.keywords {
		if strings.Contains(lc, kw) {
			c += keywordBonus
		}
	}
	return min(c, maxConfidence)
}

// window returns text[start-width : end+width] clamped to the text and
// widened to rune boundaries.
func window(text string, start, end, width int) string {
	lo := max(start-width, 0)
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	hi := min(end+width, len(text))
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return strings.TrimSpace(text[lo:hi])
}
