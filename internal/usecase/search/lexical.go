package search

import (
	"sort"
	"strings"

	domdoc "github.com/kailas-cloud/ragcore/internal/domain/document"
	"github.com/kailas-cloud/ragcore/internal/domain/search/filter"
	"github.com/kailas-cloud/ragcore/internal/domain/search/result"
)

// queryTerms returns the distinct lower-cased whitespace-separated terms of q
// and the number of terms before deduplication.
func queryTerms(q string) ([]string, int) {
	fields := strings.Fields(strings.ToLower(q))
	total := len(fields)
	seen := make(map[string]struct{}, total)
	terms := make([]string, 0, total)
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms, total
}

// lexicalScore is the number of distinct terms found as substrings of
// content divided by the total query term count, repeats included.
func lexicalScore(terms []string, total int, content string) float64 {
	if len(terms) == 0 || total <= 0 {
		return 0
	}
	lc := strings.ToLower(content)
	matched := 0
	for _, t := range terms {
		if strings.Contains(lc, t) {
			matched++
		}
	}
	return float64(matched) / float64(total)
}

// lexicalSearch scores every document by term overlap and keeps the top k
// with at least one matched term. Ties keep insertion order.
func lexicalSearch(docs []domdoc.Document, query string, k int, f filter.Filter) []result.Result {
	terms, total := queryTerms(query)
	if len(terms) == 0 || k <= 0 {
		return nil
	}

	var out []result.Result
	for i := range docs {
		if !f.IsEmpty() && !f.Matches(docs[i].Metadata()) {
			continue
		}
		score := lexicalScore(terms, total, docs[i].Content())
		if score == 0 {
			continue
		}
		out = append(out, result.New(docs[i], score, 0))
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Score() > out[b].Score() })
	if len(out) > k {
		out = out[:k]
	}
	return result.Ranked(out)
}
