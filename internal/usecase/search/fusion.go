package search

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/ragcore/internal/domain/search/result"
)

// fuseWeighted merges semantic and lexical candidates by id:
// score(d) = alpha*semantic(d) + (1-alpha)*lexical(d), a missing side counting 0.
// Semantic candidates precede lexical-only ones, so they win ties.
func fuseWeighted(semantic, lexical []result.Result, alpha float64, topK int) []result.Result {
	type scored struct {
		res      result.Result
		semantic float64
		lexical  float64
	}

	order := make([]*scored, 0, len(semantic)+len(lexical))
	merged := make(map[string]*scored, len(semantic)+len(lexical))

	for _, r := range semantic {
		s := &scored{res: r, semantic: r.Score()}
		merged[r.ID()] = s
		order = append(order, s)
	}
	for _, r := range lexical {
		if existing, ok := merged[r.ID()]; ok {
			existing.lexical = r.Score()
			continue
		}
		s := &scored{res: r, lexical: r.Score()}
		merged[r.ID()] = s
		order = append(order, s)
	}

	results := make([]result.Result, len(order))
	for i, s := range order {
		results[i] = s.res.WithScore(alpha*s.semantic + (1-alpha)*s.lexical)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score() > results[j].Score()
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return result.Ranked(results)
}

// Reranker weights.
const (
	rerankOriginalWeight = 0.8
	rerankLengthWeight   = 0.1
	rerankLengthNorm     = 1000.0
	rerankTitleBoost     = 0.1
	rerankEntityCap      = 0.1
)

// rerank adjusts candidate scores with content length, title match and
// entity density, then keeps the top k.
func rerank(query string, candidates []result.Result, k int) []result.Result {
	lq := strings.ToLower(query)

	out := make([]result.Result, len(candidates))
	for i := range candidates {
		doc := candidates[i].Document()
		meta := doc.Metadata()
		length := utf8.RuneCountInString(doc.Content())

		lengthScore := float64(length) / rerankLengthNorm
		if lengthScore > 1 {
			lengthScore = 1
		}

		var boost float64
		if title, ok := meta.Title(); ok && strings.Contains(strings.ToLower(title), lq) {
			boost += rerankTitleBoost
		}
		if count, ok := meta.EntityCount(); ok {
			density := count / float64(max(length, 1)) * 100
			boost += min(density, rerankEntityCap)
		}

		adjusted := rerankOriginalWeight*candidates[i].Score() + rerankLengthWeight*lengthScore + boost
		out[i] = candidates[i].WithScore(adjusted)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score() > out[j].Score() })
	if len(out) > k {
		out = out[:k]
	}
	return result.Ranked(out)
}
