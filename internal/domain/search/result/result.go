package result

import "github.com/kailas-cloud/ragcore/internal/domain/document"

// Result is a single ranked search hit.
type Result struct {
	doc   document.Document
	score float64
	rank  int
}

// New creates a search result.
func New(doc document.Document, score float64, rank int) Result {
	return Result{doc: doc, score: score, rank: rank}
}

// Document returns the matched document.
func (r *Result) Document() document.Document { return r.doc }

// ID returns the matched document identifier.
func (r *Result) ID() string { return r.doc.ID() }

// Score returns the relevance score.
func (r *Result) Score() float64 { return r.score }

// Rank returns the 1-based position in the result list.
func (r *Result) Rank() int { return r.rank }

// WithScore returns a copy carrying a different score.
func (r *Result) WithScore(score float64) Result {
	return Result{doc: r.doc, score: score, rank: r.rank}
}

// Ranked reassigns ranks 1..n in slice order.
func Ranked(results []Result) []Result {
	for i := range results {
		results[i].rank = i + 1
	}
	return results
}
