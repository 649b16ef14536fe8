package query

import (
	"github.com/kailas-cloud/ragcore/internal/domain/entity"
	"github.com/kailas-cloud/ragcore/internal/domain/graph"
	"github.com/kailas-cloud/ragcore/internal/domain/search/result"
)

// Context is the per-request retrieval state assembled by the pipeline.
type Context struct {
	Query    string
	Entities []entity.Entity
	Type     Type
	Results  []result.Result
	Facts    []graph.Fact
}

// MeanScore returns the mean vector result score, 0 without results.
func (c *Context) MeanScore() float64 {
	if len(c.Results) == 0 {
		return 0
	}
	var sum float64
	for i := range c.Results {
		sum += c.Results[i].Score()
	}
	return sum / float64(len(c.Results))
}
