package query

import (
	"strings"

	"github.com/kailas-cloud/ragcore/internal/domain/entity"
	domquery "github.com/kailas-cloud/ragcore/internal/domain/query"
)

type classRule struct {
	typ      domquery.Type
	keywords []string
	entities []entity.Type
}

// classRules are checked in priority order; the first match wins.
var classRules = []classRule{
	{typ: domquery.Weather, keywords: []string{"weather", "temperature", "rainfall", "wind", "humidity", "forecast"}},
	{typ: domquery.Satellite, keywords: []string{"satellite", "insat", "scatsat", "oceansat", "mission"}, entities: []entity.Type{entity.Satellite}},
	{typ: domquery.Ocean, keywords: []string{"ocean", "sea", "marine", "sst", "chlorophyll", "wave"}},
	{typ: domquery.DataAccess, keywords: []string{"data", "download", "access", "api", "format"}},
}

// Classify returns the first category whose keyword occurs in the
// lower-cased query or whose entity type was extracted; general otherwise.
func Classify(q string, entities []entity.Entity) domquery.Type {
	lq := strings.ToLower(q)
	for _, r := range classRules {
		for _, kw := range r.keywords {
			if strings.Contains(lq, kw) {
				return r.typ
			}
		}
		for _, t := range r.entities {
			if entity.HasType(entities, t) {
				return r.typ
			}
		}
	}
	return domquery.General
}

// Analyzer exposes extraction and classification behind one value.
type Analyzer struct{}

// Extract finds entities in text.
func (Analyzer) Extract(text string) []entity.Entity { return Extract(text) }

// Classify categorizes the query.
func (Analyzer) Classify(q string, entities []entity.Entity) domquery.Type {
	return Classify(q, entities)
}
