package query

import (
	"testing"

	"github.com/kailas-cloud/ragcore/internal/domain/entity"
	domquery "github.com/kailas-cloud/ragcore/internal/domain/query"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		query string
		want  domquery.Type
	}{
		{"What is the current rainfall forecast?", domquery.Weather},
		{"Tell me about INSAT-3D", domquery.Satellite},
		{"Tell me about KALPANA-1", domquery.Satellite},
		{"chlorophyll concentration in the Bay of Bengal", domquery.Ocean},
		{"How do I download L2 products?", domquery.DataAccess},
		{"Who runs the portal?", domquery.General},
		// Weather outranks ocean.
		{"Sea surface temperature trends", domquery.Weather},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := Classify(tt.query, Extract(tt.query)); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}
}

func TestClassify_EntityTypeOnly(t *testing.T) {
	ents := []entity.Entity{{Text: "Megha-Tropiques", Type: entity.Satellite}}
	if got := Classify("what about it", ents); got != domquery.Satellite {
		t.Errorf("got %s, want satellite", got)
	}
	if got := Classify("what about it", nil); got != domquery.General {
		t.Errorf("got %s, want general", got)
	}
}

func TestAnalyzer(t *testing.T) {
	var a Analyzer
	ents := a.Extract("Tell me about INSAT-3D")
	if len(ents) == 0 {
		t.Fatal("no entities")
	}
	if got := a.Classify("Tell me about INSAT-3D", ents); got != domquery.Satellite {
		t.Errorf("got %s", got)
	}
}
