package entity

import "strings"

// Type is an entity category recognised by the extractor.
type Type string

// Entity types.
const (
	Satellite     Type = "SATELLITE"
	MissionType   Type = "MISSION_TYPE"
	DataProduct   Type = "DATA_PRODUCT"
	Organization  Type = "ORGANIZATION"
	Location      Type = "LOCATION"
	FrequencyBand Type = "FREQUENCY_BAND"
	Instrument    Type = "INSTRUMENT"
)

// Entity is a span of text recognised as a typed entity.
type Entity struct {
	Text       string  `json:"text"`
	Type       Type    `json:"type"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Pattern    string  `json:"pattern,omitempty"`
	Context    string  `json:"context,omitempty"`
}

// Key returns the deduplication key (lower-cased text and type).
func (e Entity) Key() string {
	return strings.ToLower(e.Text) + "\x00" + string(e.Type)
}

// Texts returns entity surface strings in order.
func Texts(entities []Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Text
	}
	return out
}

// HasType reports whether any entity is of type t.
func HasType(entities []Entity, t Type) bool {
	for _, e := range entities {
		if e.Type == t {
			return true
		}
	}
	return false
}
