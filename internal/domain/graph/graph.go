package graph

import "fmt"

// Mode selects how the graph provider expands the named entities.
type Mode string

// Graph query modes.
const (
	// Related returns neighbours within two hops.
	Related Mode = "related"
	// Direct returns the named entities themselves.
	Direct Mode = "direct"
	// Path returns the shortest path between the first two names.
	Path Mode = "path"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	switch m {
	case Related, Direct, Path:
		return m, nil
	}
	return "", fmt.Errorf("unknown graph mode %q", s)
}

// Fact is one graph-derived entity returned for chatbot context.
type Fact struct {
	Entity            string         `json:"entity"`
	Type              string         `json:"type"`
	Properties        map[string]any `json:"properties,omitempty"`
	RelationshipTypes []string       `json:"relationship_types,omitempty"`
}
