package mode

// Mode is the search strategy.
type Mode string

// Search mode constants.
const (
	Semantic Mode = "semantic"
	// Hybrid fuses semantic and lexical scores.
	Hybrid Mode = "hybrid"
	// Rerank re-scores an enlarged semantic candidate set.
	Rerank Mode = "rerank"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Hybrid || m == Semantic || m == Rerank
}
