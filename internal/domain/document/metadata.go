package document

// Well-known metadata keys read by the engine.
const (
	KeyTitle       = "title"
	KeyURL         = "url"
	KeyEntityCount = "entity_count"
	KeyEntities    = "entities"
)

// Metadata is free-form document metadata with typed accessors for known keys.
type Metadata map[string]any

// Clone returns a shallow copy.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	c := make(Metadata, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Title returns the title field if it is a string.
func (m Metadata) Title() (string, bool) {
	return m.String(KeyTitle)
}

// URL returns the url field if it is a string.
func (m Metadata) URL() (string, bool) {
	return m.String(KeyURL)
}

// EntityCount returns the entity_count field as a number.
func (m Metadata) EntityCount() (float64, bool) {
	return m.Number(KeyEntityCount)
}

// String returns a string-valued field.
func (m Metadata) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Number returns a numeric field regardless of its concrete Go kind
// (JSON decoding yields float64, literals in code yield int).
func (m Metadata) Number(key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// ToFloat converts any Go numeric value to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Entities returns the entities field as a string list.
// Both []string and decoded JSON arrays of strings are accepted.
func (m Metadata) Entities() []string {
	switch v := m[KeyEntities].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
