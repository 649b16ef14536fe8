package query

// Type is the classified category of a user query.
type Type string

// Query types in classifier priority order, followed by the fallbacks.
const (
	Weather    Type = "weather"
	Satellite  Type = "satellite"
	Ocean      Type = "ocean"
	DataAccess Type = "data_access"
	General    Type = "general"
	// Error marks a response produced after an unrecoverable pipeline failure.
	Error Type = "error"
)

// IsValid checks if the type is a classifier output.
func (t Type) IsValid() bool {
	switch t {
	case Weather, Satellite, Ocean, DataAccess, General:
		return true
	}
	return false
}
