package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusAdded   ItemStatus = "added"
	StatusSkipped ItemStatus = "skipped"
	StatusInvalid ItemStatus = "invalid"
	StatusError   ItemStatus = "error"
)

// Result is the outcome of processing one input record.
type Result struct {
	record int
	id     string
	status ItemStatus
	err    error
}

// NewAdded creates a result for an indexed record.
func NewAdded(record int, id string) Result {
	return Result{record: record, id: id, status: StatusAdded}
}

// NewSkipped creates a result for a record whose id was already indexed.
func NewSkipped(record int, id string) Result {
	return Result{record: record, id: id, status: StatusSkipped}
}

// NewInvalid creates a result for a record rejected by decoding or validation.
func NewInvalid(record int, id string, err error) Result {
	return Result{record: record, id: id, status: StatusInvalid, err: err}
}

// NewError creates a result for a record that failed during indexing.
func NewError(record int, id string, err error) Result {
	return Result{record: record, id: id, status: StatusError, err: err}
}

// Record returns the 1-based input position (line for JSON lines, element for arrays).
func (r Result) Record() int { return r.record }

// ID returns the item identifier, empty when it could not be decoded.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }
