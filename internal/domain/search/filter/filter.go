package filter

import (
	"fmt"
	"reflect"

	"github.com/kailas-cloud/ragcore/internal/domain/document"
)

// MaxConditions is the maximum number of keys in one filter.
const MaxConditions = 32

// Filter is a post-retrieval metadata predicate. Every key must match.
//
// A list value means "member of": the document value must equal one of the
// elements, or, if the document value is itself a list, share at least one
// element. Any other value is an exact match. Numbers compare by value
// across Go numeric kinds. A missing document key never matches.
type Filter map[string]any

// New validates and creates a Filter.
func New(conditions map[string]any) (Filter, error) {
	if len(conditions) > MaxConditions {
		return nil, fmt.Errorf("too many filter conditions (max %d)", MaxConditions)
	}
	for k := range conditions {
		if k == "" {
			return nil, fmt.Errorf("filter key is required")
		}
	}
	return Filter(conditions), nil
}

// IsEmpty reports whether the filter has no conditions.
func (f Filter) IsEmpty() bool { return len(f) == 0 }

// Matches reports whether metadata satisfies every condition.
func (f Filter) Matches(meta document.Metadata) bool {
	for key, want := range f {
		got, ok := meta[key]
		if !ok {
			return false
		}
		if !matchValue(want, got) {
			return false
		}
	}
	return true
}

func matchValue(want, got any) bool {
	options, isList := asList(want)
	if !isList {
		return equal(want, got)
	}

	if values, ok := asList(got); ok {
		for _, v := range values {
			if contains(options, v) {
				return true
			}
		}
		return false
	}
	return contains(options, got)
}

func contains(options []any, v any) bool {
	for _, o := range options {
		if equal(o, v) {
			return true
		}
	}
	return false
}

func equal(a, b any) bool {
	if fa, ok := document.ToFloat(a); ok {
		fb, ok := document.ToFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// asList flattens any slice kind into []any. Strings are not lists.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
