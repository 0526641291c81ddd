package query

import "strings"

// Key is a structured cache key: a resource name followed by its
// discriminating parameters, e.g. Key{"cart", "1"} or
// Key{"products", "search", "chair"}. Segments must not contain ':'.
type Key []string

// NewKey builds a key from its segments.
func NewKey(segments ...string) Key {
	return Key(segments)
}

// String generates a deterministic cache key string.
// Format: query:segment1:segment2:...
//
// Example:
//
//	query:products:search:chair
func (k Key) String() string {
	parts := append([]string{"query"}, k...)
	return strings.Join(parts, ":")
}

// HasPrefix reports whether k starts with every segment of prefix, in
// order. Every key has the empty prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, seg := range prefix {
		if k[i] != seg {
			return false
		}
	}
	return true
}

// Equal reports whether two keys are identical.
func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && k.HasPrefix(other)
}
