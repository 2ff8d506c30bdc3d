package state

import (
	"sort"
	"strings"
)

// Snapshot is the immutable qualitative state of one object: a map from
// attribute paths ("part.attribute") to values. Deriving a new snapshot
// always copies; the receiver is never modified.
type Snapshot struct {
	object string
	attrs  map[string]Value
}

// NewSnapshot creates a snapshot for an object from attribute values.
func NewSnapshot(object string, attrs map[string]Value) Snapshot {
	m := make(map[string]Value, len(attrs))
	for k, v := range attrs {
		m[k] = v
	}
	return Snapshot{object: object, attrs: m}
}

// Object returns the object type name the snapshot describes.
func (s Snapshot) Object() string {
	return s.object
}

// Get returns the value of an attribute path.
func (s Snapshot) Get(attr string) (Value, bool) {
	v, ok := s.attrs[attr]
	return v, ok
}

// Len returns the number of attributes in the snapshot.
func (s Snapshot) Len() int {
	return len(s.attrs)
}

// Attributes returns the attribute paths in sorted order.
func (s Snapshot) Attributes() []string {
	out := make([]string, 0, len(s.attrs))
	for k := range s.attrs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Map returns a copy of the underlying attribute map.
func (s Snapshot) Map() map[string]Value {
	m := make(map[string]Value, len(s.attrs))
	for k, v := range s.attrs {
		m[k] = v
	}
	return m
}

// With returns a new snapshot with the given overrides applied.
func (s Snapshot) With(overrides map[string]Value) Snapshot {
	m := make(map[string]Value, len(s.attrs))
	for k, v := range s.attrs {
		m[k] = v
	}
	for k, v := range overrides {
		m[k] = v
	}
	return Snapshot{object: s.object, attrs: m}
}

// Fingerprint returns a canonical string identity for the snapshot.
// Two snapshots with the same attributes, candidate sets, and trends
// produce the same fingerprint regardless of construction order.
func (s Snapshot) Fingerprint() string {
	keys := s.Attributes()
	var b strings.Builder
	b.WriteString(s.object)
	for _, k := range keys {
		v := s.attrs[k]
		b.WriteString(";")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(strings.Join(v.Levels, "|"))
		b.WriteString("/")
		b.WriteString(string(v.Trend))
	}
	return b.String()
}

// Equal returns true if both snapshots have identical fingerprints.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Fingerprint() == o.Fingerprint()
}
