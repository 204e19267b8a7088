package definition

import (
	"encoding/json"
	"strings"
)

// ContextSet is a collection of context tags (organisational units, legal
// domains, legal-basis references). Insertion order is preserved for display,
// but equality is order-independent and case-insensitive.
type ContextSet struct {
	values []string
}

// NewContextSet creates a ContextSet from the given values, dropping empty
// strings and duplicates while keeping first-seen order.
func NewContextSet(values ...string) ContextSet {
	s := ContextSet{}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add appends a value unless an equivalent value is already present.
func (s *ContextSet) Add(value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if s.Contains(value) {
		return
	}
	s.values = append(s.values, value)
}

// Contains reports whether the set holds value, compared case-insensitively.
func (s *ContextSet) Contains(value string) bool {
	for _, v := range s.values {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// Values returns the tags in insertion order. The returned slice is a copy.
func (s *ContextSet) Values() []string {
	out := make([]string, len(s.values))
	copy(out, s.values)
	return out
}

// Len returns the number of tags in the set.
func (s *ContextSet) Len() int {
	return len(s.values)
}

// IsEmpty reports whether the set has no tags.
func (s *ContextSet) IsEmpty() bool {
	return len(s.values) == 0
}

// Equals reports whether two sets hold the same tags, ignoring order and case.
func (s *ContextSet) Equals(other ContextSet) bool {
	if len(s.values) != len(other.values) {
		return false
	}
	for _, v := range s.values {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

// String renders the set for display, in insertion order.
func (s *ContextSet) String() string {
	return strings.Join(s.values, ", ")
}

// MarshalJSON encodes the set as a JSON array in insertion order.
func (s ContextSet) MarshalJSON() ([]byte, error) {
	if s.values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.values)
}

// UnmarshalJSON decodes a JSON array of strings, applying the same
// normalisation as NewContextSet.
func (s *ContextSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NewContextSet(raw...)
	return nil
}
