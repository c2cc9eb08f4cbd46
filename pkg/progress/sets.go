package progress

import (
	"encoding/json"
	"sort"
)

// StringSet is an unordered set of string keys. It marshals as a sorted
// JSON array so persisted payloads are stable across writes.
type StringSet map[string]struct{}

// NewStringSet creates a set from the given keys.
func NewStringSet(keys ...string) StringSet {
	s := make(StringSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// ParseStringSet parses a serialized set. Malformed or empty input yields
// an empty set, never an error. Use at the persistence boundary.
func ParseStringSet(raw string) StringSet {
	if raw == "" {
		return StringSet{}
	}
	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return StringSet{}
	}
	return NewStringSet(keys...)
}

// Add inserts a key. Adding an existing key is a no-op.
// Returns true if the set changed.
func (s StringSet) Add(key string) bool {
	if _, ok := s[key]; ok {
		return false
	}
	s[key] = struct{}{}
	return true
}

// Remove deletes a key. Removing an absent key is a no-op.
// Returns true if the set changed.
func (s StringSet) Remove(key string) bool {
	if _, ok := s[key]; !ok {
		return false
	}
	delete(s, key)
	return true
}

// Has reports whether key is in the set.
func (s StringSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Values returns the keys in sorted order.
func (s StringSet) Values() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy of the set.
func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	*s = NewStringSet(keys...)
	return nil
}

// IntSet is an ordered set of integers, kept sorted ascending with no
// duplicates. It marshals as a plain JSON array.
type IntSet []int

// ParseIntSet parses a serialized ordered set. Malformed or empty input
// yields an empty set, never an error. Input order and duplicates are
// normalized away.
func ParseIntSet(raw string) IntSet {
	if raw == "" {
		return IntSet{}
	}
	var vals []int
	if err := json.Unmarshal([]byte(raw), &vals); err != nil {
		return IntSet{}
	}
	s := IntSet{}
	for _, v := range vals {
		s = s.Insert(v)
	}
	return s
}

// Insert returns the set with v added, preserving sort order.
// Inserting an existing value is a no-op.
func (s IntSet) Insert(v int) IntSet {
	i := sort.SearchInts(s, v)
	if i < len(s) && s[i] == v {
		return s
	}
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

// Has reports whether v is in the set.
func (s IntSet) Has(v int) bool {
	i := sort.SearchInts(s, v)
	return i < len(s) && s[i] == v
}

func (s *IntSet) UnmarshalJSON(data []byte) error {
	var vals []int
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	out := IntSet{}
	for _, v := range vals {
		out = out.Insert(v)
	}
	*s = out
	return nil
}
