// Package intern provides two-way string interning for annotation values.
//
// Ids are dense uint64 values assigned in insertion order. Id 0 is reserved
// for the empty string, so zero-valued columns decode to "no value" without
// a store lookup.
package intern

import (
	"sort"
	"strings"
)

// Store interns strings to dense numeric ids and resolves them back.
//
// A Store is not safe for concurrent mutation. Construct and populate it
// before sharing documents across goroutines; lookups on a quiescent store
// are safe.
type Store struct {
	ids     map[string]uint64
	strings []string
}

// NewStore creates an empty store with the empty string pre-interned as id 0.
func NewStore() *Store {
	return &Store{
		ids:     map[string]uint64{"": 0},
		strings: []string{""},
	}
}

// Intern returns the id for s, assigning a fresh one on first sight.
func (s *Store) Intern(v string) uint64 {
	if id, ok := s.ids[v]; ok {
		return id
	}
	id := uint64(len(s.strings))
	s.ids[v] = id
	s.strings = append(s.strings, v)
	return id
}

// Resolve returns the string for id, or the empty string if id is unknown.
func (s *Store) Resolve(id uint64) string {
	if id >= uint64(len(s.strings)) {
		return ""
	}
	return s.strings[id]
}

// Len returns the number of interned strings, including the empty string.
func (s *Store) Len() int { return len(s.strings) }

// MorphStore interns morphological feature strings.
//
// Feature strings are canonicalized before interning so that
// "Number=Sing|Case=Nom" and "Case=Nom|Number=Sing" share one id.
type MorphStore struct {
	store *Store
}

// NewMorphStore creates a MorphStore backed by the given string store.
func NewMorphStore(store *Store) *MorphStore {
	return &MorphStore{store: store}
}

// Intern canonicalizes and interns a feature string such as
// "Case=Nom|Number=Sing". The empty string interns to id 0.
func (m *MorphStore) Intern(feats string) uint64 {
	return m.store.Intern(Canonical(feats))
}

// Resolve returns the canonical feature string for id.
func (m *MorphStore) Resolve(id uint64) string {
	return m.store.Resolve(id)
}

// Canonical sorts the |-separated features of a morphology string into a
// stable order. Malformed fragments are kept as-is.
func Canonical(feats string) string {
	if feats == "" || !strings.Contains(feats, "|") {
		return feats
	}
	parts := strings.Split(feats, "|")
	sort.Strings(parts)
	return strings.Join(parts, "|")
}
