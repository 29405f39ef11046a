// Package attrs defines the token attribute identifiers used by annotation
// columns and the canonical names they are addressed by in bundles.
package attrs

import "fmt"

// Attr identifies one per-token annotation column.
type Attr uint8

const (
	// Invalid represents an unrecognized attribute.
	Invalid Attr = iota
	// Orth is the token surface text. Consumed to build the tokenization,
	// never stored as a column.
	Orth
	// Spacy is the trailing-whitespace flag. Consumed to build the
	// tokenization, never stored as a column.
	Spacy
	// Tag is the fine-grained part-of-speech tag.
	Tag
	// Pos is the coarse universal part-of-speech tag.
	Pos
	// Lemma is the base form of the token.
	Lemma
	// Dep is the dependency relation label.
	Dep
	// Head is the dependency head. In column form it is a signed offset
	// relative to the owning token's index, which keeps arrays valid
	// across slicing.
	Head
	// Morph is the morphological feature set id.
	Morph
	// SentStart is the sentence-boundary flag (0 unknown, 1 start, -1 not a start).
	SentStart
	// EntIOB is the entity IOB code (0 missing, 1 I, 2 O, 3 B).
	EntIOB
	// EntType is the entity label id.
	EntType
	// EntKBID is the knowledge-base identifier id for linked entities.
	EntKBID
)

var names = map[Attr]string{
	Orth:      "ORTH",
	Spacy:     "SPACY",
	Tag:       "TAG",
	Pos:       "POS",
	Lemma:     "LEMMA",
	Dep:       "DEP",
	Head:      "HEAD",
	Morph:     "MORPH",
	SentStart: "SENT_START",
	EntIOB:    "ENT_IOB",
	EntType:   "ENT_TYPE",
	EntKBID:   "ENT_KB_ID",
}

var byName = func() map[string]Attr {
	m := make(map[string]Attr, len(names))
	for a, n := range names {
		m[n] = a
	}
	return m
}()

// String returns the canonical bundle name of the attribute.
func (a Attr) String() string {
	if n, ok := names[a]; ok {
		return n
	}
	return fmt.Sprintf("Attr(%d)", uint8(a))
}

// Lookup resolves a canonical name to its attribute. The second return
// value reports whether the name is recognized.
func Lookup(name string) (Attr, bool) {
	a, ok := byName[name]
	return a, ok
}
