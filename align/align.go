// Package align computes index-correspondence tables between two
// tokenizations of the same text.
//
// The two sequences must spell the same text once case and whitespace are
// ignored; alignment is then derived from character-range overlap. A token
// pair with identical ranges aligns one-to-one. A token strictly contained
// in a larger token on the other side joins that token's multi group. A
// token that straddles a boundary on the other side stays unaligned.
package align

import (
	"errors"
	"strings"
	"unicode"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrMismatchedTexts is returned when the two token sequences do not spell
// the same underlying text.
var ErrMismatchedTexts = errors.New("cannot align mismatched texts")

// None marks an index with no one-to-one correspondence.
const None = -1

// Alignment holds the correspondence tables between a candidate (predicted)
// and a gold (reference) tokenization.
//
// Every candidate index is in exactly one of three states: it has a
// one-to-one entry in CandToGold, it is a key of I2JMulti, or it is
// unaligned. Multi entries are never double-counted as one-to-one entries.
// The same holds for gold indices with GoldToCand and J2IMulti.
type Alignment struct {
	// CandToGold maps candidate index to gold index for one-to-one pairs,
	// None otherwise.
	CandToGold []int
	// GoldToCand maps gold index to candidate index for one-to-one pairs,
	// None otherwise.
	GoldToCand []int
	// I2JMulti maps each candidate token contained in a larger gold token
	// to that gold token's index.
	I2JMulti map[int]int
	// J2IMulti maps each gold token contained in a larger candidate token
	// to that candidate token's index.
	J2IMulti map[int]int

	candAligned *roaring.Bitmap
	goldAligned *roaring.Bitmap
}

// Aligner computes an Alignment from two word sequences. Implementations
// must be pure: same inputs, same tables.
type Aligner interface {
	Align(cand, gold []string) (*Alignment, error)
}

// AlignerFunc adapts a function to the Aligner interface.
type AlignerFunc func(cand, gold []string) (*Alignment, error)

// Align calls f.
func (f AlignerFunc) Align(cand, gold []string) (*Alignment, error) {
	return f(cand, gold)
}

// Default is the built-in character-range aligner.
var Default Aligner = AlignerFunc(New)

// New aligns two word sequences by character-range overlap.
func New(cand, gold []string) (*Alignment, error) {
	cn := normalize(cand)
	gn := normalize(gold)
	if strings.Join(cn, "") != strings.Join(gn, "") {
		return nil, ErrMismatchedTexts
	}

	cr := runeRanges(cn)
	gr := runeRanges(gn)

	a := &Alignment{
		CandToGold:  filled(len(cand), None),
		GoldToCand:  filled(len(gold), None),
		I2JMulti:    make(map[int]int),
		J2IMulti:    make(map[int]int),
		candAligned: roaring.New(),
		goldAligned: roaring.New(),
	}

	total := 0
	for _, r := range gr {
		total = r[1]
	}
	charToGold := make([]int, total)
	for j, r := range gr {
		for c := r[0]; c < r[1]; c++ {
			charToGold[c] = j
		}
	}

	for i, r := range cr {
		if r[0] == r[1] {
			continue // whitespace-only or empty token
		}
		j0 := charToGold[r[0]]
		j1 := charToGold[r[1]-1]
		switch {
		case j0 == j1 && gr[j0] == r:
			a.CandToGold[i] = j0
			a.GoldToCand[j0] = i
			a.candAligned.Add(uint32(i))
			a.goldAligned.Add(uint32(j0))
		case j0 == j1:
			// candidate token inside a larger gold token
			a.I2JMulti[i] = j0
			a.candAligned.Add(uint32(i))
		case gr[j0][0] == r[0] && gr[j1][1] == r[1]:
			// candidate token exactly subsumes gold tokens j0..j1
			for j := j0; j <= j1; j++ {
				a.J2IMulti[j] = i
				a.goldAligned.Add(uint32(j))
			}
			a.candAligned.Add(uint32(i))
		default:
			// boundary crossing, leave unaligned
		}
	}
	return a, nil
}

// CandResolved returns the gold index a candidate token resolves to, via
// its one-to-one entry or its multi group, and whether it resolves at all.
// The aligned set is consulted first, so unaligned tokens short-circuit
// without table lookups.
func (a *Alignment) CandResolved(i int) (int, bool) {
	if i < 0 || i >= len(a.CandToGold) || !a.candAligned.Contains(uint32(i)) {
		return None, false
	}
	if j := a.CandToGold[i]; j != None {
		return j, true
	}
	if j, ok := a.I2JMulti[i]; ok {
		return j, true
	}
	return None, false
}

// GoldResolved returns the candidate index a gold token resolves to, via
// its one-to-one entry or its multi group, and whether it resolves at all.
// The aligned set is consulted first, so unaligned tokens short-circuit
// without table lookups.
func (a *Alignment) GoldResolved(j int) (int, bool) {
	if j < 0 || j >= len(a.GoldToCand) || !a.goldAligned.Contains(uint32(j)) {
		return None, false
	}
	if i := a.GoldToCand[j]; i != None {
		return i, true
	}
	if i, ok := a.J2IMulti[j]; ok {
		return i, true
	}
	return None, false
}

// CandAligned reports whether candidate index i participates in any
// alignment, one-to-one or multi.
func (a *Alignment) CandAligned(i int) bool {
	return i >= 0 && a.candAligned.Contains(uint32(i))
}

// GoldAligned reports whether gold index j participates in any alignment.
func (a *Alignment) GoldAligned(j int) bool {
	return j >= 0 && a.goldAligned.Contains(uint32(j))
}

// AlignedCandCount returns the number of candidate tokens with any
// alignment.
func (a *Alignment) AlignedCandCount() int {
	return int(a.candAligned.GetCardinality())
}

func normalize(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return unicode.ToLower(r)
		}, w)
	}
	return out
}

// runeRanges returns [start,end) rune offsets of each word within the
// concatenation of all words.
func runeRanges(words []string) [][2]int {
	out := make([][2]int, len(words))
	pos := 0
	for i, w := range words {
		n := len([]rune(w))
		out[i] = [2]int{pos, pos + n}
		pos += n
	}
	return out
}

func filled(n, v int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = v
	}
	return s
}
