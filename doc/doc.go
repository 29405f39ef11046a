// Package doc provides the realized annotated document: a tokenization
// plus dense per-token attribute columns and document-level categories.
//
// Documents are built once (New, then FromArray and SetCats) and treated
// as immutable afterwards. Alignment caches elsewhere rely on that.
package doc

import (
	"fmt"
	"strings"

	"github.com/goldalign/goldalign/attrs"
	"github.com/goldalign/goldalign/biluo"
	"github.com/goldalign/goldalign/intern"
)

// IOB encodes a token's entity boundary state.
type IOB uint8

const (
	// IOBMissing means no gold entity annotation is available.
	IOBMissing IOB = iota
	// IOBInside means the token continues an entity.
	IOBInside
	// IOBOutside means the token is explicitly outside every entity.
	IOBOutside
	// IOBBegin means the token starts an entity.
	IOBBegin
)

// String returns the bundle representation of the code.
func (c IOB) String() string {
	switch c {
	case IOBInside:
		return "I"
	case IOBOutside:
		return "O"
	case IOBBegin:
		return "B"
	default:
		return ""
	}
}

// Token is one token of a document with its annotation columns. String
// valued columns hold interned ids resolvable through the document's
// store; Head is an absolute in-document index (a root is its own head).
type Token struct {
	Text       string
	SpaceAfter bool
	// Offset is the byte offset of the token in Doc.Text().
	Offset int

	Tag       uint64
	Pos       uint64
	Lemma     uint64
	Dep       uint64
	Head      int
	Morph     uint64
	SentStart int8 // 1 start, -1 not a start, 0 unknown
	EntIOB    IOB
	EntType   uint64
	EntKBID   uint64
}

// Span is an entity span in token coordinates, end exclusive.
type Span struct {
	Start int
	End   int
	Label string
	KBID  string
}

// Doc is a tokenization with attribute columns and categories.
type Doc struct {
	store   *intern.Store
	morphs  *intern.MorphStore
	tokens  []Token
	cats    map[string]float64
	present map[attrs.Attr]bool
	text    string
}

// New builds a document from words and trailing-space flags. A nil spaces
// slice defaults every token to having a trailing space. The store is
// shared, typically with the predicted document's vocabulary.
func New(store *intern.Store, words []string, spaces []bool) (*Doc, error) {
	if store == nil {
		store = intern.NewStore()
	}
	if spaces != nil && len(spaces) != len(words) {
		return nil, fmt.Errorf("words/spaces length mismatch: %d vs %d", len(words), len(spaces))
	}
	d := &Doc{
		store:   store,
		morphs:  intern.NewMorphStore(store),
		tokens:  make([]Token, len(words)),
		cats:    make(map[string]float64),
		present: make(map[attrs.Attr]bool),
	}
	var b strings.Builder
	for i, w := range words {
		sp := spaces == nil || spaces[i]
		d.tokens[i] = Token{Text: w, SpaceAfter: sp, Offset: b.Len(), Head: i}
		b.WriteString(w)
		if sp {
			b.WriteString(" ")
		}
	}
	d.text = b.String()
	return d, nil
}

// Len returns the number of tokens.
func (d *Doc) Len() int { return len(d.tokens) }

// Store returns the shared string interner.
func (d *Doc) Store() *intern.Store { return d.store }

// Morphs returns the morphology interner layered over the store.
func (d *Doc) Morphs() *intern.MorphStore { return d.morphs }

// Token returns a copy of token i.
func (d *Doc) Token(i int) Token { return d.tokens[i] }

// Words returns the token texts in order.
func (d *Doc) Words() []string {
	out := make([]string, len(d.tokens))
	for i, t := range d.tokens {
		out[i] = t.Text
	}
	return out
}

// Spaces returns the trailing-space flags in order.
func (d *Doc) Spaces() []bool {
	out := make([]bool, len(d.tokens))
	for i, t := range d.tokens {
		out[i] = t.SpaceAfter
	}
	return out
}

// Text reconstructs the document text from tokens and space flags.
func (d *Doc) Text() string { return d.text }

// IsSpaceToken reports whether token i consists entirely of whitespace.
func (d *Doc) IsSpaceToken(i int) bool {
	t := d.tokens[i].Text
	return t != "" && strings.TrimSpace(t) == ""
}

// Has reports whether the attribute column was ever populated.
func (d *Doc) Has(a attrs.Attr) bool { return d.present[a] }

// Cats returns the document-level category scores.
func (d *Doc) Cats() map[string]float64 { return d.cats }

// SetCats replaces the document-level category scores.
func (d *Doc) SetCats(cats map[string]float64) {
	d.cats = make(map[string]float64, len(cats))
	for k, v := range cats {
		d.cats[k] = v
	}
}

// Value returns the raw column value of attribute a at token i. HEAD is
// returned as an absolute index. ORTH and SPACY have no column and return 0.
func (d *Doc) Value(i int, a attrs.Attr) int64 {
	t := &d.tokens[i]
	switch a {
	case attrs.Tag:
		return int64(t.Tag)
	case attrs.Pos:
		return int64(t.Pos)
	case attrs.Lemma:
		return int64(t.Lemma)
	case attrs.Dep:
		return int64(t.Dep)
	case attrs.Head:
		return int64(t.Head)
	case attrs.Morph:
		return int64(t.Morph)
	case attrs.SentStart:
		return int64(t.SentStart)
	case attrs.EntIOB:
		return int64(t.EntIOB)
	case attrs.EntType:
		return int64(t.EntType)
	case attrs.EntKBID:
		return int64(t.EntKBID)
	default:
		return 0
	}
}

// StringValue resolves the column value of attribute a at token i through
// the store. HEAD and SENT_START are formatted numerically; ENT_IOB uses
// its tag letter.
func (d *Doc) StringValue(i int, a attrs.Attr) string {
	t := &d.tokens[i]
	switch a {
	case attrs.Tag:
		return d.store.Resolve(t.Tag)
	case attrs.Pos:
		return d.store.Resolve(t.Pos)
	case attrs.Lemma:
		return d.store.Resolve(t.Lemma)
	case attrs.Dep:
		return d.store.Resolve(t.Dep)
	case attrs.Morph:
		return d.morphs.Resolve(t.Morph)
	case attrs.EntIOB:
		return t.EntIOB.String()
	case attrs.EntType:
		return d.store.Resolve(t.EntType)
	case attrs.EntKBID:
		return d.store.Resolve(t.EntKBID)
	default:
		return fmt.Sprintf("%d", d.Value(i, a))
	}
}

// FromArray populates columns from encoder output: one row per token, one
// column per attribute. HEAD arrives as a signed offset relative to the
// owning token and is re-anchored to an absolute index.
func (d *Doc) FromArray(as []attrs.Attr, rows [][]int64) error {
	if len(rows) != len(d.tokens) {
		return fmt.Errorf("array has %d rows for %d tokens", len(rows), len(d.tokens))
	}
	for i, row := range rows {
		if len(row) != len(as) {
			return fmt.Errorf("row %d has %d columns for %d attributes", i, len(row), len(as))
		}
		t := &d.tokens[i]
		for c, a := range as {
			v := row[c]
			switch a {
			case attrs.Tag:
				t.Tag = uint64(v)
			case attrs.Pos:
				t.Pos = uint64(v)
			case attrs.Lemma:
				t.Lemma = uint64(v)
			case attrs.Dep:
				t.Dep = uint64(v)
			case attrs.Head:
				h := i + int(v)
				if h < 0 || h >= len(d.tokens) {
					return fmt.Errorf("token %d head offset %d out of range", i, v)
				}
				t.Head = h
			case attrs.Morph:
				t.Morph = uint64(v)
			case attrs.SentStart:
				if v < -1 || v > 1 {
					return fmt.Errorf("token %d sent_start %d out of range", i, v)
				}
				t.SentStart = int8(v)
			case attrs.EntIOB:
				if v < 0 || v > int64(IOBBegin) {
					return fmt.Errorf("token %d ent_iob code %d out of range", i, v)
				}
				t.EntIOB = IOB(v)
			case attrs.EntType:
				t.EntType = uint64(v)
			case attrs.EntKBID:
				t.EntKBID = uint64(v)
			default:
				return fmt.Errorf("attribute %s has no column form", a)
			}
		}
	}
	for _, a := range as {
		d.present[a] = true
	}
	return nil
}

// ToArray is the inverse of FromArray: HEAD is emitted as a relative
// offset so the array stays valid under slicing.
func (d *Doc) ToArray(as []attrs.Attr) [][]int64 {
	rows := make([][]int64, len(d.tokens))
	for i := range d.tokens {
		row := make([]int64, len(as))
		for c, a := range as {
			if a == attrs.Head {
				row[c] = int64(d.tokens[i].Head - i)
				continue
			}
			row[c] = d.Value(i, a)
		}
		rows[i] = row
	}
	return rows
}

// Slice copies tokens [lo,hi) into a standalone document. Offsets are
// rebased and heads pointing outside the slice are clamped to the token
// itself, matching how sentence slices are cut from a larger parse.
func (d *Doc) Slice(lo, hi int) (*Doc, error) {
	if lo < 0 || hi < lo || hi > len(d.tokens) {
		return nil, fmt.Errorf("slice [%d,%d) out of range for %d tokens", lo, hi, len(d.tokens))
	}
	words := make([]string, hi-lo)
	spaces := make([]bool, hi-lo)
	for i := lo; i < hi; i++ {
		words[i-lo] = d.tokens[i].Text
		spaces[i-lo] = d.tokens[i].SpaceAfter
	}
	out, err := New(d.store, words, spaces)
	if err != nil {
		return nil, err
	}
	for i := lo; i < hi; i++ {
		t := d.tokens[i]
		h := t.Head
		if h < lo || h >= hi {
			h = i
		}
		t.Head = h - lo
		t.Offset = out.tokens[i-lo].Offset
		out.tokens[i-lo] = t
	}
	for a := range d.present {
		out.present[a] = true
	}
	out.SetCats(d.cats)
	return out, nil
}

// SentenceRanges returns the [start,end) token ranges of sentences,
// derived from the SENT_START column. Token 0 always opens a sentence.
// Without sentence annotation the whole document is one range.
func (d *Doc) SentenceRanges() [][2]int {
	if len(d.tokens) == 0 {
		return nil
	}
	var out [][2]int
	start := 0
	for i := 1; i < len(d.tokens); i++ {
		if d.tokens[i].SentStart == 1 {
			out = append(out, [2]int{start, i})
			start = i
		}
	}
	return append(out, [2]int{start, len(d.tokens)})
}

// HasSentenceBoundaries reports whether any sentence-start annotation
// beyond the implicit document start is present.
func (d *Doc) HasSentenceBoundaries() bool {
	if !d.present[attrs.SentStart] {
		return false
	}
	for i := range d.tokens {
		if d.tokens[i].SentStart != 0 {
			return true
		}
	}
	return false
}

// EntitySpans reads the realized entity spans back out of the IOB and
// type columns. The KBID of a span is taken from its first token.
func (d *Doc) EntitySpans() []Span {
	var out []Span
	open := -1
	for i, t := range d.tokens {
		if t.EntIOB == IOBBegin {
			if open >= 0 {
				out = append(out, d.spanAt(open, i))
			}
			open = i
		} else if t.EntIOB != IOBInside {
			if open >= 0 {
				out = append(out, d.spanAt(open, i))
				open = -1
			}
		}
	}
	if open >= 0 {
		out = append(out, d.spanAt(open, len(d.tokens)))
	}
	return out
}

func (d *Doc) spanAt(lo, hi int) Span {
	return Span{
		Start: lo,
		End:   hi,
		Label: d.store.Resolve(d.tokens[lo].EntType),
		KBID:  d.store.Resolve(d.tokens[lo].EntKBID),
	}
}

// CharBounds returns each token's [start,end) byte offsets in Text(),
// excluding trailing spaces. The two slices feed tag conversion.
func (d *Doc) CharBounds() (starts, ends []int) {
	starts = make([]int, len(d.tokens))
	ends = make([]int, len(d.tokens))
	for i, t := range d.tokens {
		starts[i] = t.Offset
		ends[i] = t.Offset + len(t.Text)
	}
	return starts, ends
}

// SpanText returns the surface text of a token span, without the trailing
// space of the final token.
func (d *Doc) SpanText(s Span) string {
	if s.Start >= s.End {
		return ""
	}
	lo := d.tokens[s.Start].Offset
	hi := d.tokens[s.End-1].Offset + len(d.tokens[s.End-1].Text)
	return d.text[lo:hi]
}

// BILUOTags renders the entity columns as BILUO tags, one per token, with
// biluo.Missing for tokens whose gold status is unknown.
func (d *Doc) BILUOTags() []string {
	tags := make([]string, len(d.tokens))
	for i := range tags {
		tags[i] = biluo.Missing
	}
	for i, t := range d.tokens {
		if t.EntIOB == IOBOutside {
			tags[i] = biluo.Outside
		}
	}
	for _, s := range d.EntitySpans() {
		if s.Label == "" {
			continue
		}
		if s.End-s.Start == 1 {
			tags[s.Start] = "U-" + s.Label
			continue
		}
		tags[s.Start] = "B-" + s.Label
		for i := s.Start + 1; i < s.End-1; i++ {
			tags[i] = "I-" + s.Label
		}
		tags[s.End-1] = "L-" + s.Label
	}
	return tags
}
