package bundle

import (
	"github.com/goldalign/goldalign/attrs"
	"github.com/goldalign/goldalign/doc"
)

// FromDoc exports a realized document back into a structured bundle.
// Only columns that were populated on the document appear; a round trip
// through Realize and FromDoc preserves the structured shape.
func FromDoc(d *doc.Doc) *Bundle {
	b := &Bundle{
		Token: TokenAnnotation{
			Words:  d.Words(),
			Spaces: d.Spaces(),
		},
		Text: d.Text(),
	}

	n := d.Len()
	strCol := func(a attrs.Attr) []string {
		out := make([]string, n)
		for i := 0; i < n; i++ {
			out[i] = d.StringValue(i, a)
		}
		return out
	}

	if d.Has(attrs.Tag) {
		b.Token.Tags = strCol(attrs.Tag)
	}
	if d.Has(attrs.Pos) {
		b.Token.POS = strCol(attrs.Pos)
	}
	if d.Has(attrs.Lemma) {
		b.Token.Lemmas = strCol(attrs.Lemma)
	}
	if d.Has(attrs.Dep) {
		b.Token.Deps = strCol(attrs.Dep)
	}
	if d.Has(attrs.Head) {
		heads := make([]int, n)
		for i := 0; i < n; i++ {
			heads[i] = d.Token(i).Head
		}
		b.Token.Heads = heads
	}
	if d.Has(attrs.Morph) {
		b.Token.Morphs = strCol(attrs.Morph)
	}
	if d.Has(attrs.SentStart) {
		ss := make([]int, n)
		for i := 0; i < n; i++ {
			ss[i] = int(d.Token(i).SentStart)
		}
		b.Token.SentStarts = ss
	}
	if d.Has(attrs.EntKBID) {
		b.Token.EntKBIDs = strCol(attrs.EntKBID)
	}
	if d.Has(attrs.EntIOB) {
		b.Doc.Entities = EntityTags(d.BILUOTags())
	}
	if len(d.Cats()) > 0 {
		b.Doc.Cats = d.Cats()
	}
	return b
}
