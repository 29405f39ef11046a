package bundle

import (
	"fmt"

	"github.com/goldalign/goldalign/attrs"
	"github.com/goldalign/goldalign/biluo"
	"github.com/goldalign/goldalign/doc"
	"github.com/goldalign/goldalign/intern"
)

// columnOrder fixes the attribute order of encoded arrays. ORTH and SPACY
// are consumed by tokenization and never appear as columns.
var columnOrder = []attrs.Attr{
	attrs.Tag, attrs.Pos, attrs.Lemma, attrs.Dep, attrs.Head,
	attrs.Morph, attrs.SentStart, attrs.EntIOB, attrs.EntType, attrs.EntKBID,
}

// Encode turns the canonical token fields into attribute identifiers and a
// numeric column array, one row per token. String fields are interned,
// MORPH goes through the morphology interner, HEAD becomes a signed offset
// relative to the owning token, SENT_START passes through, and ENT_IOB is
// validated against its fixed enumeration.
func Encode(store *intern.Store, morphs *intern.MorphStore, t *TokenAnnotation) ([]attrs.Attr, [][]int64, error) {
	n := len(t.Words)
	// A wordless bundle passes normalization with internally consistent
	// fields; their length is settled only once a tokenization is borrowed.
	if err := checkLengths(t, n); err != nil {
		return nil, nil, err
	}
	var cols []attrs.Attr
	var get []func(i int) (int64, error)

	add := func(a attrs.Attr, f func(i int) (int64, error)) {
		cols = append(cols, a)
		get = append(get, f)
	}
	interned := func(vals []string) func(i int) (int64, error) {
		return func(i int) (int64, error) { return int64(store.Intern(vals[i])), nil }
	}

	for _, a := range columnOrder {
		switch a {
		case attrs.Tag:
			if t.Tags != nil {
				add(a, interned(t.Tags))
			}
		case attrs.Pos:
			if t.POS != nil {
				add(a, interned(t.POS))
			}
		case attrs.Lemma:
			if t.Lemmas != nil {
				add(a, interned(t.Lemmas))
			}
		case attrs.Dep:
			if t.Deps != nil {
				add(a, interned(t.Deps))
			}
		case attrs.Head:
			if t.Heads != nil {
				heads := t.Heads
				add(a, func(i int) (int64, error) {
					if heads[i] < 0 || heads[i] >= n {
						return 0, fmt.Errorf("token %d head %d out of range", i, heads[i])
					}
					return int64(heads[i] - i), nil
				})
			}
		case attrs.Morph:
			if t.Morphs != nil {
				m := t.Morphs
				add(a, func(i int) (int64, error) { return int64(morphs.Intern(m[i])), nil })
			}
		case attrs.SentStart:
			if t.SentStarts != nil {
				ss := t.SentStarts
				add(a, func(i int) (int64, error) { return int64(ss[i]), nil })
			}
		case attrs.EntIOB:
			if t.EntIOBs != nil {
				iobs := t.EntIOBs
				add(a, func(i int) (int64, error) {
					code, ok := iobCode(iobs[i])
					if !ok {
						return 0, &UnknownTagError{Tag: iobs[i]}
					}
					return int64(code), nil
				})
			}
		case attrs.EntType:
			if t.EntTypes != nil {
				add(a, interned(t.EntTypes))
			}
		case attrs.EntKBID:
			if t.EntKBIDs != nil {
				add(a, interned(t.EntKBIDs))
			}
		}
	}

	rows := make([][]int64, n)
	for i := 0; i < n; i++ {
		row := make([]int64, len(cols))
		for c := range cols {
			v, err := get[c](i)
			if err != nil {
				return nil, nil, err
			}
			row[c] = v
		}
		rows[i] = row
	}
	return cols, rows, nil
}

func iobCode(tag string) (doc.IOB, bool) {
	switch tag {
	case "":
		return doc.IOBMissing, true
	case "I":
		return doc.IOBInside, true
	case "O":
		return doc.IOBOutside, true
	case "B":
		return doc.IOBBegin, true
	default:
		return 0, false
	}
}

// Realize builds a reference document from a normalized bundle: the words
// and space flags become the tokenization, the encoder fills the columns,
// document-level entities and links are resolved into the entity columns,
// and categories are copied. A malformed bundle never yields a document.
//
// Entity annotations in the doc record take precedence over ENT_IOB and
// ENT_TYPE token columns when both are present.
func Realize(store *intern.Store, b *Bundle) (*doc.Doc, error) {
	d, err := doc.New(store, b.Token.Words, b.Token.Spaces)
	if err != nil {
		return nil, err
	}
	cols, rows, err := Encode(d.Store(), d.Morphs(), &b.Token)
	if err != nil {
		return nil, err
	}

	var tags []string
	if b.Doc.Entities != nil {
		tags, err = ResolveEntities(d, b.Doc.Entities)
		if err != nil {
			return nil, err
		}
	}
	if tags != nil {
		iobCol, typeCol := tagColumns(d, tags)
		cols, rows = setColumn(cols, rows, attrs.EntIOB, iobCol)
		cols, rows = setColumn(cols, rows, attrs.EntType, typeCol)
	}

	if len(b.Doc.Links) > 0 {
		if tags == nil {
			tags, err = declaredTags(b)
			if err != nil {
				return nil, err
			}
		}
		kbIDs, err := ResolveLinks(d, tags, b.Doc.Links)
		if err != nil {
			return nil, err
		}
		col := make([]int64, d.Len())
		for i, id := range kbIDs {
			col[i] = int64(d.Store().Intern(id))
		}
		cols, rows = setColumn(cols, rows, attrs.EntKBID, col)
	}

	if err := d.FromArray(cols, rows); err != nil {
		return nil, err
	}
	if b.Doc.Cats != nil {
		d.SetCats(b.Doc.Cats)
	}
	return d, nil
}

// declaredTags reconstructs BILUO tags from token-level entity columns for
// link validation. Links without any declared entities cannot match.
func declaredTags(b *Bundle) ([]string, error) {
	if b.Token.EntIOBs == nil {
		sp := smallestLink(b.Doc.Links)
		return nil, &LinkMismatchError{Start: sp.Start, End: sp.End}
	}
	tags := make([]string, len(b.Token.Words))
	for i, iob := range b.Token.EntIOBs {
		switch iob {
		case "":
			tags[i] = biluo.Missing
		case "O":
			tags[i] = biluo.Outside
		case "B", "I":
			label := ""
			if b.Token.EntTypes != nil {
				label = b.Token.EntTypes[i]
			}
			tags[i] = iob + "-" + label
		default:
			return nil, &UnknownTagError{Tag: iob}
		}
	}
	return biluo.IOBToBILUO(tags)
}

func smallestLink(links map[CharSpan]map[string]float64) CharSpan {
	var best CharSpan
	first := true
	for sp := range links {
		if first || sp.Start < best.Start || (sp.Start == best.Start && sp.End < best.End) {
			best = sp
			first = false
		}
	}
	return best
}

// tagColumns decodes BILUO tags into the ENT_IOB and ENT_TYPE columns.
func tagColumns(d *doc.Doc, tags []string) (iob, typ []int64) {
	iob = make([]int64, len(tags))
	typ = make([]int64, len(tags))
	for i, t := range tags {
		switch {
		case t == "" || t == biluo.Missing:
			iob[i] = int64(doc.IOBMissing)
		case t == biluo.Outside:
			iob[i] = int64(doc.IOBOutside)
		case len(t) > 2 && (t[0] == 'B' || t[0] == 'U'):
			iob[i] = int64(doc.IOBBegin)
			typ[i] = int64(d.Store().Intern(t[2:]))
		case len(t) > 2 && (t[0] == 'I' || t[0] == 'L'):
			iob[i] = int64(doc.IOBInside)
			typ[i] = int64(d.Store().Intern(t[2:]))
		}
	}
	return iob, typ
}

// setColumn replaces or appends one column of the encoded array.
func setColumn(cols []attrs.Attr, rows [][]int64, a attrs.Attr, col []int64) ([]attrs.Attr, [][]int64) {
	for c, existing := range cols {
		if existing == a {
			for i := range rows {
				rows[i][c] = col[i]
			}
			return cols, rows
		}
	}
	cols = append(cols, a)
	for i := range rows {
		rows[i] = append(rows[i], col[i])
	}
	return cols, rows
}
