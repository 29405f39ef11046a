package bundle

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/goldalign/goldalign/biluo"
	"github.com/goldalign/goldalign/doc"
)

// Entities is the sealed variant of the three accepted entity
// representations. Resolution switches exhaustively over the concrete
// types; shape sniffing happens only in Detect, at the ingestion boundary.
type Entities interface {
	isEntities()
}

// EntityOffsets declares entities as character-offset triples.
type EntityOffsets []biluo.Offset

func (EntityOffsets) isEntities() {}

// EntityTags declares entities as per-token boundary tags, IOB or BILUO.
// "-" (or an absent tag) means no gold label is available, which is
// distinct from an explicit "O".
type EntityTags []string

func (EntityTags) isEntities() {}

// EntitySpans declares entities as realized token-coordinate spans. A span
// with an empty label is an explicit negative: it clears any prior entity
// assignment over its tokens but does not join the final entity set.
type EntitySpans []doc.Span

func (EntitySpans) isEntities() {}

// Detect classifies a loose entity value by the shape of its first
// element: offset triples, per-token tag strings, or realized spans.
func Detect(v any) (Entities, error) {
	switch e := v.(type) {
	case nil:
		return nil, nil
	case Entities:
		return e, nil
	case []biluo.Offset:
		return EntityOffsets(e), nil
	case []string:
		return EntityTags(e), nil
	case []doc.Span:
		return EntitySpans(e), nil
	case []any:
		if len(e) == 0 {
			return EntityTags(nil), nil
		}
		switch first := e[0].(type) {
		case string:
			tags, err := asStrings("entities", v)
			if err != nil {
				return nil, err
			}
			return EntityTags(tags), nil
		case []any:
			return detectOffsets(e)
		case map[string]any:
			return detectSpans(e)
		default:
			return nil, fmt.Errorf("entities: unsupported element %T", first)
		}
	default:
		return nil, fmt.Errorf("entities: unsupported shape %T", v)
	}
}

func detectOffsets(elems []any) (EntityOffsets, error) {
	out := make(EntityOffsets, 0, len(elems))
	for _, e := range elems {
		t, ok := e.([]any)
		if !ok || len(t) != 3 {
			return nil, fmt.Errorf("entities: %v is not a (start, end, label) triple", e)
		}
		start, err := asInt(t[0])
		if err != nil {
			return nil, fmt.Errorf("entities: %w", err)
		}
		end, err := asInt(t[1])
		if err != nil {
			return nil, fmt.Errorf("entities: %w", err)
		}
		label, ok := t[2].(string)
		if !ok {
			return nil, fmt.Errorf("entities: label %v is not a string", t[2])
		}
		out = append(out, biluo.Offset{Start: start, End: end, Label: label})
	}
	return out, nil
}

func detectSpans(elems []any) (EntitySpans, error) {
	out := make(EntitySpans, 0, len(elems))
	for _, e := range elems {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("entities: %v is not a span record", e)
		}
		var sp doc.Span
		var err error
		if sp.Start, err = asInt(m["start"]); err != nil {
			return nil, fmt.Errorf("entities: span start: %w", err)
		}
		if sp.End, err = asInt(m["end"]); err != nil {
			return nil, fmt.Errorf("entities: span end: %w", err)
		}
		sp.Label, _ = m["label"].(string)
		sp.KBID, _ = m["kb_id"].(string)
		out = append(out, sp)
	}
	return out, nil
}

// ResolveEntities canonicalizes any of the three entity representations
// into per-token BILUO tags over the given tokenization. The document
// supplies token boundaries for the offset form.
func ResolveEntities(d *doc.Doc, ents Entities) ([]string, error) {
	switch e := ents.(type) {
	case nil:
		return nil, nil
	case EntityOffsets:
		starts, ends := d.CharBounds()
		return biluo.OffsetsToTags(starts, ends, e, biluo.Outside)
	case EntityTags:
		if len(e) == 0 {
			return allOutside(d.Len()), nil
		}
		if len(e) != d.Len() {
			return nil, fmt.Errorf("entities: %d tags for %d tokens", len(e), d.Len())
		}
		return biluo.IOBToBILUO(e)
	case EntitySpans:
		tags := allOutside(d.Len())
		for _, sp := range e {
			if sp.Start < 0 || sp.End > d.Len() || sp.Start >= sp.End {
				return nil, fmt.Errorf("entities: span [%d,%d) out of range for %d tokens", sp.Start, sp.End, d.Len())
			}
			if sp.Label == "" {
				// explicit negative: tokens stay outside
				continue
			}
			if sp.End-sp.Start == 1 {
				tags[sp.Start] = "U-" + sp.Label
				continue
			}
			tags[sp.Start] = "B-" + sp.Label
			for i := sp.Start + 1; i < sp.End-1; i++ {
				tags[i] = "I-" + sp.Label
			}
			tags[sp.End-1] = "L-" + sp.Label
		}
		return tags, nil
	default:
		return nil, fmt.Errorf("entities: unsupported representation %T", ents)
	}
}

func allOutside(n int) []string {
	tags := make([]string, n)
	for i := range tags {
		tags[i] = biluo.Outside
	}
	return tags
}

// ResolveLinks validates link annotations against the resolved entity tags
// and returns the per-token kb-id strings (empty for unlinked tokens).
//
// Every link span must equal exactly one declared entity's character span.
// Among a link's kb-ids with weight exactly 1.0: two or more is ambiguous,
// one is assigned across the entity's tokens, zero leaves them empty.
func ResolveLinks(d *doc.Doc, entityTags []string, links map[CharSpan]map[string]float64) ([]string, error) {
	kbIDs := make([]string, d.Len())
	if len(links) == 0 {
		return kbIDs, nil
	}

	spans, err := biluo.TagsToSpans(entityTags)
	if err != nil {
		return nil, err
	}
	starts, ends := d.CharBounds()
	declared := mapset.NewThreadUnsafeSet[CharSpan]()
	tokenRange := make(map[CharSpan][2]int, len(spans))
	for _, sp := range spans {
		cs := CharSpan{Start: starts[sp.Start], End: ends[sp.End-1]}
		declared.Add(cs)
		tokenRange[cs] = [2]int{sp.Start, sp.End}
	}

	ordered := make([]CharSpan, 0, len(links))
	for cs := range links {
		ordered = append(ordered, cs)
	}
	sort.Slice(ordered, func(a, b int) bool {
		if ordered[a].Start != ordered[b].Start {
			return ordered[a].Start < ordered[b].Start
		}
		return ordered[a].End < ordered[b].End
	})

	for _, cs := range ordered {
		kb := links[cs]
		if !declared.Contains(cs) {
			return nil, &LinkMismatchError{Start: cs.Start, End: cs.End}
		}
		var gold []string
		for _, id := range sortedKBIDs(kb) {
			if kb[id] == 1.0 {
				gold = append(gold, id)
			}
		}
		if len(gold) > 1 {
			return nil, &AmbiguousLinkError{Start: cs.Start, End: cs.End, KBIDs: gold}
		}
		if len(gold) == 1 {
			r := tokenRange[cs]
			for i := r[0]; i < r[1]; i++ {
				kbIDs[i] = gold[0]
			}
		}
	}
	return kbIDs, nil
}
