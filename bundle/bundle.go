// Package bundle ingests loosely-typed annotation bundles, validates
// them, and encodes them into the dense columnar form documents consume.
//
// A bundle arrives either in the modern structured shape, with
// "token_annotation" and "doc_annotation" records, or in the legacy flat
// shape with field names hoisted to the top level. Normalize resolves the
// duality once at ingestion; nothing downstream knows legacy names exist.
package bundle

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goldalign/goldalign/codec"
)

// TokenAnnotation holds the per-token annotation sequences of a bundle.
// Every non-nil slice must have one entry per token.
type TokenAnnotation struct {
	Words      []string
	Spaces     []bool
	Tags       []string
	POS        []string
	Lemmas     []string
	Deps       []string
	Heads      []int
	Morphs     []string
	SentStarts []int
	EntIOBs    []string
	EntTypes   []string
	EntKBIDs   []string
}

// CharSpan is a character-offset span used as a link key, end exclusive.
type CharSpan struct {
	Start int
	End   int
}

// DocAnnotation holds the document-level annotations of a bundle.
type DocAnnotation struct {
	Cats     map[string]float64
	Entities Entities
	Links    map[CharSpan]map[string]float64
}

// Bundle is a normalized annotation bundle: the transport form of a
// reference document. It is consumed to realize a document and then
// discarded.
type Bundle struct {
	Token TokenAnnotation
	Doc   DocAnnotation

	// Text is the raw document text, when the bundle carried one. It feeds
	// whitespace guessing and is not an annotation field.
	Text string
}

// NumTokens returns the token count implied by the word sequence.
func (b *Bundle) NumTokens() int { return len(b.Token.Words) }

// DecodeRaw unmarshals serialized bundle payloads into the loose map form
// Normalize accepts. A nil codec uses the default.
func DecodeRaw(c codec.Codec, data []byte) (map[string]any, error) {
	if c == nil {
		c = codec.Default
	}
	var m map[string]any
	if err := c.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return m, nil
}

// Marshal serializes the structured shape of the bundle. A nil codec uses
// the default.
func (b *Bundle) Marshal(c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	return c.Marshal(b.AsMap())
}

// AsMap exports the bundle in the modern structured shape. Entity
// annotations are exported as a BILUO tag sequence; links use "start,end"
// keys so the shape survives JSON.
func (b *Bundle) AsMap() map[string]any {
	tok := map[string]any{}
	put := func(k string, present bool, v any) {
		if present {
			tok[k] = v
		}
	}
	put("ORTH", b.Token.Words != nil, b.Token.Words)
	put("SPACY", b.Token.Spaces != nil, b.Token.Spaces)
	put("TAG", b.Token.Tags != nil, b.Token.Tags)
	put("POS", b.Token.POS != nil, b.Token.POS)
	put("LEMMA", b.Token.Lemmas != nil, b.Token.Lemmas)
	put("DEP", b.Token.Deps != nil, b.Token.Deps)
	put("HEAD", b.Token.Heads != nil, b.Token.Heads)
	put("MORPH", b.Token.Morphs != nil, b.Token.Morphs)
	put("SENT_START", b.Token.SentStarts != nil, b.Token.SentStarts)
	put("ENT_IOB", b.Token.EntIOBs != nil, b.Token.EntIOBs)
	put("ENT_TYPE", b.Token.EntTypes != nil, b.Token.EntTypes)
	put("ENT_KB_ID", b.Token.EntKBIDs != nil, b.Token.EntKBIDs)

	da := map[string]any{}
	if b.Doc.Cats != nil {
		da["cats"] = b.Doc.Cats
	}
	switch e := b.Doc.Entities.(type) {
	case EntityTags:
		da["entities"] = []string(e)
	case EntityOffsets:
		da["entities"] = e
	case EntitySpans:
		da["entities"] = e
	}
	if b.Doc.Links != nil {
		links := make(map[string]map[string]float64, len(b.Doc.Links))
		for sp, kb := range b.Doc.Links {
			links[sp.key()] = kb
		}
		da["links"] = links
	}

	out := map[string]any{
		"token_annotation": tok,
		"doc_annotation":   da,
	}
	if b.Text != "" {
		out["text"] = b.Text
	}
	return out
}

func (s CharSpan) key() string {
	return strconv.Itoa(s.Start) + "," + strconv.Itoa(s.End)
}

func parseSpanKey(k string) (CharSpan, error) {
	lo, hi, ok := strings.Cut(strings.Trim(k, "() "), ",")
	if !ok {
		return CharSpan{}, fmt.Errorf("malformed link span key %q", k)
	}
	start, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return CharSpan{}, fmt.Errorf("malformed link span key %q", k)
	}
	end, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return CharSpan{}, fmt.Errorf("malformed link span key %q", k)
	}
	return CharSpan{Start: start, End: end}, nil
}

// sortedKBIDs returns the kb-ids of a link map in stable order.
func sortedKBIDs(kb map[string]float64) []string {
	out := make([]string, 0, len(kb))
	for id := range kb {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
