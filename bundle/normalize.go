package bundle

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// legacyFields maps legacy flat-bundle keys to canonical field names.
var legacyFields = map[string]string{
	"words":       "ORTH",
	"tags":        "TAG",
	"pos":         "POS",
	"lemmas":      "LEMMA",
	"deps":        "DEP",
	"heads":       "HEAD",
	"sent_starts": "SENT_START",
	"morphs":      "MORPH",
	"spaces":      "SPACY",
}

// Option configures normalization.
type Option func(*normOptions)

type normOptions struct {
	logger *slog.Logger
}

// WithLogger routes non-fatal normalization diagnostics to the given
// logger. The default discards them.
func WithLogger(l *slog.Logger) Option {
	return func(o *normOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Normalize reconciles a loosely-typed bundle, structured or legacy flat,
// into the canonical form. Unrecognized keys fail with UnknownFieldError;
// a malformed bundle never yields a partial result.
//
// Two repairs are applied during normalization: when both HEAD and
// SENT_START are present the sentence starts are dropped, since
// head-derived boundaries take precedence, and a diagnostic is logged;
// when SPACY is absent but raw text is available, trailing-space flags
// are recovered with the forward-cursor heuristic of GuessSpaces.
func Normalize(raw map[string]any, opts ...Option) (*Bundle, error) {
	o := normOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	b := &Bundle{}
	fields := map[string]any{}
	var rawEntities any
	haveEntities := false

	if isStructured(raw) {
		for k, v := range raw {
			switch k {
			case "token_annotation":
				ta, ok := v.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("token_annotation is not a record")
				}
				for fk, fv := range ta {
					if !canonicalField(fk) {
						return nil, &UnknownFieldError{Field: fk}
					}
					fields[fk] = fv
				}
			case "doc_annotation":
				da, ok := v.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("doc_annotation is not a record")
				}
				for dk, dv := range da {
					switch dk {
					case "cats":
						cats, err := asCats(dv)
						if err != nil {
							return nil, err
						}
						b.Doc.Cats = cats
					case "entities":
						rawEntities, haveEntities = dv, true
					case "links":
						links, err := asLinks(dv)
						if err != nil {
							return nil, err
						}
						b.Doc.Links = links
					default:
						return nil, &UnknownFieldError{Field: dk}
					}
				}
			case "text":
				b.Text, _ = v.(string)
			case "ids":
				// transport-only, dropped
			default:
				return nil, &UnknownFieldError{Field: k}
			}
		}
	} else {
		for k, v := range raw {
			if canonical, ok := legacyFields[k]; ok {
				fields[canonical] = v
				continue
			}
			switch k {
			case "text":
				b.Text, _ = v.(string)
			case "ids":
				// transport-only, dropped
			case "entities", "ner", "brackets":
				rawEntities, haveEntities = v, true
			case "cats":
				cats, err := asCats(v)
				if err != nil {
					return nil, err
				}
				b.Doc.Cats = cats
			case "links":
				links, err := asLinks(v)
				if err != nil {
					return nil, err
				}
				b.Doc.Links = links
			default:
				return nil, &UnknownFieldError{Field: k}
			}
		}
	}

	if err := fillTokenAnnotation(&b.Token, fields); err != nil {
		return nil, err
	}

	if b.Token.Heads != nil && b.Token.SentStarts != nil {
		o.logger.Warn("dropping SENT_START in favor of head-derived sentence boundaries")
		b.Token.SentStarts = nil
	}
	if b.Token.Spaces == nil && b.Token.Words != nil && b.Text != "" {
		b.Token.Spaces = GuessSpaces(b.Text, b.Token.Words)
	}

	if haveEntities {
		ents, err := Detect(rawEntities)
		if err != nil {
			return nil, err
		}
		b.Doc.Entities = ents
	}
	return b, nil
}

func isStructured(raw map[string]any) bool {
	_, tok := raw["token_annotation"]
	_, da := raw["doc_annotation"]
	return tok || da
}

func canonicalField(k string) bool {
	switch k {
	case "ORTH", "SPACY", "TAG", "POS", "LEMMA", "DEP", "HEAD",
		"MORPH", "SENT_START", "ENT_IOB", "ENT_TYPE", "ENT_KB_ID":
		return true
	}
	return false
}

func fillTokenAnnotation(t *TokenAnnotation, fields map[string]any) error {
	for k, v := range fields {
		var err error
		switch k {
		case "ORTH":
			t.Words, err = asStrings(k, v)
		case "SPACY":
			t.Spaces, err = asBools(k, v)
		case "TAG":
			t.Tags, err = asStrings(k, v)
		case "POS":
			t.POS, err = asStrings(k, v)
		case "LEMMA":
			t.Lemmas, err = asStrings(k, v)
		case "DEP":
			t.Deps, err = asStrings(k, v)
		case "HEAD":
			t.Heads, err = asInts(k, v)
		case "MORPH":
			t.Morphs, err = asStrings(k, v)
		case "SENT_START":
			t.SentStarts, err = asInts(k, v)
		case "ENT_IOB":
			t.EntIOBs, err = asStrings(k, v)
		case "ENT_TYPE":
			t.EntTypes, err = asStrings(k, v)
		case "ENT_KB_ID":
			t.EntKBIDs, err = asStrings(k, v)
		}
		if err != nil {
			return err
		}
	}
	return checkLengths(t, t.annotatedLen())
}

// annotatedLen returns the token count implied by the annotation: the word
// count when words are present, otherwise the length of the first
// annotated field. A wordless bundle borrows its tokenization from the
// predicted document later; the fields only have to agree with each other
// here.
func (t *TokenAnnotation) annotatedLen() int {
	if t.Words != nil {
		return len(t.Words)
	}
	switch {
	case t.Spaces != nil:
		return len(t.Spaces)
	case t.Tags != nil:
		return len(t.Tags)
	case t.POS != nil:
		return len(t.POS)
	case t.Lemmas != nil:
		return len(t.Lemmas)
	case t.Deps != nil:
		return len(t.Deps)
	case t.Heads != nil:
		return len(t.Heads)
	case t.Morphs != nil:
		return len(t.Morphs)
	case t.SentStarts != nil:
		return len(t.SentStarts)
	case t.EntIOBs != nil:
		return len(t.EntIOBs)
	case t.EntTypes != nil:
		return len(t.EntTypes)
	case t.EntKBIDs != nil:
		return len(t.EntKBIDs)
	}
	return 0
}

// checkLengths verifies that every annotated field has one value per
// token.
func checkLengths(t *TokenAnnotation, n int) error {
	for name, l := range map[string]int{
		"ORTH":       lenOrN(t.Words, n),
		"SPACY":      lenOrN(t.Spaces, n),
		"TAG":        lenOrN(t.Tags, n),
		"POS":        lenOrN(t.POS, n),
		"LEMMA":      lenOrN(t.Lemmas, n),
		"DEP":        lenOrN(t.Deps, n),
		"HEAD":       lenOrN(t.Heads, n),
		"MORPH":      lenOrN(t.Morphs, n),
		"SENT_START": lenOrN(t.SentStarts, n),
		"ENT_IOB":    lenOrN(t.EntIOBs, n),
		"ENT_TYPE":   lenOrN(t.EntTypes, n),
		"ENT_KB_ID":  lenOrN(t.EntKBIDs, n),
	} {
		if l != n {
			return fmt.Errorf("field %s has %d values for %d tokens", name, l, n)
		}
	}
	return nil
}

func lenOrN[T any](s []T, n int) int {
	if s == nil {
		return n
	}
	return len(s)
}

func asStrings(field string, v any) ([]string, error) {
	switch s := v.(type) {
	case []string:
		return s, nil
	case []any:
		out := make([]string, len(s))
		for i, e := range s {
			str, ok := e.(string)
			if !ok {
				if e == nil {
					str = ""
				} else {
					return nil, fmt.Errorf("field %s: value %v is not a string", field, e)
				}
			}
			out[i] = str
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %s: %T is not a string sequence", field, v)
	}
}

func asInts(field string, v any) ([]int, error) {
	switch s := v.(type) {
	case []int:
		return s, nil
	case []any:
		out := make([]int, len(s))
		for i, e := range s {
			n, err := asInt(e)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", field, err)
			}
			out[i] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %s: %T is not an integer sequence", field, v)
	}
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("value %v is not an integer", v)
	}
}

func asBools(field string, v any) ([]bool, error) {
	switch s := v.(type) {
	case []bool:
		return s, nil
	case []any:
		out := make([]bool, len(s))
		for i, e := range s {
			switch b := e.(type) {
			case bool:
				out[i] = b
			case float64:
				out[i] = b != 0
			case int:
				out[i] = b != 0
			default:
				return nil, fmt.Errorf("field %s: value %v is not a boolean", field, e)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %s: %T is not a boolean sequence", field, v)
	}
}

func asCats(v any) (map[string]float64, error) {
	switch m := v.(type) {
	case map[string]float64:
		return m, nil
	case map[string]any:
		out := make(map[string]float64, len(m))
		for k, e := range m {
			f, ok := asFloat(e)
			if !ok {
				return nil, fmt.Errorf("cats: score for %q is not a number", k)
			}
			out[k] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cats: %T is not a score map", v)
	}
}

func asLinks(v any) (map[CharSpan]map[string]float64, error) {
	switch m := v.(type) {
	case map[CharSpan]map[string]float64:
		return m, nil
	case map[string]map[string]float64:
		out := make(map[CharSpan]map[string]float64, len(m))
		for k, kb := range m {
			sp, err := parseSpanKey(k)
			if err != nil {
				return nil, err
			}
			out[sp] = kb
		}
		return out, nil
	case map[string]any:
		out := make(map[CharSpan]map[string]float64, len(m))
		for k, e := range m {
			sp, err := parseSpanKey(k)
			if err != nil {
				return nil, err
			}
			kbRaw, ok := e.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("links: value for %q is not a kb-id map", k)
			}
			kb := make(map[string]float64, len(kbRaw))
			for id, w := range kbRaw {
				f, ok := asFloat(w)
				if !ok {
					return nil, fmt.Errorf("links: weight for %q is not a number", id)
				}
				kb[id] = f
			}
			out[sp] = kb
		}
		return out, nil
	default:
		return nil, fmt.Errorf("links: %T is not a link map", v)
	}
}

func asFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	case int:
		return float64(f), true
	case int64:
		return float64(f), true
	default:
		return 0, false
	}
}

// GuessSpaces recovers trailing-space flags for words from the raw text.
//
// A forward cursor walks the text; each word is searched for at or after
// the cursor. A word that cannot be found is conservatively assumed to be
// followed by a space. The heuristic is not reliable under repeated or
// overlapping substrings but always terminates with one flag per word.
func GuessSpaces(text string, words []string) []bool {
	out := make([]bool, len(words))
	cursor := 0
	for i, w := range words {
		idx := strings.Index(text[cursor:], w)
		if idx < 0 {
			out[i] = true
			continue
		}
		end := cursor + idx + len(w)
		out[i] = end < len(text) && text[end] == ' '
		cursor = end
	}
	return out
}
