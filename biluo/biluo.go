// Package biluo converts between entity span offsets and per-token
// boundary tags.
//
// Tags follow the BILUO scheme: B-egin, I-nside, L-ast, U-nit, O-utside.
// The special tag "-" (or the empty string) means no gold label is
// available for the token, which is distinct from an explicit "O".
package biluo

import (
	"fmt"
)

const (
	// Missing marks a token with no gold annotation available.
	Missing = "-"
	// Outside marks a token explicitly outside every entity.
	Outside = "O"
)

// Offset is an entity span in character coordinates, end exclusive.
type Offset struct {
	Start int
	End   int
	Label string
}

// TokenSpan is an entity span in token coordinates, end exclusive.
type TokenSpan struct {
	Start int
	End   int
	Label string
}

// OffsetsToTags converts character-offset entity spans to per-token BILUO
// tags. starts and ends give each token's character range. Tokens not
// covered by any span receive the missing tag (pass Outside for the
// conventional default). Spans whose boundaries do not coincide with token
// boundaries cannot be expressed as tags; every token they touch is marked
// Missing instead. Overlapping spans are rejected.
func OffsetsToTags(starts, ends []int, spans []Offset, missing string) ([]string, error) {
	n := len(starts)
	tags := make([]string, n)

	byStart := make(map[int]int, n)
	byEnd := make(map[int]int, n)
	for i := 0; i < n; i++ {
		byStart[starts[i]] = i
		byEnd[ends[i]] = i
	}

	for _, sp := range spans {
		si, okS := byStart[sp.Start]
		ei, okE := byEnd[sp.End]
		if okS && okE && si <= ei {
			for i := si; i <= ei; i++ {
				if tags[i] != "" && tags[i] != Missing {
					return nil, fmt.Errorf("overlapping entity span [%d,%d) %q", sp.Start, sp.End, sp.Label)
				}
			}
			switch {
			case si == ei:
				tags[si] = "U-" + sp.Label
			default:
				tags[si] = "B-" + sp.Label
				for i := si + 1; i < ei; i++ {
					tags[i] = "I-" + sp.Label
				}
				tags[ei] = "L-" + sp.Label
			}
			continue
		}
		// Boundary mismatch: the span cannot be expressed in this
		// tokenization, so the touched tokens lose their gold status.
		for i := 0; i < n; i++ {
			if starts[i] < sp.End && ends[i] > sp.Start {
				tags[i] = Missing
			}
		}
	}

	for i, t := range tags {
		if t == "" {
			tags[i] = missing
		}
	}
	return tags, nil
}

// TagsToSpans decodes BILUO tags into token-coordinate spans. Missing and
// Outside tags produce no span. Inconsistent sequences (an entity that is
// opened but never closed, a stray continuation) are rejected.
func TagsToSpans(tags []string) ([]TokenSpan, error) {
	var spans []TokenSpan
	start := -1
	label := ""
	for i, t := range tags {
		action, l, err := splitTag(t)
		if err != nil {
			return nil, err
		}
		switch action {
		case 'O', '-':
			if start != -1 {
				return nil, fmt.Errorf("entity %q left open at token %d", label, i)
			}
		case 'U':
			if start != -1 {
				return nil, fmt.Errorf("entity %q left open at token %d", label, i)
			}
			spans = append(spans, TokenSpan{Start: i, End: i + 1, Label: l})
		case 'B':
			if start != -1 {
				return nil, fmt.Errorf("entity %q left open at token %d", label, i)
			}
			start, label = i, l
		case 'I':
			if start == -1 || l != label {
				return nil, fmt.Errorf("stray continuation tag %q at token %d", t, i)
			}
		case 'L':
			if start == -1 || l != label {
				return nil, fmt.Errorf("stray closing tag %q at token %d", t, i)
			}
			spans = append(spans, TokenSpan{Start: start, End: i + 1, Label: l})
			start, label = -1, ""
		}
	}
	if start != -1 {
		return nil, fmt.Errorf("entity %q left open at end of sequence", label)
	}
	return spans, nil
}

// IOBToBILUO rewrites an IOB tag sequence into the equivalent BILUO
// sequence. Missing tags pass through, and tags that are already BILUO are
// left alone. A stray "I" that does not continue a run of the same label
// is repaired to an opening tag. Plain "B" or "I" without a label are
// rejected.
func IOBToBILUO(tags []string) ([]string, error) {
	out := make([]string, len(tags))
	for i, t := range tags {
		action, label, err := splitTag(t)
		if err != nil {
			return nil, err
		}
		switch action {
		case 'O', '-':
			out[i] = t
		case 'B', 'I':
			if label == "" {
				return nil, fmt.Errorf("IOB tag %q at token %d has no label", t, i)
			}
			first := action == 'B' || opensRun(tags, i, label)
			last := !continues(tags, i+1, label)
			switch {
			case first && last:
				out[i] = "U-" + label
			case first:
				out[i] = "B-" + label
			case last:
				out[i] = "L-" + label
			default:
				out[i] = "I-" + label
			}
		case 'U', 'L':
			out[i] = t // already BILUO
		}
	}
	return out, nil
}

// opensRun reports whether an I tag at position i starts a fresh run:
// there is no open B or I of the same label immediately before it.
func opensRun(tags []string, i int, label string) bool {
	if i == 0 {
		return true
	}
	action, l, err := splitTag(tags[i-1])
	if err != nil {
		return true
	}
	return (action != 'B' && action != 'I') || l != label
}

// continues reports whether position i carries a continuation of the same
// label: an inner I or a closing L.
func continues(tags []string, i int, label string) bool {
	if i >= len(tags) {
		return false
	}
	action, l, err := splitTag(tags[i])
	return err == nil && (action == 'I' || action == 'L') && l == label
}

func splitTag(t string) (byte, string, error) {
	switch t {
	case "", Missing:
		return '-', "", nil
	case Outside:
		return 'O', "", nil
	}
	if len(t) >= 2 && t[1] == '-' {
		switch t[0] {
		case 'B', 'I', 'L', 'U':
			return t[0], t[2:], nil
		}
	}
	switch t {
	case "B", "I":
		// unlabeled IOB, caller decides validity
		return t[0], "", nil
	}
	return 0, "", fmt.Errorf("invalid boundary tag %q", t)
}
