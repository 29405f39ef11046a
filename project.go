package goldalign

import (
	"strings"

	"github.com/goldalign/goldalign/attrs"
	"github.com/goldalign/goldalign/biluo"
	"github.com/goldalign/goldalign/doc"
	"github.com/goldalign/goldalign/nonproj"
)

// AlignedParse projects the reference dependency tree onto the predicted
// frame. The reference tree is projectivized first; index remapping is
// only meaningful for projective structures.
//
// The result holds one entry per predicted token. A head is resolved by
// mapping the reference head's index back through the inverse
// correspondence; when the child or the head image is unaligned, both the
// head and the label stay unset for that token.
func (e *Example) AlignedParse() ([]Maybe[int], []Maybe[string], error) {
	al, err := e.Alignment()
	if err != nil {
		return nil, nil, err
	}

	ref := e.reference
	refHeads := make([]int, ref.Len())
	refLabels := make([]string, ref.Len())
	for j := 0; j < ref.Len(); j++ {
		refHeads[j] = ref.Token(j).Head
		refLabels[j] = ref.StringValue(j, attrs.Dep)
	}
	projHeads, projLabels := nonproj.Projectivize(refHeads, refLabels)

	heads := make([]Maybe[int], e.predicted.Len())
	labels := make([]Maybe[string], e.predicted.Len())
	for i := range heads {
		j, ok := al.CandResolved(i)
		if !ok {
			continue
		}
		head, ok := al.GoldResolved(projHeads[j])
		if !ok {
			continue
		}
		heads[i] = Some(head)
		labels[i] = Some(projLabels[j])
	}
	return heads, labels, nil
}

// AlignedNER projects the reference entity spans onto the predicted frame
// and returns one BILUO tag per predicted token.
//
// Each reference span is first mapped by its boundaries through the
// inverse correspondence. A span whose boundaries do not both resolve
// falls back to exact-substring recovery: if its surface text occurs
// exactly once in the predicted text, the span is recovered by character
// offset; otherwise the entity is dropped and logged.
//
// Tokens outside every projected span are "O", except that a predicted
// token aligned to the reference token that began a dropped entity is
// marked "-": no gold label is available there, which consumers must keep
// distinct from a confirmed non-entity.
func (e *Example) AlignedNER() ([]string, error) {
	al, err := e.Alignment()
	if err != nil {
		return nil, err
	}

	predStarts, predEnds := e.predicted.CharBounds()
	predText := e.predicted.Text()

	var offsets []biluo.Offset
	var failedStarts []int
	for _, sp := range e.reference.EntitySpans() {
		if sp.Label == "" {
			continue
		}
		start, ok1 := al.GoldResolved(sp.Start)
		end, ok2 := al.GoldResolved(sp.End - 1)
		if ok1 && ok2 && start <= end {
			offsets = append(offsets, biluo.Offset{
				Start: predStarts[start],
				End:   predEnds[end],
				Label: sp.Label,
			})
			continue
		}
		text := e.reference.SpanText(doc.Span{Start: sp.Start, End: sp.End})
		if n := strings.Count(predText, text); text == "" || n != 1 {
			e.opts.logger.LogDroppedEntity(sp.Label, text, strings.Count(predText, text))
			failedStarts = append(failedStarts, sp.Start)
			continue
		}
		at := strings.Index(predText, text)
		offsets = append(offsets, biluo.Offset{Start: at, End: at + len(text), Label: sp.Label})
	}

	tags, err := biluo.OffsetsToTags(predStarts, predEnds, offsets, biluo.Outside)
	if err != nil {
		return nil, err
	}

	if len(failedStarts) > 0 {
		failed := make(map[int]bool, len(failedStarts))
		for _, j := range failedStarts {
			failed[j] = true
		}
		for i := range tags {
			if tags[i] != biluo.Outside {
				continue
			}
			if j, ok := al.CandResolved(i); ok && failed[j] {
				tags[i] = biluo.Missing
			}
		}
	}
	return tags, nil
}
