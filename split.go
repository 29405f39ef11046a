package goldalign

import (
	"github.com/goldalign/goldalign/attrs"
)

// SplitSentences partitions an example into one sub-example per reference
// sentence. Without sentence boundaries on the reference document the
// original example is returned unchanged as a single-element slice.
//
// The predicted frame is cut at the aligned sentence-start markers, with a
// virtual marker one position past the end; the k-th reference sentence is
// paired with the k-th predicted range. Reference sentence starts that have
// no image in the predicted frame produce no marker, so a predicted range
// can cover several reference sentences; the corresponding extra
// sub-examples carry empty predicted slices. Concatenating the predicted
// slices of the result always reconstructs the original predicted
// tokenization, with no token dropped, duplicated, or reordered.
func (e *Example) SplitSentences() ([]*Example, error) {
	if !e.reference.HasSentenceBoundaries() {
		return []*Example{e}, nil
	}

	marks, err := e.AlignedID(attrs.SentStart)
	if err != nil {
		return nil, err
	}
	bounds := []int{0}
	for i := 1; i < len(marks); i++ {
		if marks[i].Known && marks[i].Value == 1 {
			bounds = append(bounds, i)
		}
	}
	bounds = append(bounds, e.predicted.Len())

	refRanges := e.reference.SentenceRanges()
	out := make([]*Example, 0, len(refRanges))
	for k, rr := range refRanges {
		lo, hi := e.predicted.Len(), e.predicted.Len()
		if k < len(bounds)-1 {
			lo, hi = bounds[k], bounds[k+1]
		}
		if k == len(refRanges)-1 {
			hi = e.predicted.Len()
		}
		pred, err := e.predicted.Slice(lo, hi)
		if err != nil {
			return nil, err
		}
		ref, err := e.reference.Slice(rr[0], rr[1])
		if err != nil {
			return nil, err
		}
		sub, err := New(pred, ref)
		if err != nil {
			return nil, err
		}
		sub.opts = e.opts
		out = append(out, sub)
	}
	return out, nil
}
