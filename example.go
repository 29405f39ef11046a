package goldalign

import (
	"context"

	"github.com/goldalign/goldalign/align"
	"github.com/goldalign/goldalign/attrs"
	"github.com/goldalign/goldalign/batch"
	"github.com/goldalign/goldalign/bundle"
	"github.com/goldalign/goldalign/doc"
)

// Maybe is an optional value. Known distinguishes a real zero from "no
// value": an unaligned or whitespace-only token yields Known == false.
type Maybe[T any] struct {
	Value T
	Known bool
}

// Some wraps a known value.
func Some[T any](v T) Maybe[T] { return Maybe[T]{Value: v, Known: true} }

// None returns an absent value.
func None[T any]() Maybe[T] { return Maybe[T]{} }

// Example pairs a predicted document with a gold-annotated reference
// document and answers alignment-backed projection queries.
//
// The predicted document is supplied by the caller and outlives the
// Example. Both documents must not be mutated once the Example wraps
// them: the alignment is computed on first query and cached for the
// Example's lifetime. First access is not thread-safe.
type Example struct {
	predicted *doc.Doc
	reference *doc.Doc
	opts      options

	alignment *align.Alignment
}

// New wraps an existing document pair. Both documents are required.
func New(predicted, reference *doc.Doc, opts ...Option) (*Example, error) {
	if predicted == nil || reference == nil {
		return nil, ErrMissingDoc
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Example{predicted: predicted, reference: reference, opts: o}, nil
}

// FromBundle normalizes a raw annotation bundle, realizes the reference
// document against the predicted document's vocabulary, and wraps the
// pair. When the bundle carries no words of its own, the reference copies
// the predicted tokenization.
func FromBundle(predicted *doc.Doc, raw map[string]any, opts ...Option) (*Example, error) {
	if predicted == nil {
		return nil, ErrMissingDoc
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	b, err := bundle.Normalize(raw, bundle.WithLogger(o.logger.Logger))
	if err != nil {
		return nil, err
	}
	if b.Token.Words == nil {
		b.Token.Words = predicted.Words()
		if b.Token.Spaces == nil {
			b.Token.Spaces = predicted.Spaces()
		}
	}
	reference, err := bundle.Realize(predicted.Store(), b)
	if err != nil {
		return nil, err
	}
	return &Example{predicted: predicted, reference: reference, opts: o}, nil
}

// Predicted returns the predicted document.
func (e *Example) Predicted() *doc.Doc { return e.predicted }

// Reference returns the reference document.
func (e *Example) Reference() *doc.Doc { return e.reference }

// Alignment returns the token-index alignment between the predicted and
// reference frames, computing it on first call and memoizing it. The
// cache is never invalidated; documents are immutable by contract.
func (e *Example) Alignment() (*align.Alignment, error) {
	if e.alignment != nil {
		return e.alignment, nil
	}
	a, err := e.opts.aligner.Align(e.predicted.Words(), e.reference.Words())
	if err != nil {
		return nil, err
	}
	e.alignment = a
	return a, nil
}

// AlignedID projects one attribute column from the reference frame onto
// the predicted frame, as raw column values.
//
// A whitespace-only predicted token gets no value regardless of
// alignment. A token with a one-to-one mapping copies the reference value
// at that index. A token inside a multi-token group copies the value at
// the group's mapped reference index, without aggregating across the
// subsumed tokens. An unaligned token gets no value.
func (e *Example) AlignedID(a attrs.Attr) ([]Maybe[int64], error) {
	al, err := e.Alignment()
	if err != nil {
		return nil, err
	}
	out := make([]Maybe[int64], e.predicted.Len())
	for i := range out {
		if e.predicted.IsSpaceToken(i) {
			continue
		}
		if j, ok := al.CandResolved(i); ok {
			out[i] = Some(e.reference.Value(j, a))
		}
	}
	return out, nil
}

// AlignedStrings is AlignedID with values resolved through the string
// store.
func (e *Example) AlignedStrings(a attrs.Attr) ([]Maybe[string], error) {
	al, err := e.Alignment()
	if err != nil {
		return nil, err
	}
	out := make([]Maybe[string], e.predicted.Len())
	for i := range out {
		if e.predicted.IsSpaceToken(i) {
			continue
		}
		if j, ok := al.CandResolved(i); ok {
			out[i] = Some(e.reference.StringValue(j, a))
		}
	}
	return out, nil
}

// AlignedSpansY2X maps reference-frame token spans onto the predicted
// frame. Spans whose boundary tokens have no image are dropped.
func (e *Example) AlignedSpansY2X(spans []doc.Span) ([]doc.Span, error) {
	al, err := e.Alignment()
	if err != nil {
		return nil, err
	}
	out := make([]doc.Span, 0, len(spans))
	for _, sp := range spans {
		start, ok1 := al.GoldResolved(sp.Start)
		end, ok2 := al.GoldResolved(sp.End - 1)
		if ok1 && ok2 && start <= end {
			out = append(out, doc.Span{Start: start, End: end + 1, Label: sp.Label, KBID: sp.KBID})
		}
	}
	return out, nil
}

// AlignedSpansX2Y maps predicted-frame token spans onto the reference
// frame. Spans whose boundary tokens have no image are dropped.
func (e *Example) AlignedSpansX2Y(spans []doc.Span) ([]doc.Span, error) {
	al, err := e.Alignment()
	if err != nil {
		return nil, err
	}
	out := make([]doc.Span, 0, len(spans))
	for _, sp := range spans {
		start, ok1 := al.CandResolved(sp.Start)
		end, ok2 := al.CandResolved(sp.End - 1)
		if ok1 && ok2 && start <= end {
			out = append(out, doc.Span{Start: start, End: end + 1, Label: sp.Label, KBID: sp.KBID})
		}
	}
	return out, nil
}

// Bundle exports the reference annotations in the modern structured
// bundle shape.
func (e *Example) Bundle() *bundle.Bundle {
	return bundle.FromDoc(e.reference)
}

// ForEach runs fn over a batch of independent examples with at most limit
// goroutines. Parallelism belongs across examples, never inside one.
func ForEach(ctx context.Context, examples []*Example, limit int, fn func(context.Context, *Example) error) error {
	return batch.ForEach(ctx, examples, limit, fn)
}
