// Package goldalign reconciles two tokenizations of the same text and
// projects gold-standard annotations across them.
//
// An Example pairs a predicted document (tokenized by the system under
// training) with a reference document (carrying gold annotations, usually
// realized from an annotation bundle). The two tokenizations routinely
// disagree, so every query runs through a token-index alignment that is
// computed once per Example and cached.
//
// # Quick start
//
// Build an example from a predicted document and a raw bundle:
//
//	store := intern.NewStore()
//	pred, _ := doc.New(store, []string{"Utah", "is", "a", "state"}, nil)
//	eg, err := goldalign.FromBundle(pred, map[string]any{
//	    "words":    []string{"Utah", "is", "a", "state"},
//	    "tags":     []string{"NNP", "VBZ", "DT", "NN"},
//	    "entities": []any{[]any{0, 4, "GPE"}},
//	})
//	if err != nil {
//	    panic(err)
//	}
//
// Project annotations onto the predicted frame:
//
//	tags, _ := eg.AlignedStrings(attrs.Tag)
//	heads, labels, _ := eg.AlignedParse()
//	ner, _ := eg.AlignedNER()
//
// Split into per-sentence sub-examples:
//
//	sents, _ := eg.SplitSentences()
//
// # Projection semantics
//
// Aligned queries return Maybe values: a predicted token that is
// whitespace-only or has no alignment yields no value. When several
// predicted tokens fall inside one larger reference token, each copies
// that reference token's value. When one predicted token subsumes several
// reference tokens, the value of the group's mapped reference index is
// used without aggregation; this is a documented precision limitation.
//
// NER projection keeps a three-way distinction per token: an entity tag, an
// explicit "O" (confirmed non-entity), or "-" (no gold label available).
// Consumers must not collapse "-" into "O".
//
// # Concurrency
//
// Examples are pure, synchronous value transformers. The alignment cache
// makes first access non-reentrant: do not share one Example across
// goroutines without synchronization. Batches of Examples are independent;
// parallelize across them with ForEach.
package goldalign
