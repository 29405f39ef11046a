package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goldalign/goldalign/attrs"
	"github.com/goldalign/goldalign/biluo"
	"github.com/goldalign/goldalign/codec"
	"github.com/goldalign/goldalign/doc"
	"github.com/goldalign/goldalign/intern"
)

func TestNormalizeLegacyRemap(t *testing.T) {
	b, err := Normalize(map[string]any{
		"words":  []any{"Utah", "is"},
		"tags":   []any{"NNP", "VBZ"},
		"pos":    []any{"PROPN", "VERB"},
		"lemmas": []any{"Utah", "be"},
		"deps":   []any{"nsubj", "ROOT"},
		"heads":  []any{1, 1},
		"morphs": []any{"", "VerbForm=Fin"},
		"spaces": []any{true, false},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Utah", "is"}, b.Token.Words)
	assert.Equal(t, []string{"NNP", "VBZ"}, b.Token.Tags)
	assert.Equal(t, []string{"PROPN", "VERB"}, b.Token.POS)
	assert.Equal(t, []string{"Utah", "be"}, b.Token.Lemmas)
	assert.Equal(t, []string{"nsubj", "ROOT"}, b.Token.Deps)
	assert.Equal(t, []int{1, 1}, b.Token.Heads)
	assert.Equal(t, []string{"", "VerbForm=Fin"}, b.Token.Morphs)
	assert.Equal(t, []bool{true, false}, b.Token.Spaces)
}

func TestNormalizeUnknownKey(t *testing.T) {
	_, err := Normalize(map[string]any{
		"words": []any{"a"},
		"foo":   []any{"x"},
	})
	var ufe *UnknownFieldError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, "foo", ufe.Field)
}

func TestNormalizeUnknownTokenFieldStructured(t *testing.T) {
	_, err := Normalize(map[string]any{
		"token_annotation": map[string]any{
			"ORTH": []any{"a"},
			"foo":  []any{"x"},
		},
	})
	var ufe *UnknownFieldError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, "foo", ufe.Field)
}

func TestNormalizeStructured(t *testing.T) {
	b, err := Normalize(map[string]any{
		"token_annotation": map[string]any{
			"ORTH":       []any{"Utah", "is"},
			"TAG":        []any{"NNP", "VBZ"},
			"SENT_START": []any{1, 0},
		},
		"doc_annotation": map[string]any{
			"cats": map[string]any{"geo": 1.0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Utah", "is"}, b.Token.Words)
	assert.Equal(t, []int{1, 0}, b.Token.SentStarts)
	assert.Equal(t, map[string]float64{"geo": 1.0}, b.Doc.Cats)
}

func TestNormalizeDropsSentStartsWhenHeadsPresent(t *testing.T) {
	b, err := Normalize(map[string]any{
		"words":       []any{"a", "b"},
		"heads":       []any{1, 1},
		"sent_starts": []any{1, 0},
	})
	require.NoError(t, err)
	assert.Nil(t, b.Token.SentStarts, "head-derived boundaries take precedence")
	assert.Equal(t, []int{1, 1}, b.Token.Heads)
}

func TestNormalizeGuessesSpacesFromText(t *testing.T) {
	b, err := Normalize(map[string]any{
		"text":  "Utah is a state",
		"words": []any{"Utah", "is", "a", "state"},
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true, false}, b.Token.Spaces)
}

func TestNormalizeWordlessBundle(t *testing.T) {
	// Annotation-only bundles are valid; the tokenization is borrowed from
	// the predicted document later.
	b, err := Normalize(map[string]any{
		"tags": []any{"PRP", "VBP", "NN"},
		"pos":  []any{"PRON", "VERB", "NOUN"},
	})
	require.NoError(t, err)
	assert.Nil(t, b.Token.Words)
	assert.Equal(t, []string{"PRP", "VBP", "NN"}, b.Token.Tags)
	assert.Equal(t, []string{"PRON", "VERB", "NOUN"}, b.Token.POS)
}

func TestNormalizeWordlessLengthMismatch(t *testing.T) {
	_, err := Normalize(map[string]any{
		"tags": []any{"PRP", "VBP", "NN"},
		"pos":  []any{"PRON", "VERB"},
	})
	assert.Error(t, err)
}

func TestEncodeRejectsBorrowedLengthMismatch(t *testing.T) {
	// A wordless bundle whose fields disagree with the borrowed
	// tokenization fails at encode time, not with an index panic.
	store := intern.NewStore()
	_, _, err := Encode(store, intern.NewMorphStore(store), &TokenAnnotation{
		Words: []string{"a", "b"},
		Tags:  []string{"X", "Y", "Z"},
	})
	assert.Error(t, err)
}

func TestNormalizeLengthMismatch(t *testing.T) {
	_, err := Normalize(map[string]any{
		"words": []any{"a", "b"},
		"tags":  []any{"X"},
	})
	assert.Error(t, err)
}

func TestGuessSpaces(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		words    []string
		expected []bool
	}{
		{"Simple", "a b", []string{"a", "b"}, []bool{true, false}},
		{"NoSpace", "don't", []string{"do", "n't"}, []bool{false, false}},
		{"TrailingSpace", "hi there ", []string{"hi", "there"}, []bool{true, true}},
		{"NotFoundAssumesSpace", "abc", []string{"zzz", "abc"}, []bool{true, false}},
		{"Newline", "a\nb", []string{"a", "b"}, []bool{false, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GuessSpaces(tt.text, tt.words))
		})
	}
}

func TestEncodeRelativeHeads(t *testing.T) {
	store := intern.NewStore()
	morphs := intern.NewMorphStore(store)
	cols, rows, err := Encode(store, morphs, &TokenAnnotation{
		Words: []string{"I", "like", "pizza"},
		Heads: []int{1, 1, 1},
	})
	require.NoError(t, err)
	require.Equal(t, []attrs.Attr{attrs.Head}, cols)
	assert.Equal(t, [][]int64{{1}, {0}, {-1}}, rows)
}

func TestEncodeUnknownIOBTag(t *testing.T) {
	store := intern.NewStore()
	_, _, err := Encode(store, intern.NewMorphStore(store), &TokenAnnotation{
		Words:   []string{"a"},
		EntIOBs: []string{"Q"},
	})
	var ute *UnknownTagError
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, "Q", ute.Tag)
}

func TestEncodeInternsFields(t *testing.T) {
	store := intern.NewStore()
	cols, rows, err := Encode(store, intern.NewMorphStore(store), &TokenAnnotation{
		Words:  []string{"Utah", "Utah"},
		Tags:   []string{"NNP", "NNP"},
		Morphs: []string{"Number=Sing|Case=Nom", "Case=Nom|Number=Sing"},
	})
	require.NoError(t, err)
	require.Equal(t, []attrs.Attr{attrs.Tag, attrs.Morph}, cols)
	assert.Equal(t, rows[0], rows[1], "identical values share ids")
	assert.NotZero(t, rows[0][0])
}

func TestRealizeEntityOffsets(t *testing.T) {
	b, err := Normalize(map[string]any{
		"words":    []any{"Utah", "is", "a", "state"},
		"spaces":   []any{true, true, true, false},
		"entities": []any{[]any{0, 4, "GPE"}},
	})
	require.NoError(t, err)

	d, err := Realize(intern.NewStore(), b)
	require.NoError(t, err)

	iobs := make([]doc.IOB, d.Len())
	types := make([]string, d.Len())
	for i := 0; i < d.Len(); i++ {
		iobs[i] = d.Token(i).EntIOB
		types[i] = d.StringValue(i, attrs.EntType)
	}
	assert.Equal(t, []doc.IOB{doc.IOBBegin, doc.IOBOutside, doc.IOBOutside, doc.IOBOutside}, iobs)
	assert.Equal(t, []string{"GPE", "", "", ""}, types)
}

func TestRealizeEntityTags(t *testing.T) {
	b, err := Normalize(map[string]any{
		"words": []any{"New", "York", "rocks"},
		"ner":   []any{"B-GPE", "I-GPE", "O"},
	})
	require.NoError(t, err)

	d, err := Realize(intern.NewStore(), b)
	require.NoError(t, err)

	assert.Equal(t, doc.IOBBegin, d.Token(0).EntIOB)
	assert.Equal(t, doc.IOBInside, d.Token(1).EntIOB)
	assert.Equal(t, doc.IOBOutside, d.Token(2).EntIOB)
}

func TestRealizeEntityTagsMissingDistinctFromOutside(t *testing.T) {
	b, err := Normalize(map[string]any{
		"words": []any{"a", "b", "c"},
		"ner":   []any{"-", "O", "U-PER"},
	})
	require.NoError(t, err)

	d, err := Realize(intern.NewStore(), b)
	require.NoError(t, err)

	assert.Equal(t, doc.IOBMissing, d.Token(0).EntIOB)
	assert.Equal(t, doc.IOBOutside, d.Token(1).EntIOB)
	assert.Equal(t, doc.IOBBegin, d.Token(2).EntIOB)
}

func TestRealizeEntitySpansEmptyLabelNegative(t *testing.T) {
	b := &Bundle{
		Token: TokenAnnotation{Words: []string{"a", "b"}},
		Doc: DocAnnotation{
			Entities: EntitySpans{
				{Start: 0, End: 1, Label: "PER"},
				{Start: 1, End: 2, Label: ""},
			},
		},
	}
	d, err := Realize(intern.NewStore(), b)
	require.NoError(t, err)

	spans := d.EntitySpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "PER", spans[0].Label)
	assert.Equal(t, doc.IOBOutside, d.Token(1).EntIOB, "explicit negative clears to outside")
}

func TestRealizeLinks(t *testing.T) {
	b, err := Normalize(map[string]any{
		"words":    []any{"Utah", "is", "a", "state"},
		"spaces":   []any{true, true, true, false},
		"entities": []any{[]any{0, 4, "GPE"}},
		"links": map[string]any{
			"0,4": map[string]any{"Q829": 1.0, "Q828": 0.0},
		},
	})
	require.NoError(t, err)

	d, err := Realize(intern.NewStore(), b)
	require.NoError(t, err)
	assert.Equal(t, "Q829", d.StringValue(0, attrs.EntKBID))
	assert.Equal(t, "", d.StringValue(1, attrs.EntKBID))
}

func TestRealizeLinksWithBILUOTagEntities(t *testing.T) {
	// Entities declared as an already-BILUO tag sequence survive the
	// conversion untouched, so their spans stay valid for link matching.
	b, err := Normalize(map[string]any{
		"words":  []any{"New", "York", "rocks"},
		"spaces": []any{true, true, false},
		"ner":    []any{"B-GPE", "L-GPE", "O"},
		"links": map[string]any{
			"0,8": map[string]any{"Q60": 1.0},
		},
	})
	require.NoError(t, err)

	d, err := Realize(intern.NewStore(), b)
	require.NoError(t, err)
	assert.Equal(t, "Q60", d.StringValue(0, attrs.EntKBID))
	assert.Equal(t, "Q60", d.StringValue(1, attrs.EntKBID))
	assert.Equal(t, "", d.StringValue(2, attrs.EntKBID))
}

func TestRealizeLinkMismatch(t *testing.T) {
	b, err := Normalize(map[string]any{
		"words":    []any{"Utah", "is", "a", "state"},
		"spaces":   []any{true, true, true, false},
		"entities": []any{[]any{0, 4, "GPE"}},
		"links": map[string]any{
			"5,7": map[string]any{"Q123": 1.0},
		},
	})
	require.NoError(t, err)

	_, err = Realize(intern.NewStore(), b)
	var lme *LinkMismatchError
	require.ErrorAs(t, err, &lme)
	assert.Equal(t, 5, lme.Start)
	assert.Equal(t, 7, lme.End)
}

func TestRealizeLinksWithoutEntities(t *testing.T) {
	b := &Bundle{
		Token: TokenAnnotation{Words: []string{"Utah"}},
		Doc: DocAnnotation{
			Links: map[CharSpan]map[string]float64{
				{Start: 0, End: 4}: {"Q829": 1.0},
			},
		},
	}
	_, err := Realize(intern.NewStore(), b)
	var lme *LinkMismatchError
	assert.ErrorAs(t, err, &lme)
}

func TestRealizeAmbiguousLink(t *testing.T) {
	b, err := Normalize(map[string]any{
		"words":    []any{"Utah"},
		"spaces":   []any{false},
		"entities": []any{[]any{0, 4, "GPE"}},
		"links": map[string]any{
			"0,4": map[string]any{"Q829": 1.0, "Q1": 1.0},
		},
	})
	require.NoError(t, err)

	_, err = Realize(intern.NewStore(), b)
	var ale *AmbiguousLinkError
	require.ErrorAs(t, err, &ale)
	assert.Equal(t, []string{"Q1", "Q829"}, ale.KBIDs)
}

func TestRealizeZeroWeightLinkLeavesKBIDEmpty(t *testing.T) {
	b, err := Normalize(map[string]any{
		"words":    []any{"Utah"},
		"spaces":   []any{false},
		"entities": []any{[]any{0, 4, "GPE"}},
		"links": map[string]any{
			"0,4": map[string]any{"Q829": 0.5, "Q1": 0.5},
		},
	})
	require.NoError(t, err)

	d, err := Realize(intern.NewStore(), b)
	require.NoError(t, err)
	assert.Equal(t, "", d.StringValue(0, attrs.EntKBID))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		expected Entities
	}{
		{"Nil", nil, nil},
		{"Offsets", []any{[]any{0, 4, "GPE"}}, EntityOffsets{{Start: 0, End: 4, Label: "GPE"}}},
		{"Tags", []any{"O", "U-GPE"}, EntityTags{"O", "U-GPE"}},
		{
			"Spans",
			[]any{map[string]any{"start": 0, "end": 1, "label": "PER"}},
			EntitySpans{{Start: 0, End: 1, Label: "PER"}},
		},
		{"TypedOffsets", []biluo.Offset{{Start: 0, End: 4, Label: "GPE"}}, EntityOffsets{{Start: 0, End: 4, Label: "GPE"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDetectRejectsMixedShapes(t *testing.T) {
	_, err := Detect([]any{42})
	assert.Error(t, err)
}

func TestRoundTripStructured(t *testing.T) {
	raw := map[string]any{
		"token_annotation": map[string]any{
			"ORTH":  []any{"Utah", "is", "a", "state"},
			"SPACY": []any{true, true, true, false},
			"TAG":   []any{"NNP", "VBZ", "DT", "NN"},
			"POS":   []any{"PROPN", "VERB", "DET", "NOUN"},
			"LEMMA": []any{"Utah", "be", "a", "state"},
			"DEP":   []any{"nsubj", "ROOT", "det", "attr"},
			"HEAD":  []any{1, 1, 3, 1},
			"MORPH": []any{"", "VerbForm=Fin", "", "Number=Sing"},
		},
		"doc_annotation": map[string]any{
			"cats":     map[string]any{"geo": 1.0},
			"entities": []any{[]any{0, 4, "GPE"}},
		},
	}
	b, err := Normalize(raw)
	require.NoError(t, err)

	d, err := Realize(intern.NewStore(), b)
	require.NoError(t, err)

	out := FromDoc(d)
	assert.Equal(t, "Utah is a state", out.Text)
	assert.Equal(t, b.Token.Words, out.Token.Words)
	assert.Equal(t, b.Token.Spaces, out.Token.Spaces)
	assert.Equal(t, b.Token.Tags, out.Token.Tags)
	assert.Equal(t, b.Token.POS, out.Token.POS)
	assert.Equal(t, b.Token.Lemmas, out.Token.Lemmas)
	assert.Equal(t, b.Token.Deps, out.Token.Deps)
	assert.Equal(t, b.Token.Heads, out.Token.Heads)
	assert.Equal(t, b.Token.Morphs, out.Token.Morphs)
	assert.Equal(t, map[string]float64{"geo": 1.0}, out.Doc.Cats)
	assert.Equal(t, EntityTags{"U-GPE", "O", "O", "O"}, out.Doc.Entities)

	// the exported shape is the structured one
	m := out.AsMap()
	assert.Contains(t, m, "token_annotation")
	assert.Contains(t, m, "doc_annotation")
	assert.NotContains(t, m, "words")
}

func TestMarshalDecodeRaw(t *testing.T) {
	b, err := Normalize(map[string]any{
		"words": []any{"hello", "world"},
		"tags":  []any{"UH", "NN"},
	})
	require.NoError(t, err)

	data, err := b.Marshal(codec.JSON{})
	require.NoError(t, err)

	raw, err := DecodeRaw(codec.JSON{}, data)
	require.NoError(t, err)

	b2, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, b.Token.Words, b2.Token.Words)
	assert.Equal(t, b.Token.Tags, b2.Token.Tags)
}
