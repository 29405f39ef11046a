package codec

import (
	"testing"
)

// benchBundle mirrors the shape of a serialized annotation bundle: long,
// repetitive string columns plus small document-level maps.
type benchBundle struct {
	Words      []string           `json:"ORTH"`
	Spaces     []bool             `json:"SPACY"`
	Tags       []string           `json:"TAG"`
	Heads      []int              `json:"HEAD"`
	Deps       []string           `json:"DEP"`
	SentStarts []int              `json:"SENT_START"`
	Entities   []string           `json:"entities"`
	Cats       map[string]float64 `json:"cats"`
}

func benchPayload() benchBundle {
	n := 64
	b := benchBundle{
		Cats: map[string]float64{"news": 0.9, "sport": 0.05, "tech": 0.05},
	}
	words := []string{"The", "quick", "brown", "fox", "jumps", "over", "the", "lazy", "dog", "."}
	tags := []string{"DT", "JJ", "JJ", "NN", "VBZ", "IN", "DT", "JJ", "NN", "."}
	for i := 0; i < n; i++ {
		b.Words = append(b.Words, words[i%len(words)])
		b.Spaces = append(b.Spaces, i%10 != 9)
		b.Tags = append(b.Tags, tags[i%len(tags)])
		b.Heads = append(b.Heads, (i/10)*10+3)
		b.Deps = append(b.Deps, "dep")
		start := 0
		if i%10 == 0 {
			start = 1
		}
		b.SentStarts = append(b.SentStarts, start)
		b.Entities = append(b.Entities, "O")
	}
	return b
}

func benchmarkCodecMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()

	warm, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(warm)))

	var sink []byte
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func benchmarkCodecUnmarshal[T any](b *testing.B, c Codec, data []byte, dst *T) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	var v T
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
	if dst != nil {
		*dst = v
	}
}

func BenchmarkCodec_Marshal_Bundle(b *testing.B) {
	payload := benchPayload()

	b.Run("stdlib", func(b *testing.B) { benchmarkCodecMarshal(b, JSON{}, payload) })
	b.Run("go-json", func(b *testing.B) { benchmarkCodecMarshal(b, GoJSON{}, payload) })
	b.Run("zstd+go-json", func(b *testing.B) { benchmarkCodecMarshal(b, Zstd{Inner: GoJSON{}}, payload) })
	b.Run("lz4+go-json", func(b *testing.B) { benchmarkCodecMarshal(b, LZ4{Inner: GoJSON{}}, payload) })
}

func BenchmarkCodec_Unmarshal_Bundle(b *testing.B) {
	payload := benchPayload()
	jsonData := MustMarshal(JSON{}, payload)
	zstdData := MustMarshal(Zstd{Inner: JSON{}}, payload)

	b.Run("stdlib", func(b *testing.B) {
		var sink benchBundle
		benchmarkCodecUnmarshal(b, JSON{}, jsonData, &sink)
		_ = sink
	})
	b.Run("go-json", func(b *testing.B) {
		var sink benchBundle
		benchmarkCodecUnmarshal(b, GoJSON{}, jsonData, &sink)
		_ = sink
	})
	b.Run("zstd+json", func(b *testing.B) {
		var sink benchBundle
		benchmarkCodecUnmarshal(b, Zstd{Inner: JSON{}}, zstdData, &sink)
		_ = sink
	})
}
