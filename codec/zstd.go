package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Zstd wraps an inner codec with zstd compression. Annotation corpora are
// highly repetitive (tags, labels, lemmas), so serialized bundles compress
// well.
type Zstd struct {
	Inner Codec
}

// Marshal encodes with the inner codec and compresses the result.
func (c Zstd) Marshal(v any) ([]byte, error) {
	inner := c.Inner
	if inner == nil {
		inner = Default
	}
	b, err := inner.Marshal(v)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(b, nil), nil
}

// Unmarshal decompresses and decodes with the inner codec.
func (c Zstd) Unmarshal(data []byte, v any) error {
	inner := c.Inner
	if inner == nil {
		inner = Default
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return fmt.Errorf("zstd: %w", err)
	}
	defer dec.Close()
	b, err := dec.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("zstd: %w", err)
	}
	return inner.Unmarshal(b, v)
}

// Name returns the compound codec name, e.g. "zstd+json".
func (c Zstd) Name() string {
	inner := c.Inner
	if inner == nil {
		inner = Default
	}
	return "zstd+" + inner.Name()
}
