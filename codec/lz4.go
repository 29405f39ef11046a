package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4 wraps an inner codec with lz4 frame compression. Faster than zstd
// at a lower ratio; useful when decode throughput dominates.
type LZ4 struct {
	Inner Codec
}

// Marshal encodes with the inner codec and compresses the result.
func (c LZ4) Marshal(v any) ([]byte, error) {
	inner := c.Inner
	if inner == nil {
		inner = Default
	}
	b, err := inner.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(b); err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decompresses and decodes with the inner codec.
func (c LZ4) Unmarshal(data []byte, v any) error {
	inner := c.Inner
	if inner == nil {
		inner = Default
	}
	r := lz4.NewReader(bytes.NewReader(data))
	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("lz4: %w", err)
	}
	return inner.Unmarshal(b, v)
}

// Name returns the compound codec name, e.g. "lz4+json".
func (c LZ4) Name() string {
	inner := c.Inner
	if inner == nil {
		inner = Default
	}
	return "lz4+" + inner.Name()
}
