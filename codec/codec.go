// Package codec centralizes annotation payload encoding.
//
// Codec selection is a compatibility boundary: bundles serialized with one
// codec may no longer decode if the codec changes, so corpus containers
// should store the codec name alongside payloads and reselect it ByName.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
//
// Compressed variants are named "<compression>+<inner>", e.g. "zstd+json".
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	case "zstd+json":
		return Zstd{Inner: JSON{}}, true
	case "zstd+go-json":
		return Zstd{Inner: GoJSON{}}, true
	case "lz4+json":
		return LZ4{Inner: JSON{}}, true
	case "lz4+go-json":
		return LZ4{Inner: GoJSON{}}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for internal tests/benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
