package fl

import (
	"fmt"
	"strings"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// Codec is the compression applied to a chunk's stored bytes.
type Codec uint8

const (
	CodecNone   Codec = 0
	CodecSnappy Codec = 1
	CodecZstd   Codec = 2
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecSnappy:
		return "snappy"
	case CodecZstd:
		return "zstd"
	}
	return fmt.Sprintf("Codec(%d)", uint8(c))
}

// ParseCodec converts a codec name ("none", "snappy", "zstd") to a Codec.
// The empty string selects CodecNone.
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return CodecNone, nil
	case "snappy":
		return CodecSnappy, nil
	case "zstd":
		return CodecZstd, nil
	}
	return CodecNone, fmt.Errorf("unknown codec %q; valid: none, snappy, zstd", name)
}

var (
	zstdEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	zstdDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil)
	})
)

// compress encodes src with algo. When the encoded form is not smaller than src the
// chunk is stored uncompressed and CodecNone is returned.
func compress(algo Codec, src []byte) (Codec, []byte, error) {
	var out []byte
	switch algo {
	case CodecNone:
		return CodecNone, src, nil
	case CodecSnappy:
		out = snappy.Encode(nil, src)
	case CodecZstd:
		enc, err := zstdEncoder()
		if err != nil {
			return CodecNone, nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		out = enc.EncodeAll(src, make([]byte, 0, len(src)))
	default:
		return CodecNone, nil, fmt.Errorf("%w: unknown codec %d", ErrInvalidChunk, algo)
	}
	if len(out) >= len(src) {
		return CodecNone, src, nil
	}
	return algo, out, nil
}

// decompress reverses compress. size is the expected decoded length.
func decompress(algo Codec, src []byte, size int) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch algo {
	case CodecNone:
		out = src
	case CodecSnappy:
		out, err = snappy.Decode(nil, src)
	case CodecZstd:
		dec, derr := zstdDecoder()
		if derr != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", derr)
		}
		out, err = dec.DecodeAll(src, make([]byte, 0, size))
	default:
		return nil, fmt.Errorf("%w: unknown codec %d", ErrCorruptFile, algo)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s payload: %w", ErrCorruptFile, algo, err)
	}
	if len(out) != size {
		return nil, fmt.Errorf("%w: decoded %d bytes, expected %d", ErrCorruptFile, len(out), size)
	}
	return out, nil
}
