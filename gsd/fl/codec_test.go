package fl

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCodec(t *testing.T) {
	for name, want := range map[string]Codec{"": CodecNone, "none": CodecNone, "Snappy": CodecSnappy, " zstd ": CodecZstd} {
		got, err := ParseCodec(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseCodec("lz4")
	assert.Error(t, err)
}

func TestCompress_IncompressibleInput_FallsBackToNone(t *testing.T) {
	src := []byte{1, 2, 3}
	for _, algo := range []Codec{CodecSnappy, CodecZstd} {
		got, out, err := compress(algo, src)
		require.NoError(t, err)
		assert.Equal(t, CodecNone, got, algo.String())
		assert.Equal(t, src, out)
	}
}

func TestCodecs_RoundTripThroughFile(t *testing.T) {
	// 4096 zero-ish float32 rows compress well under both codecs
	data := bytes.Repeat([]byte{0, 0, 0x80, 0x3f}, 4096)

	for _, algo := range []Codec{CodecNone, CodecSnappy, CodecZstd} {
		t.Run(algo.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "codec.gsd")

			// GIVEN a file written with algo
			w, err := Create(path, WithCodec(algo))
			require.NoError(t, err)
			require.NoError(t, w.WriteChunk("particles/mass", Float32, 4096, 1, data))
			require.NoError(t, w.EndFrame())
			require.NoError(t, w.Close())

			// WHEN the chunk is read back
			r, err := Open(path, ReadOnly)
			require.NoError(t, err)
			defer r.Close()
			e, ok := r.FindChunk(0, "particles/mass")
			require.True(t, ok)
			got, err := r.ReadChunk(e)
			require.NoError(t, err)

			// THEN the bytes are identical and the codec is recorded per entry
			assert.Equal(t, data, got)
			assert.Equal(t, algo, e.Codec)
			if algo != CodecNone {
				assert.Less(t, int(e.StoredSize), len(data))
			}

			// AND a second read served from the cache is an independent copy
			got[0] = 0xff
			again, err := r.ReadChunk(e)
			require.NoError(t, err)
			assert.Equal(t, data, again)
		})
	}
}

func TestDecompress_WrongLength_IsCorrupt(t *testing.T) {
	_, out, err := compress(CodecSnappy, bytes.Repeat([]byte{7}, 256))
	require.NoError(t, err)
	_, err = decompress(CodecSnappy, out, 128)
	assert.ErrorIs(t, err, ErrCorruptFile)
	_, err = decompress(Codec(9), out, 256)
	assert.ErrorIs(t, err, ErrCorruptFile)
}

func TestElementType_Size(t *testing.T) {
	assert.Equal(t, 1, Uint8.Size())
	assert.Equal(t, 2, Int16.Size())
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 8, Float64.Size())
	assert.False(t, ElementType(0).Valid())
	assert.Equal(t, "uint32", Uint32.String())
}
