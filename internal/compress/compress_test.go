package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockRoundTrip(t *testing.T) {
	compressible := bytes.Repeat([]byte("cluster-table-"), 512)
	random := make([]byte, 257)
	for i := range random {
		random[i] = byte(i*131 + 7)
	}

	for _, typ := range []Type{None, LZ4, ZSTD} {
		t.Run(typ.String(), func(t *testing.T) {
			for _, data := range [][]byte{compressible, random, {}} {
				block, err := Block(typ, data)
				require.NoError(t, err)

				got, err := Unblock(typ, block)
				require.NoError(t, err)
				assert.Equal(t, len(data), len(got))
				assert.True(t, bytes.Equal(data, got))
			}
		})
	}

	t.Run("Shrinks", func(t *testing.T) {
		block, err := Block(ZSTD, compressible)
		require.NoError(t, err)
		assert.Less(t, len(block), len(compressible))
	})
}

func TestUnblockCorrupt(t *testing.T) {
	_, err := Unblock(LZ4, []byte{1, 2})
	assert.ErrorIs(t, err, ErrCorrupt)

	block, err := Block(ZSTD, bytes.Repeat([]byte("a"), 4096))
	require.NoError(t, err)
	_, err = Unblock(ZSTD, block[:len(block)-3])
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = Block(Type(9), []byte("x"))
	assert.Error(t, err)
}

func TestParseType(t *testing.T) {
	for _, name := range []string{"none", "lz4", "zstd"} {
		typ, err := ParseType(name)
		require.NoError(t, err)
		assert.Equal(t, name, typ.String())
	}
	typ, err := ParseType("")
	require.NoError(t, err)
	assert.Equal(t, None, typ)

	_, err = ParseType("brotli")
	assert.Error(t, err)

	var tt Type
	require.NoError(t, tt.UnmarshalText([]byte("ZSTD")))
	assert.Equal(t, ZSTD, tt)
}
