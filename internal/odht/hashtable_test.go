package odht_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zcc-tools/pthc/internal/bitio"
	"github.com/zcc-tools/pthc/internal/odht"
	"github.com/zcc-tools/pthc/internal/strhash"
)

// stringCodec is a minimal Codec[string, uint32] used to exercise the
// builder independently of the PTH-specific file/identifier codecs.
type stringCodec struct{}

func (stringCodec) Hash(key string) uint32 {
	return strhash.Hash([]byte(key))
}

func (stringCodec) EncodedLengths(key string, _ uint32) (uint16, uint8) {
	return uint16(len(key) + 1), 4
}

func (stringCodec) EmitKey(w *bitio.Writer, key string, keyLen uint16) error {
	w.EmitBytes([]byte(key))
	w.EmitU8(0)

	_ = keyLen

	return nil
}

func (stringCodec) EmitValue(w *bitio.Writer, _ string, value uint32, _ uint8) error {
	w.EmitU32(value)

	return nil
}

type readEntry struct {
	key   string
	value uint32
}

func decodeTable(t *testing.T, buf []byte, dirOffset int64) ([]readEntry, uint32, uint32) {
	t.Helper()

	bucketCount := binary.LittleEndian.Uint32(buf[dirOffset:])
	entryCount := binary.LittleEndian.Uint32(buf[dirOffset+4:])

	var entries []readEntry

	for i := uint32(0); i < bucketCount; i++ {
		off := binary.LittleEndian.Uint32(buf[dirOffset+8+int64(i)*4:])
		if off == 0 {
			continue
		}

		pos := int(off)
		count := binary.LittleEndian.Uint16(buf[pos:])
		pos += 2

		for j := uint16(0); j < count; j++ {
			keyLen := binary.LittleEndian.Uint16(buf[pos:])
			pos += 2
			valueLen := buf[pos]
			pos++
			pos += 4 // hash

			key := string(buf[pos : pos+int(keyLen)-1]) // drop NUL
			pos += int(keyLen)
			value := binary.LittleEndian.Uint32(buf[pos:])
			pos += int(valueLen)

			entries = append(entries, readEntry{key: key, value: value})
		}
	}

	return entries, bucketCount, entryCount
}

func TestBuilderRoundTrip(t *testing.T) {
	t.Parallel()

	b := odht.New[string, uint32](stringCodec{}, 0)
	want := map[string]uint32{"foo": 1, "bar": 2, "baz": 3, "quux": 4}

	for k, v := range want {
		b.Insert(k, v)
	}

	w := bitio.New()
	// Offset 0 is the empty-bucket sentinel, so start the table past it.
	w.EmitU8(0)
	dirOffset, err := b.Emit(w)
	require.NoError(t, err)

	entries, bucketCount, entryCount := decodeTable(t, w.Bytes(), dirOffset)
	require.Equal(t, uint32(len(want)), entryCount)
	require.GreaterOrEqual(t, bucketCount, uint32(64))

	got := map[string]uint32{}
	for _, e := range entries {
		got[e.key] = e.value
	}

	require.Equal(t, want, got)
}

func TestBuilderReverseInsertionOrderWithinBucket(t *testing.T) {
	t.Parallel()

	// Start from one bucket; two inserts grow it to 4. "a" hashes to 100 and
	// "e" to 104, so both land in bucket 0.
	b := odht.New[string, uint32](stringCodec{}, 1)
	b.Insert("a", 1)
	b.Insert("e", 2)

	w := bitio.New()
	// Offset 0 is the empty-bucket sentinel, so start the table past it.
	w.EmitU8(0)
	dirOffset, err := b.Emit(w)
	require.NoError(t, err)

	entries, bucketCount, _ := decodeTable(t, w.Bytes(), dirOffset)
	require.Equal(t, uint32(4), bucketCount)
	require.Len(t, entries, 2)
	require.Equal(t, "e", entries[0].key)
	require.Equal(t, "a", entries[1].key)
}

func TestBuilderGrowsBucketCount(t *testing.T) {
	t.Parallel()

	b := odht.New[string, uint32](stringCodec{}, 4)
	for i := 0; i < 100; i++ {
		b.Insert(string(rune('a'+i%26))+string(rune('0'+i/26)), uint32(i))
	}

	w := bitio.New()
	dirOffset, err := b.Emit(w)
	require.NoError(t, err)

	_, bucketCount, entryCount := decodeTable(t, w.Bytes(), dirOffset)
	require.Equal(t, uint32(100), entryCount)
	require.Greater(t, bucketCount, uint32(4))
}
