package bitio_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcc-tools/pthc/internal/bitio"
)

func TestEmitLittleEndian(t *testing.T) {
	t.Parallel()

	w := bitio.New()
	w.EmitU8(0xAB)
	require.NoError(t, w.EmitU16(0xBEEF))
	require.NoError(t, w.EmitU24(0x010203))
	w.EmitU32(0xDEADBEEF)
	w.EmitU64(0x0102030405060708)

	var buf bytes.Buffer
	require.NoError(t, w.Flush(&buf))

	expected := []byte{
		0xAB,
		0xEF, 0xBE,
		0x03, 0x02, 0x01,
		0xEF, 0xBE, 0xAD, 0xDE,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
	}
	assert.Equal(t, expected, buf.Bytes())
}

func TestEmitU16Overflow(t *testing.T) {
	t.Parallel()

	w := bitio.New()
	err := w.EmitU16(0x10000)
	require.ErrorIs(t, err, bitio.ErrIntegerRangeViolation)
}

func TestEmitU24Overflow(t *testing.T) {
	t.Parallel()

	w := bitio.New()
	err := w.EmitU24(0x1000000)
	require.ErrorIs(t, err, bitio.ErrIntegerRangeViolation)
}

func TestPadTo(t *testing.T) {
	t.Parallel()

	w := bitio.New()
	w.EmitU8(1)
	w.PadTo(4)
	assert.Equal(t, int64(4), w.Tell())

	w.EmitU8(2)
	w.PadTo(4)
	assert.Equal(t, int64(8), w.Tell())

	// Already aligned: no-op.
	w.PadTo(4)
	assert.Equal(t, int64(8), w.Tell())
}

func TestSeekToAndOverwrite(t *testing.T) {
	t.Parallel()

	w := bitio.New()
	w.EmitU32(0)
	w.EmitU32(0)
	tail := w.Tell()

	w.EmitU8(0x42)

	require.NoError(t, w.SeekTo(0))
	w.EmitU32(0x11111111)
	w.EmitU32(0x22222222)

	require.NoError(t, w.SeekTo(tail))
	w.EmitU8(0x43)

	var buf bytes.Buffer
	require.NoError(t, w.Flush(&buf))

	got := buf.Bytes()
	assert.Equal(t, byte(0x43), got[8])
	assert.Len(t, got, 9)
}

func TestSeekToOutOfRange(t *testing.T) {
	t.Parallel()

	w := bitio.New()
	w.EmitU8(1)

	err := w.SeekTo(5)
	require.Error(t, err)
}
