// Package odht implements the generic on-disk chained-bucket hash table
// builder shared by the file-keyed and identifier-keyed tables. The
// payload and directory layout are fixed by the PTH format; only the key
// and value encoding differ between tables, which is why the builder is
// parameterized over a small Codec rather than duplicated per table.
package odht

import (
	"fmt"

	"github.com/zcc-tools/pthc/internal/arena"
	"github.com/zcc-tools/pthc/internal/bitio"
)

const (
	initialBucketCount = 64
	growNumerator      = 4
	growDenominator    = 3
)

// Codec tells the builder how to hash, size, and serialize one (key,
// value) pair. Implementations own their own framing within the
// keyLen/valueLen budget the builder writes ahead of each entry.
type Codec[K, V any] interface {
	// Hash returns the bucket hash for key.
	Hash(key K) uint32
	// EncodedLengths returns the key and value lengths recorded in the
	// entry header for this pair.
	EncodedLengths(key K, value V) (keyLen uint16, valueLen uint8)
	// EmitKey writes the bytes for key. A codec may record a keyLen that
	// counts a terminator it does not write, so fewer than keyLen bytes
	// can follow.
	EmitKey(w *bitio.Writer, key K, keyLen uint16) error
	// EmitValue writes exactly valueLen bytes for value.
	EmitValue(w *bitio.Writer, key K, value V, valueLen uint8) error
}

type storedKey[K any] struct {
	Key  K
	Hash uint32
}

// Builder accumulates (key, value) pairs in insertion order and serializes
// them into the on-disk chained hash table format on Emit. Bucket chains
// are only materialized at Emit time: the growth rule ("double whenever
// 4*entries >= 3*buckets") depends solely on the final entry count, so
// deferring chain construction avoids an incremental-rehash pass entirely
// while still reproducing the exact bucket count a reader expects.
type Builder[K, V any] struct {
	codec       Codec[K, V]
	arena       *arena.Arena[storedKey[K], V]
	bucketCount int
}

// New creates a Builder with the given codec. initialBuckets, if positive,
// overrides the default starting bucket count (64); it must be a power of
// two.
func New[K, V any](codec Codec[K, V], initialBuckets int) *Builder[K, V] {
	n := initialBucketCount
	if initialBuckets > 0 {
		n = initialBuckets
	}

	return &Builder[K, V]{
		codec:       codec,
		arena:       arena.New[storedKey[K], V](),
		bucketCount: n,
	}
}

// Len returns the number of inserted entries.
func (b *Builder[K, V]) Len() int {
	return b.arena.Len()
}

// Insert records one (key, value) pair in insertion order.
func (b *Builder[K, V]) Insert(key K, value V) {
	h := b.codec.Hash(key)
	b.arena.Alloc(storedKey[K]{Key: key, Hash: h}, value, 0)

	for growNumerator*b.Len() >= growDenominator*b.bucketCount {
		b.bucketCount *= 2
	}
}

// Emit serializes the table into w and returns the absolute offset of the
// bucket directory.
func (b *Builder[K, V]) Emit(w *bitio.Writer) (int64, error) {
	heads := make([]uint32, b.bucketCount)
	next := make([]uint32, b.arena.Len()+1)

	// Head-insert every entry, in insertion order, into its final bucket.
	// Walking 1..Len() in increasing order and always replacing the head
	// means the chain ends up newest-first, i.e. reverse insertion order.
	for idx := uint32(1); idx <= uint32(b.arena.Len()); idx++ {
		entry := b.arena.At(idx)
		bucket := entry.Key.Hash & uint32(b.bucketCount-1)
		next[idx] = heads[bucket]
		heads[bucket] = idx
	}

	diskOffsets := make([]uint32, b.bucketCount)

	for bucketIdx, head := range heads {
		if head == 0 {
			continue
		}

		diskOffsets[bucketIdx] = uint32(w.Tell())

		count := 0
		for idx := head; idx != 0; idx = next[idx] {
			count++
		}

		if err := w.EmitU16(uint32(count)); err != nil {
			return 0, fmt.Errorf("odht: bucket %d length: %w", bucketIdx, err)
		}

		for idx := head; idx != 0; idx = next[idx] {
			entry := b.arena.At(idx)

			keyLen, valueLen := b.codec.EncodedLengths(entry.Key.Key, entry.Val)

			if err := w.EmitU16(uint32(keyLen)); err != nil {
				return 0, fmt.Errorf("odht: key length: %w", err)
			}

			w.EmitU8(valueLen)
			w.EmitU32(entry.Key.Hash)

			if err := b.codec.EmitKey(w, entry.Key.Key, keyLen); err != nil {
				return 0, fmt.Errorf("odht: emit key: %w", err)
			}

			if err := b.codec.EmitValue(w, entry.Key.Key, entry.Val, valueLen); err != nil {
				return 0, fmt.Errorf("odht: emit value: %w", err)
			}
		}
	}

	w.PadTo(4)

	directoryOffset := w.Tell()

	w.EmitU32(uint32(b.bucketCount))
	w.EmitU32(uint32(b.Len()))

	for _, off := range diskOffsets {
		w.EmitU32(off)
	}

	return directoryOffset, nil
}
