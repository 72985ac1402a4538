// Package identreg assigns dense 1-based persistent IDs to identifiers
// seen while lexing and emits the two tables a PTH reader needs to go
// either direction: ID to name (a flat array) and name to ID (an on-disk
// hash table). Populating both from one traversal is the point of the
// side-effectful key emission below.
package identreg

import (
	"fmt"

	"github.com/zcc-tools/pthc/internal/bitio"
	"github.com/zcc-tools/pthc/internal/odht"
	"github.com/zcc-tools/pthc/internal/strhash"
)

// Handle is the minimal identifier-handle surface this package needs.
// pth.IdentifierHandle satisfies it structurally; identreg does not
// import pth so the dependency only runs one way.
type Handle interface {
	Name() []byte
}

// Registry assigns and tracks persistent identifier IDs.
type Registry struct {
	ids    map[Handle]uint32
	order  []Handle
	nextID uint32
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{ids: map[Handle]uint32{}}
}

// Resolve returns h's persistent ID, assigning a fresh one (pre-increment,
// so the first ID handed out is 1) on first sight. A nil handle always
// resolves to 0, the "no identifier" sentinel.
func (r *Registry) Resolve(h Handle) uint32 {
	if h == nil {
		return 0
	}

	if id, ok := r.ids[h]; ok {
		return id
	}

	r.nextID++
	r.ids[h] = r.nextID
	r.order = append(r.order, h)

	return r.nextID
}

// Count returns idcount, the number of distinct identifiers resolved so
// far.
func (r *Registry) Count() uint32 {
	return r.nextID
}

type identifierCodec struct {
	ids         map[Handle]uint32
	nameOffsets []uint32
}

func (c *identifierCodec) Hash(key Handle) uint32 {
	return strhash.Hash(key.Name())
}

func (c *identifierCodec) EncodedLengths(key Handle, _ uint32) (uint16, uint8) {
	return uint16(len(key.Name()) + 1), 4
}

func (c *identifierCodec) EmitKey(w *bitio.Writer, key Handle, _ uint16) error {
	id := c.ids[key]
	// The side effect: recording where this name landed lets the ID→name
	// table point at it without a second pass over the identifiers.
	c.nameOffsets[id] = uint32(w.Tell())

	w.EmitBytes(key.Name())
	w.EmitU8(0)

	return nil
}

func (c *identifierCodec) EmitValue(w *bitio.Writer, _ Handle, value uint32, _ uint8) error {
	w.EmitU32(value)

	return nil
}

// EmitIdentifierTables writes the name→ID hash table followed by the
// ID→name-offset table and returns (idTableOffset, nameHashDirOffset).
func (r *Registry) EmitIdentifierTables(w *bitio.Writer, initialBuckets int) (int64, int64, error) {
	nameOffsets := make([]uint32, r.Count()+1)

	codec := &identifierCodec{ids: r.ids, nameOffsets: nameOffsets}
	builder := odht.New[Handle, uint32](codec, initialBuckets)

	for _, h := range r.order {
		builder.Insert(h, r.ids[h])
	}

	nameHashDirOffset, err := builder.Emit(w)
	if err != nil {
		return 0, 0, fmt.Errorf("identreg: emit name hash table: %w", err)
	}

	idTableOffset := w.Tell()

	w.EmitU32(r.Count())

	for id := uint32(1); id <= r.Count(); id++ {
		w.EmitU32(nameOffsets[id])
	}

	return idTableOffset, nameHashDirOffset, nil
}
