// Package spellpool implements the deduplicated pool of literal token
// spellings, addressed by byte offset from the start of the pool section.
package spellpool

import "github.com/zcc-tools/pthc/internal/bitio"

// Pool deduplicates spellings by exact byte content and assigns each
// distinct spelling a stable logical offset the moment it is first seen.
type Pool struct {
	offsets map[string]uint32
	order   [][]byte
	size    uint32
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{offsets: map[string]uint32{}}
}

// Intern returns the pool offset for spelling, assigning a fresh one on
// first sight. The offset is relative to the start of the pool's own
// section; Emit returns the section's absolute base so callers can add
// the two when recording a payload offset.
func (p *Pool) Intern(spelling []byte) uint32 {
	if off, ok := p.offsets[string(spelling)]; ok {
		return off
	}

	off := p.size
	p.offsets[string(spelling)] = off
	p.order = append(p.order, spelling)
	p.size += uint32(len(spelling)) + 1 // +1 for the terminator.

	return off
}

// Len returns the number of distinct spellings interned so far.
func (p *Pool) Len() int {
	return len(p.order)
}

// Bytes returns the total size, in bytes, the pool will occupy once
// emitted (every spelling plus its terminator).
func (p *Pool) Bytes() uint32 {
	return p.size
}

// Emit writes every distinct spelling, in insertion order, each followed
// by a single 0x00 terminator, and returns the section's starting offset.
func (p *Pool) Emit(w *bitio.Writer) int64 {
	base := w.Tell()

	for _, spelling := range p.order {
		w.EmitBytes(spelling)
		w.EmitU8(0)
	}

	return base
}
