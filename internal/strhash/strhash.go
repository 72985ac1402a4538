// Package strhash implements the Bernstein-style byte-string hash every
// on-disk hash table in this repository uses. The algorithm is pinned by
// the on-disk format: it is not a candidate for a general-purpose hash
// library swap, because a reader built against a different hash would
// compute different bucket indices for the same key.
package strhash

// Hash computes the Bernstein-style hash of a null-terminated key. Callers
// pass the key bytes without the terminator; the terminator itself never
// contributes to the hash since it is a framing detail, not key content.
func Hash(key []byte) uint32 {
	var acc uint32

	for _, c := range key {
		acc = acc*33 + uint32(c)
	}

	return acc + (acc >> 5)
}
