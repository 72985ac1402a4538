package pth

import (
	"github.com/zcc-tools/pthc/internal/bitio"
	"github.com/zcc-tools/pthc/internal/identreg"
	"github.com/zcc-tools/pthc/internal/spellpool"
)

// TokenEncoder serializes one RawToken at a time into the fixed 12-byte
// on-disk record, resolving its payload against the spelling pool or the
// identifier registry depending on the token's kind.
type TokenEncoder struct {
	pp     Preprocessor
	pool   *spellpool.Pool
	idents *identreg.Registry
	count  int
}

// NewTokenEncoder creates an encoder sharing the run's spelling pool and
// identifier registry.
func NewTokenEncoder(pp Preprocessor, pool *spellpool.Pool, idents *identreg.Registry) *TokenEncoder {
	return &TokenEncoder{pp: pp, pool: pool, idents: idents}
}

// Encode writes one token record: a packed header word, a payload word,
// and the token's file offset, in that order.
func (e *TokenEncoder) Encode(w *bitio.Writer, tok RawToken, sm SourceManager) {
	header := uint32(tok.Kind) | uint32(tok.Flags)<<8 | uint32(tok.Length)<<16
	w.EmitU32(header)
	w.EmitU32(e.payload(tok))
	w.EmitU32(sm.FileOffset(tok.Loc))
	e.count++
}

// Count returns the number of tokens encoded so far.
func (e *TokenEncoder) Count() int {
	return e.count
}

func (e *TokenEncoder) payload(tok RawToken) uint32 {
	if tok.Kind.IsLiteral() {
		return e.pool.Intern(e.pp.Spelling(tok))
	}

	if tok.Kind != TokIdentifier {
		return 0
	}

	handle := e.pp.LookupIdentifier(tok)
	if handle == nil {
		return 0
	}

	return e.idents.Resolve(handle)
}
