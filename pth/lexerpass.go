package pth

import (
	"fmt"

	"github.com/zcc-tools/pthc/internal/bitio"
)

type ppCondEntry struct {
	HashOffset uint32
	Target     uint32
}

// FileLexerPass drives one contributing file's Lexer to completion,
// encoding every token it produces and building the file's PP-conditional
// side table alongside the token stream.
type FileLexerPass struct {
	pp      Preprocessor
	sm      SourceManager
	encoder *TokenEncoder
}

// NewFileLexerPass creates a pass sharing the run's preprocessor, source
// manager, and token encoder.
func NewFileLexerPass(pp Preprocessor, encoder *TokenEncoder) *FileLexerPass {
	return &FileLexerPass{pp: pp, sm: pp.SourceManager(), encoder: encoder}
}

// Run tokenizes one contributing file and returns (fileStart,
// ppcondOffset), the two offsets the assembler records for this file.
// Imbalanced conditionals are a programmer error on the input; Run
// recovers the internal panic that signals one and reports it as an
// ordinary error instead of crashing the process.
func (p *FileLexerPass) Run(w *bitio.Writer, lexer Lexer) (fileStart int64, ppcondOffset int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = rerr
				return
			}

			panic(r)
		}
	}()

	w.PadTo(4)
	fileStart = w.Tell()

	ppcond := p.runTokenLoop(w, lexer, fileStart)

	ppcondOffset = w.Tell()
	w.EmitU32(uint32(len(ppcond)))

	for i, e := range ppcond {
		w.EmitU32(e.HashOffset)

		target := e.Target
		if target == uint32(i) {
			target = 0
		}

		w.EmitU32(target)
	}

	return fileStart, ppcondOffset, nil
}

func (p *FileLexerPass) runTokenLoop(w *bitio.Writer, lexer Lexer, fileStart int64) []ppCondEntry {
	var ppcond []ppCondEntry

	var startCond []int

	inDirective := false

	tok := p.mustLex(lexer)

	for {
		if inDirective && (tok.Flags&FlagStartOfLine != 0 || tok.Kind == TokEOF) {
			eod := RawToken{Kind: TokEOD, Flags: tok.Flags &^ FlagStartOfLine, Loc: tok.Loc}
			p.encoder.Encode(w, eod, p.sm)
			inDirective = false
		}

		if tok.Kind == TokEOF {
			break
		}

		switch {
		case tok.Kind == TokIdentifier:
			p.encoder.Encode(w, tok, p.sm)
			tok = p.mustLex(lexer)

		case tok.Kind == TokHash && tok.Flags&FlagStartOfLine != 0:
			hashOffset := uint32(w.Tell() - fileStart)
			p.encoder.Encode(w, tok, p.sm)

			next := p.mustLex(lexer)

			if next.Kind != TokIdentifier {
				p.encoder.Encode(w, next, p.sm)
				tok = p.mustLex(lexer)

				continue
			}

			inDirective = true
			tok = p.runDirective(w, lexer, next, hashOffset, &ppcond, &startCond)

		default:
			p.encoder.Encode(w, tok, p.sm)
			tok = p.mustLex(lexer)
		}
	}

	if len(startCond) != 0 {
		panic(fmt.Errorf("%w: %d conditional(s) still open at end of file", ErrImbalancedConditional, len(startCond)))
	}

	return ppcond
}

// runDirective handles rule (c)'s directive-kind switch once the directive
// identifier (next) has been classified, and returns the token the outer
// loop should resume with — the already-fetched one, for endif's jump back
// to rule (a).
func (p *FileLexerPass) runDirective(
	w *bitio.Writer,
	lexer Lexer,
	next RawToken,
	hashOffset uint32,
	ppcond *[]ppCondEntry,
	startCond *[]int,
) RawToken {
	kw := PPNotKeyword
	if handle := p.pp.LookupIdentifier(next); handle != nil {
		kw = handle.PPKeywordID()
	}

	switch kw {
	case PPInclude, PPImport, PPIncludeNext:
		p.encoder.Encode(w, next, p.sm)

		lexer.SetParsingPreprocessorDirective(true)

		filename, err := lexer.LexIncludeFilename()
		if err != nil {
			panic(fmt.Errorf("pth: lex include filename: %w", err))
		}

		lexer.SetParsingPreprocessorDirective(false)

		p.encoder.Encode(w, filename, p.sm)

		return p.mustLex(lexer)

	case PPIf, PPIfdef, PPIfndef:
		*startCond = append(*startCond, len(*ppcond))
		*ppcond = append(*ppcond, ppCondEntry{HashOffset: hashOffset})
		p.encoder.Encode(w, next, p.sm)

		return p.mustLex(lexer)

	case PPEndif:
		idx := uint32(len(*ppcond))
		p.backpatch(ppcond, startCond, idx)
		*ppcond = append(*ppcond, ppCondEntry{HashOffset: hashOffset, Target: idx})
		p.encoder.Encode(w, next, p.sm)

		return p.drainSameLine(lexer)

	case PPElif, PPElse:
		idx := uint32(len(*ppcond))
		p.backpatch(ppcond, startCond, idx)
		*ppcond = append(*ppcond, ppCondEntry{HashOffset: hashOffset})
		*startCond = append(*startCond, int(idx))
		p.encoder.Encode(w, next, p.sm)

		return p.mustLex(lexer)

	default:
		p.encoder.Encode(w, next, p.sm)

		return p.mustLex(lexer)
	}
}

// backpatch closes the innermost open conditional, pointing it at idx.
func (p *FileLexerPass) backpatch(ppcond *[]ppCondEntry, startCond *[]int, idx uint32) {
	if len(*startCond) == 0 {
		panic(fmt.Errorf("%w: closing directive with no matching opener", ErrImbalancedConditional))
	}

	top := (*startCond)[len(*startCond)-1]
	*startCond = (*startCond)[:len(*startCond)-1]

	if (*ppcond)[top].Target != 0 {
		panic(fmt.Errorf("%w: opener already closed", ErrImbalancedConditional))
	}

	(*ppcond)[top].Target = idx
}

// drainSameLine discards every stray token remaining on the #endif's line
// and returns the first token at start-of-line or EOF, unconsumed by the
// caller's perspective — the per-token loop resumes rule (a) with it.
func (p *FileLexerPass) drainSameLine(lexer Lexer) RawToken {
	for {
		t := p.mustLex(lexer)
		if t.Kind == TokEOF || t.Flags&FlagStartOfLine != 0 {
			return t
		}
	}
}

func (p *FileLexerPass) mustLex(lexer Lexer) RawToken {
	tok, err := lexer.LexRaw()
	if err != nil {
		panic(fmt.Errorf("pth: lex raw token: %w", err))
	}

	return tok
}
