package pth_test

import (
	"github.com/zcc-tools/pthc/pth"
)

// tokenMeta is the out-of-band data a fake Location index points at. Real
// PTH producers recover spelling and identifier-name information from a
// source buffer and location; these fixtures skip that indirection and
// store it directly, keyed by Location.
type tokenMeta struct {
	fileOffset uint32
	spelling   []byte
	identName  string
}

// fakePP is a minimal pth.Preprocessor used to drive FileLexerPass and
// Assembler in tests without a real lexer or source manager.
type fakePP struct {
	metas  []tokenMeta
	idents map[string]*fakeIdent
	files  []pth.ContributingFile
}

func newFakePP() *fakePP {
	return &fakePP{idents: map[string]*fakeIdent{}}
}

func (p *fakePP) addFile(path string, src string) *fakeLexer {
	lex := &fakeLexer{pp: p, src: []byte(src), atLineStart: true}

	key := pth.FileEntryKey{
		Kind:  pth.FileEntryFile,
		Path:  path,
		Inode: uint32(len(p.files) + 1),
		Mode:  0o644,
	}

	p.files = append(p.files, pth.ContributingFile{Key: key, Lexer: lex})

	return lex
}

func (p *fakePP) EnterMainSourceFile(string) error { return nil }

func (p *fakePP) Lex() (pth.RawToken, error) {
	return pth.RawToken{Kind: pth.TokEOF}, nil
}

func (p *fakePP) Spelling(tok pth.RawToken) []byte {
	return p.metas[tok.Loc].spelling
}

func (p *fakePP) LookupIdentifier(tok pth.RawToken) pth.IdentifierHandle {
	name := p.metas[tok.Loc].identName
	if name == "" {
		return nil
	}

	return p.intern(name)
}

func (p *fakePP) SourceManager() pth.SourceManager { return p }

func (p *fakePP) Files() []pth.ContributingFile { return p.files }

func (p *fakePP) FileOffset(loc pth.Location) uint32 {
	return p.metas[loc].fileOffset
}

func (p *fakePP) intern(name string) *fakeIdent {
	if h, ok := p.idents[name]; ok {
		return h
	}

	h := &fakeIdent{name: name, kw: classifyKeyword(name)}
	p.idents[name] = h

	return h
}

func (p *fakePP) record(fileOffset uint32, spelling []byte, identName string) pth.Location {
	p.metas = append(p.metas, tokenMeta{fileOffset: fileOffset, spelling: spelling, identName: identName})

	return pth.Location(len(p.metas) - 1)
}

type fakeIdent struct {
	name string
	kw   pth.PPKeyword
}

func (h *fakeIdent) Name() []byte           { return []byte(h.name) }
func (h *fakeIdent) PPKeywordID() pth.PPKeyword { return h.kw }

func classifyKeyword(name string) pth.PPKeyword {
	switch name {
	case "if":
		return pth.PPIf
	case "ifdef":
		return pth.PPIfdef
	case "ifndef":
		return pth.PPIfndef
	case "elif":
		return pth.PPElif
	case "else":
		return pth.PPElse
	case "endif":
		return pth.PPEndif
	case "include":
		return pth.PPInclude
	case "import":
		return pth.PPImport
	case "include_next":
		return pth.PPIncludeNext
	default:
		return pth.PPNotKeyword
	}
}

// fakeLexer scans a fixed byte slice, recognizing just enough syntax
// (identifiers, digit runs, quoted strings, '#', and single-character
// punctuators) to exercise FileLexerPass's per-token rules.
type fakeLexer struct {
	pp          *fakePP
	src         []byte
	pos         int
	atLineStart bool
}

func (l *fakeLexer) SetParsingPreprocessorDirective(bool) {}

func (l *fakeLexer) LexIncludeFilename() (pth.RawToken, error) {
	return l.LexRaw()
}

func (l *fakeLexer) LexRaw() (pth.RawToken, error) {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\n':
			l.pos++
			l.atLineStart = true

			continue
		case ' ', '\t', '\r':
			l.pos++

			continue
		}

		break
	}

	startOfLine := l.atLineStart

	if l.pos >= len(l.src) {
		return l.emit(pth.TokEOF, l.pos, startOfLine, "", nil), nil
	}

	start := l.pos
	c := l.src[l.pos]

	switch {
	case c == '#':
		l.pos++

		return l.emit(pth.TokHash, start, startOfLine, "", nil), nil

	case c >= '0' && c <= '9':
		for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
			l.pos++
		}

		return l.emit(pth.TokNumeric, start, startOfLine, "", l.src[start:l.pos]), nil

	case c == '"':
		l.pos++
		contentStart := l.pos

		for l.pos < len(l.src) && l.src[l.pos] != '"' {
			l.pos++
		}

		spelling := l.src[contentStart:l.pos]

		if l.pos < len(l.src) {
			l.pos++
		}

		return l.emit(pth.TokStringLiteral, start, startOfLine, "", spelling), nil

	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
			l.pos++
		}

		return l.emit(pth.TokIdentifier, start, startOfLine, string(l.src[start:l.pos]), nil), nil

	default:
		l.pos++

		return l.emit(pth.TokPunctuator, start, startOfLine, "", nil), nil
	}
}

func (l *fakeLexer) emit(kind pth.TokenKind, start int, startOfLine bool, identName string, spelling []byte) pth.RawToken {
	l.atLineStart = false

	var flags uint8
	if startOfLine {
		flags |= pth.FlagStartOfLine
	}

	loc := l.pp.record(uint32(start), spelling, identName)

	return pth.RawToken{Kind: kind, Flags: flags, Length: uint16(l.pos - start), Loc: loc}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
