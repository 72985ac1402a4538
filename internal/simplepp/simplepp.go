// Package simplepp is the reference Preprocessor the CLI ships: it reads
// one already-preprocessed source file and lexes it without performing
// macro expansion or #include resolution, which are both out of scope for
// this writer (see pth.Preprocessor's documentation). It exists to give
// cmd/pthc something real to drive pth.CacheTokens with, instead of a
// test fake.
package simplepp

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zcc-tools/pthc/pth"
)

type tokenMeta struct {
	fileOffset uint32
	spelling   []byte
	identName  string
}

// Preprocessor is a single-file, no-macro-expansion pth.Preprocessor.
type Preprocessor struct {
	sm *sourceManager
}

// New reads path and prepares it as the run's sole contributing file.
func New(path string) (*Preprocessor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("simplepp: resolve %s: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("simplepp: read %s: %w", abs, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("simplepp: stat %s: %w", abs, err)
	}

	sm := &sourceManager{idents: map[string]*identifierHandle{}}

	lex := &lexer{sm: sm, src: data, atLineStart: true}

	// Inode/device are left zero: this preprocessor reads a path given
	// directly on the command line rather than resolving it through an
	// include search, so there is no staleness window for a cache reader
	// to detect via those fields.
	key := pth.FileEntryKey{
		Kind:  pth.FileEntryFile,
		Path:  abs,
		Mode:  uint16(info.Mode().Perm()),
		Mtime: uint64(info.ModTime().Unix()),
		Size:  uint64(info.Size()),
	}

	sm.files = []pth.ContributingFile{{Key: key, Lexer: lex}}

	return &Preprocessor{sm: sm}, nil
}

// EnterMainSourceFile is a no-op: the file was already loaded by New.
func (p *Preprocessor) EnterMainSourceFile(string) error {
	return nil
}

// Lex always reports EOF immediately. A real preprocessor would expand
// macros here to discover transitively included headers; this one has
// nothing left to discover since its one file is already registered.
func (p *Preprocessor) Lex() (pth.RawToken, error) {
	return pth.RawToken{Kind: pth.TokEOF}, nil
}

func (p *Preprocessor) Spelling(tok pth.RawToken) []byte {
	return p.sm.metas[tok.Loc].spelling
}

func (p *Preprocessor) LookupIdentifier(tok pth.RawToken) pth.IdentifierHandle {
	name := p.sm.metas[tok.Loc].identName
	if name == "" {
		return nil
	}

	return p.sm.intern(name)
}

func (p *Preprocessor) SourceManager() pth.SourceManager {
	return p.sm
}

type sourceManager struct {
	metas  []tokenMeta
	idents map[string]*identifierHandle
	files  []pth.ContributingFile
}

func (sm *sourceManager) Files() []pth.ContributingFile {
	return sm.files
}

func (sm *sourceManager) FileOffset(loc pth.Location) uint32 {
	return sm.metas[loc].fileOffset
}

func (sm *sourceManager) intern(name string) *identifierHandle {
	if h, ok := sm.idents[name]; ok {
		return h
	}

	h := &identifierHandle{name: name, kw: classifyKeyword(name)}
	sm.idents[name] = h

	return h
}

func (sm *sourceManager) record(fileOffset uint32, spelling []byte, identName string) pth.Location {
	sm.metas = append(sm.metas, tokenMeta{fileOffset: fileOffset, spelling: spelling, identName: identName})

	return pth.Location(len(sm.metas) - 1)
}

type identifierHandle struct {
	name string
	kw   pth.PPKeyword
}

func (h *identifierHandle) Name() []byte { return []byte(h.name) }

func (h *identifierHandle) PPKeywordID() pth.PPKeyword { return h.kw }

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
