package pth

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/zcc-tools/pthc/internal/bitio"
	"github.com/zcc-tools/pthc/internal/identreg"
	"github.com/zcc-tools/pthc/internal/odht"
	"github.com/zcc-tools/pthc/internal/spellpool"
)

const (
	pthMagic      = "cfe-pth"
	formatVersion = uint32(1)
	prologueSize  = 16
)

// RunSummary reports the shape of one completed Assembler run.
type RunSummary struct {
	FileCount       int
	TokenCount      int
	IdentifierCount int
	SpellingBytes   uint32
	OutputBytes     int64
}

// Assembler performs the top-level orchestration described by the PTH
// format: a prologue placeholder, then per-file token regions and their
// PP-conditional tables, then the shared identifier, spelling, and file
// tables, then a final seek back to patch the prologue.
type Assembler struct {
	cfg Config
	log *slog.Logger
}

// NewAssembler creates an Assembler. A nil logger defaults to
// slog.Default().
func NewAssembler(cfg Config, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Assembler{cfg: cfg, log: logger}
}

// Run tokenizes every contributing file pp's source manager reports and
// writes the assembled PTH file to sink.
func (a *Assembler) Run(pp Preprocessor, sink io.Writer) (RunSummary, error) {
	w := bitio.New()

	w.EmitBytes([]byte(pthMagic))
	w.EmitU32(formatVersion)

	prologueOffset := w.Tell()
	w.EmitBytes(make([]byte, prologueSize))

	pool := spellpool.New()
	idents := identreg.New()
	encoder := NewTokenEncoder(pp, pool, idents)
	pass := NewFileLexerPass(pp, encoder)
	files := NewFileHashTable(a.cfg.InitialBuckets)

	fileCount, skipped, err := a.tokenizeFiles(w, pp, pass, files)
	if err != nil {
		return RunSummary{}, err
	}

	idTableOffset, nameHashDirOffset, err := idents.EmitIdentifierTables(w, a.cfg.InitialBuckets)
	if err != nil {
		return RunSummary{}, fmt.Errorf("pth: emit identifier tables: %w", err)
	}

	spellingOffset := pool.Emit(w)

	fileHashDirOffset, err := files.Emit(w)
	if err != nil {
		return RunSummary{}, fmt.Errorf("pth: emit file hash table: %w", err)
	}

	if err := w.SeekTo(prologueOffset); err != nil {
		return RunSummary{}, err
	}

	w.EmitU32(uint32(nameHashDirOffset))
	w.EmitU32(uint32(idTableOffset))
	w.EmitU32(uint32(fileHashDirOffset))
	w.EmitU32(uint32(spellingOffset))

	if err := w.Flush(sink); err != nil {
		return RunSummary{}, fmt.Errorf("pth: flush output: %w", err)
	}

	summary := RunSummary{
		FileCount:       fileCount,
		TokenCount:      encoder.Count(),
		IdentifierCount: int(idents.Count()),
		SpellingBytes:   pool.Bytes(),
		OutputBytes:     w.Len(),
	}

	a.log.Info("pth cache written", "summary", summary)

	if len(skipped) > 0 {
		return summary, fmt.Errorf("pth: %d file(s) skipped on imbalanced conditionals: %w", len(skipped), errors.Join(skipped...))
	}

	return summary, nil
}

func (a *Assembler) tokenizeFiles(
	w *bitio.Writer,
	pp Preprocessor,
	pass *FileLexerPass,
	files *odht.Builder[FileEntryKey, FileEntryValue],
) (int, []error, error) {
	fileCount := 0

	var skipped []error

	for _, cf := range pp.SourceManager().Files() {
		if !filepath.IsAbs(cf.Key.Path) {
			a.log.Debug("skipping contributing file", "reason", ErrNonAbsolutePath, "path", cf.Key.Path)
			continue
		}

		if cf.Lexer == nil {
			a.log.Debug("skipping contributing file", "reason", ErrMissingBuffer, "path", cf.Key.Path)
			continue
		}

		fileStart, ppcondOffset, err := pass.Run(w, cf.Lexer)
		if err != nil {
			if !a.cfg.Strict && errors.Is(err, ErrImbalancedConditional) {
				skipped = append(skipped, fmt.Errorf("%s: %w", cf.Key.Path, err))
				continue
			}

			return 0, nil, fmt.Errorf("pth: tokenizing %s: %w", cf.Key.Path, err)
		}

		files.Insert(cf.Key, FileEntryValue{
			TokenRegionOffset: uint32(fileStart),
			PPCondTableOffset: uint32(ppcondOffset),
			Inode:             cf.Key.Inode,
			Device:            cf.Key.Device,
			Mode:              cf.Key.Mode,
			Mtime:             cf.Key.Mtime,
			Size:              cf.Key.Size,
		})

		fileCount++
	}

	return fileCount, skipped, nil
}
