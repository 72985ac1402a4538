package pth

import (
	"fmt"
	"log/slog"
	"os"
)

// Option configures a CacheTokens run beyond its two required arguments.
type Option func(*runOptions)

type runOptions struct {
	cfg    Config
	logger *slog.Logger
}

// WithConfig overrides the run's hash-table seeding and strictness.
func WithConfig(cfg Config) Option {
	return func(o *runOptions) { o.cfg = cfg }
}

// WithLogger overrides the run's logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *runOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// CacheTokens runs pp to end of file (discovering every transitively
// included header), then lexes and serializes every contributing file
// into a PTH cache at outputPath. On any abort path the partial output
// file is removed rather than left for the caller to clean up.
func CacheTokens(pp Preprocessor, outputPath string, opts ...Option) (RunSummary, error) {
	ro := runOptions{cfg: DefaultConfig(), logger: slog.Default()}
	for _, opt := range opts {
		opt(&ro)
	}

	for {
		tok, err := pp.Lex()
		if err != nil {
			return RunSummary{}, fmt.Errorf("pth: preprocessing to EOF: %w", err)
		}

		if tok.Kind == TokEOF {
			break
		}
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return RunSummary{}, fmt.Errorf("%w: %w", ErrOutputOpenFailed, err)
	}

	asm := NewAssembler(ro.cfg, ro.logger)

	summary, runErr := asm.Run(pp, out)
	closeErr := out.Close()

	// Run only returns the zero RunSummary on a hard abort (it never
	// reaches Flush on that path); a non-strict run with skipped files
	// still returns a real summary alongside its reported error, and its
	// output is valid and must be kept.
	if runErr != nil && summary == (RunSummary{}) {
		_ = os.Remove(outputPath)

		return RunSummary{}, runErr
	}

	if closeErr != nil {
		_ = os.Remove(outputPath)

		return RunSummary{}, fmt.Errorf("pth: close output: %w", closeErr)
	}

	return summary, runErr
}
