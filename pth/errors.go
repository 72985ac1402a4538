package pth

import (
	"errors"

	"github.com/zcc-tools/pthc/internal/bitio"
)

// Sentinel errors for the kinds spec'd error handling distinguishes.
// NonAbsolutePath and MissingBuffer are never returned from CacheTokens:
// the Assembler skips the offending file and logs at Debug instead. The
// rest abort the run.
var (
	ErrNonAbsolutePath       = errors.New("pth: contributing file path is not absolute")
	ErrMissingBuffer         = errors.New("pth: contributing file has no available buffer")
	ErrOutputOpenFailed      = errors.New("pth: failed to open output file")
	ErrImbalancedConditional = errors.New("pth: imbalanced preprocessor conditional")
	ErrIntegerRangeViolation = bitio.ErrIntegerRangeViolation
)
