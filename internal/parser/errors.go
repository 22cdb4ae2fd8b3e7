package parser

import (
	"errors"
	"fmt"
)

// Workbook-level error kinds. UnsupportedFormat and OversizedFile are fatal;
// StructuralCorruption is retryable by re-parsing from scratch.
var (
	ErrUnsupportedFormat    = errors.New("unsupported file format")
	ErrStructuralCorruption = errors.New("workbook structure is corrupt")
	ErrOversizedFile        = errors.New("sheet dimensions exceed the configured ceiling")
)

// ParseError wraps a parse failure with its retry semantics. Structural
// corruption invalidates chunk offsets, so a retry always re-parses from
// scratch and never reuses the previous attempt's chunk cache.
type ParseError struct {
	Err       error
	Retryable bool
}

func (e *ParseError) Error() string {
	if e.Retryable {
		return fmt.Sprintf("parse failed (retryable): %v", e.Err)
	}
	return fmt.Sprintf("parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func corruptf(format string, args ...any) *ParseError {
	return &ParseError{
		Err:       fmt.Errorf("%w: %s", ErrStructuralCorruption, fmt.Sprintf(format, args...)),
		Retryable: true,
	}
}
