package docpdf

import (
	"errors"
	"fmt"
)

// Sentinel errors for render failure conditions. Structural problems in
// individual nodes never surface here; those degrade to empty output
// for the node. These cover the failures that abort a whole document.
var (
	ErrNilDocument     = errors.New("docpdf: nil document")
	ErrMissingRoot     = errors.New("docpdf: document root node not found")
	ErrProfileMissing  = errors.New("docpdf: archival mode requires an ICC color profile")
	ErrFontNotEmbedded = errors.New("docpdf: archival mode requires an embeddable font")
	ErrOutputTooLarge  = errors.New("docpdf: produced document exceeds the size limit")
	ErrAssetNotFound   = errors.New("docpdf: asset not found")
	ErrEvaluator       = errors.New("docpdf: expression evaluator failed")
	ErrAssetResolver   = errors.New("docpdf: asset resolver failed")
)

// RenderError is a fatal error from one render invocation, carrying the
// phase it occurred in. One document's failure never affects documents
// rendered concurrently by the caller.
type RenderError struct {
	Op  string // phase, e.g. "render", "archive", "fonts"
	Err error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("docpdf.%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("docpdf.%s: unknown error", e.Op)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

func newRenderError(op string, err error) *RenderError {
	return &RenderError{Op: op, Err: err}
}
