// Package jaggererr defines the fatal error kinds shared by the tagger and
// trainer. Every error surfaced from deeper packages wraps one of these
// sentinels so callers (and tests) can distinguish kinds with errors.Is,
// while cmd/ binaries are the only place that prints and exits. The one
// exception is model.Writer, which returns the error from flushing a
// buffered artifact file as is, without a sentinel.
package jaggererr

import "errors"

var (
	// ErrModelMissing: one of the four compiled-model artifacts could not
	// be opened or memory-mapped.
	ErrModelMissing = errors.New("model artifact missing or unreadable")

	// ErrIO: a read or write on a stdio stream failed.
	ErrIO = errors.New("i/o error")

	// ErrTrainInput: a malformed corpus line or dictionary row.
	ErrTrainInput = errors.New("malformed training input")

	// ErrPatternTooLong: a pattern surface exceeds MaxPatternBits.
	ErrPatternTooLong = errors.New("pattern surface too long")

	// ErrFeatureTooLong: a feature or core-feature substring exceeds
	// MaxFeatureBits, or an id exceeds its reserved bit width.
	ErrFeatureTooLong = errors.New("feature string too long")
)
