// Package evalerr defines the failure classes of the evaluation engine.
//
// Every error returned by the engine wraps exactly one of these sentinels,
// so callers can classify failures with errors.Is. None of them are
// recoverable: the driver is expected to abort the whole run.
package evalerr

import "github.com/pkg/errors"

var (
	// Malformed ground truth or results file (truncated, bad token, bad number)
	ErrFormat = errors.New("format error")

	// Ground truth dimensions differ from the video dimensions
	ErrDimensionMismatch = errors.New("dimensions inconsistent with video")

	// A frame was submitted out of order
	ErrSequenceOrder = errors.New("frame submitted out of order")

	// A frame number exceeds the declared ground truth length
	ErrOutOfRange = errors.New("movie length inconsistent with ground truth")

	// Baseline frame count differs from the ground truth frame count
	ErrBaselineIncompatible = errors.New("bad baseline number of frames")
)

// Formatf returns an ErrFormat with context
func Formatf(format string, args ...any) error {
	return errors.Wrapf(ErrFormat, format, args...)
}
