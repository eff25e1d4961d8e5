package cr3

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBoxSize means a box declares a size smaller than its own header.
	ErrInvalidBoxSize = errors.New("invalid box size")
	// ErrBoxOverrunsRange means a box extends past the range being walked.
	ErrBoxOverrunsRange = errors.New("box overruns range")
	// ErrNotAJPEG means the data does not start with an SOI marker.
	ErrNotAJPEG = errors.New("not a JPEG")
	// ErrInvalidExifSegment means an EXIF blob is truncated or malformed.
	ErrInvalidExifSegment = errors.New("invalid EXIF segment")
	// ErrExifTooLarge means an EXIF blob does not fit a 16-bit APP1 segment length.
	ErrExifTooLarge = errors.New("EXIF segment too large")
	// ErrInvalidRange means a preview range is empty, reversed or past the end of the source.
	ErrInvalidRange = errors.New("invalid preview range")
	// ErrNotFound means no JPEG preview was found in a source.
	ErrNotFound = errors.New("not found")
)

// FormatError reports malformed input at a byte offset.
type FormatError struct {
	Op     string
	Offset int64
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s at offset %d: %v", e.Op, e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// IOError reports a failed read of the byte source.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *IOError) Unwrap() error { return e.Err }

func formatErr(op string, off int64, err error) error {
	return &FormatError{Op: op, Offset: off, Err: err}
}
