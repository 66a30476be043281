package cursor

import "errors"

// ErrFormatMismatch is returned by Expect when a fixed literal does not
// match what is on disk.
var ErrFormatMismatch = errors.New("cursor: format mismatch")

// ErrTruncated is returned when a read runs past the end of the underlying
// reader.
var ErrTruncated = errors.New("cursor: truncated read")
