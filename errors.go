package dat

import (
	"errors"

	"github.com/krullgor/godat-reader/cursor"
)

// Error taxonomy, §7.
var (
	// ErrFormatMismatch marks a failed fixed literal or structural
	// constraint. It is fatal when a header literal fails during
	// construction; a failure inside one index table (e.g. byte_count ==
	// 4*pointer_count + 8) is demoted to a per-slot warning in Warnings().
	ErrFormatMismatch = cursor.ErrFormatMismatch

	// ErrLengthMismatch is fatal during construction: the header-declared
	// file size does not match the real file length.
	ErrLengthMismatch = errors.New("dat: file size does not match header")

	// ErrTruncated is fatal during construction and caching-level during
	// lazy decode: an unexpected EOF.
	ErrTruncated = cursor.ErrTruncated

	// ErrTranslatorFailure marks a bitmap translator rejecting a payload.
	// Recorded as a NullImage in the cache; never propagated to the caller
	// as an error from the safe getters.
	ErrTranslatorFailure = errors.New("dat: bitmap translator failed")

	// ErrIndexOutOfRange is returned by unsafe getters on a bad index; it
	// never mutates cache state.
	ErrIndexOutOfRange = errors.New("dat: index out of range")

	// ErrCrossReferenceMissing marks an animation record referring to a
	// sequence/frame that is not present; logged, overlay omitted, compose
	// continues.
	ErrCrossReferenceMissing = errors.New("dat: cross-file reference missing")
)
