package dat

import "sync"

// cacheSlot is a generic at-most-once materialization slot, §4.5/§5: each
// slot transitions exactly once from Empty to Populated, guarded by a
// sync.Once so concurrent callers observe at-most-once construction without
// double-checked locking. A failed build is expected to store a sentinel
// value (NullImage, an empty sequence) so retries are suppressed rather
// than retried.
type cacheSlot[T any] struct {
	once  sync.Once
	value T
}

// get runs compute on first access only; every subsequent caller (including
// concurrent ones that lost the race to populate) observes the same cached
// value once compute has returned.
func (s *cacheSlot[T]) get(compute func() T) T {
	s.once.Do(func() {
		s.value = compute()
	})
	return s.value
}

// imageSlot is the cached result of decoding a direct (non-sequence) image,
// e.g. a single Landscape or Gui entry.
type imageSlot struct {
	result ImageResult
}

// sequenceEntry is a materialized Sequence, §3: a frame count plus the
// per-frame absolute offset vector, populated by SequenceHeaderParser.
type sequenceEntry struct {
	frameOffsets []int64
}
