package dat

import (
	"fmt"

	"github.com/krullgor/godat-reader/cursor"
)

// parseSequenceHeader parses the per-sequence header at absolute offset S,
// §4.4: a fixed 7-byte literal, a frame count, and frame_count deltas that
// are rebased (delta + S) into absolute offsets.
func parseSequenceHeader(cur *cursor.Cursor, seqOffset int64) ([]int64, error) {
	cur.Seek(seqOffset)

	if err := cur.Expect(sequenceHeaderStart); err != nil {
		return nil, fmt.Errorf("sequence header START at %d: %w", seqOffset, err)
	}

	frameCount, err := cur.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("frame_count at %d: %w", seqOffset, err)
	}

	offsets := make([]int64, frameCount)
	for i := range offsets {
		delta, err := cur.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("frame delta %d/%d at %d: %w", i, frameCount, seqOffset, err)
		}
		offsets[i] = int64(delta) + seqOffset
	}

	return offsets, nil
}
