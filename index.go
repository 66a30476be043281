package dat

import (
	"fmt"

	"github.com/krullgor/godat-reader/cursor"
)

// parseIndexTable parses the category index table at absolute offset P,
// §4.3.
//
// Returns (tag, nil, nil) when the tag is ID_NONE or ID_PALETTE: the slot is
// legitimately empty, not an error. Returns a non-nil error only for
// structural failures (FormatMismatch on the byte_count/pointer_count
// relationship, or a truncated read); callers treat that as a per-slot
// failure, not a fatal one (§4.3's partial-failure policy operates one
// level up, in Container construction).
func parseIndexTable(cur *cursor.Cursor, offset int64) (categoryTag, []uint32, error) {
	cur.Seek(offset)

	rawTag, err := cur.ReadU32()
	if err != nil {
		return 0, nil, fmt.Errorf("category tag: %w", err)
	}
	tag := categoryTag(rawTag)

	if tag == tagNone || tag == tagPalette {
		return tag, nil, nil
	}

	byteCount, err := cur.ReadU16()
	if err != nil {
		return tag, nil, fmt.Errorf("byte_count: %w", err)
	}
	pointerCount, err := cur.ReadU16()
	if err != nil {
		return tag, nil, fmt.Errorf("pointer_count: %w", err)
	}

	if uint32(byteCount) != 4*uint32(pointerCount)+8 {
		return tag, nil, fmt.Errorf("byte_count=%d != 4*pointer_count(%d)+8: %w", byteCount, pointerCount, ErrFormatMismatch)
	}

	offsets := make([]uint32, pointerCount)
	for i := range offsets {
		v, err := cur.ReadU32()
		if err != nil {
			return tag, nil, fmt.Errorf("pointer %d/%d: %w", i, pointerCount, err)
		}
		offsets[i] = v
	}

	return tag, offsets, nil
}
