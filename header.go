package dat

import (
	"fmt"

	"github.com/krullgor/godat-reader/cursor"
)

// header is the parsed fixed preamble, §4.2.
type header struct {
	fileSize     uint32
	tableOffsets [headerSlots]uint32
}

// parseHeader consumes the fixed preamble at offset 0, verifies the magic
// literals and the file-length field, and extracts the fixed-size vector of
// per-category index-table offsets.
//
// Failure modes: ErrFormatMismatch (any literal differs), ErrLengthMismatch
// (file_size wrong), ErrTruncated (short read). All fatal for Container
// construction.
func parseHeader(cur *cursor.Cursor, fileType FileType, actualFileSize int64) (*header, error) {
	cur.Seek(0)

	if err := cur.Expect(fileStart1); err != nil {
		return nil, fmt.Errorf("FILE_START1: %w", err)
	}
	if err := cur.Expect(fileType.Magic); err != nil {
		return nil, fmt.Errorf("pixel-format magic (%s): %w", fileType.Name, err)
	}
	if err := cur.Expect(fileStart2); err != nil {
		return nil, fmt.Errorf("FILE_START2: %w", err)
	}

	fileSize, err := cur.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("file_size: %w", err)
	}
	if int64(fileSize) != actualFileSize {
		return nil, fmt.Errorf("header declares %d bytes, file is %d bytes: %w", fileSize, actualFileSize, ErrLengthMismatch)
	}

	var h header
	h.fileSize = fileSize
	for i := 0; i < headerSlots; i++ {
		off, err := cur.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("table offset %d: %w", i, err)
		}
		h.tableOffsets[i] = off
	}

	if err := cur.Expect(fileHeaderEnd); err != nil {
		return nil, fmt.Errorf("FILE_HEADER_END: %w", err)
	}

	return &h, nil
}
