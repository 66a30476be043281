package dat

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// OpenZstd opens a zstd-compressed DAT container (§9 supplemental:
// distribution builds sometimes ship containers zstd-compressed whole,
// rather than per-frame). The compressed stream is fully decompressed into
// memory before parsing begins: the format's index tables and sequence
// headers require random access, which a streaming zstd.Decoder cannot
// offer, so there is no lazy-decompression path here the way there is for
// lazy frame decoding.
func OpenZstd(path string, fileType FileType, opts ...ContainerOption) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dat: openzstd %s: %w", path, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("dat: openzstd %s: new zstd reader: %w", path, err)
	}
	defer dec.Close()

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("dat: openzstd %s: decompress: %w", path, err)
	}

	src := &memoryReaderAt{r: bytes.NewReader(raw)}
	c, err := newContainerFromReaderAt(src, path, int64(len(raw)), fileType, opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// memoryReaderAt adapts a fully decompressed in-memory buffer to
// ReadAtCloser: Close is a no-op since there is no underlying file handle
// once decompression has completed. bytes.Reader.ReadAt is safe for
// concurrent use (it never touches the Seek cursor), matching the
// concurrent-ReadAt expectation Container relies on before it takes its own
// mutex.
type memoryReaderAt struct {
	r *bytes.Reader
}

func (m *memoryReaderAt) ReadAt(p []byte, off int64) (int, error) {
	return m.r.ReadAt(p, off)
}

func (m *memoryReaderAt) Close() error { return nil }
