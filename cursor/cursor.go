// Package cursor implements a random-access, little-endian byte cursor over
// an io.ReaderAt. It is the container format's only I/O primitive: every
// parser in this module reads through a *Cursor instead of touching an
// *os.File directly.
package cursor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Cursor is a random-access view over a file (or any io.ReaderAt). It keeps
// a logical read position so callers can mix Seek with sequential reads, but
// it never buffers beyond a single read call: implementations backing the
// io.ReaderAt are free to memory-map or cache as they see fit.
type Cursor struct {
	r   io.ReaderAt
	pos int64
	end int64
}

// New wraps r, whose total addressable length is size, into a Cursor
// positioned at offset 0.
func New(r io.ReaderAt, size int64) *Cursor {
	return &Cursor{r: r, end: size}
}

// Len returns the total addressable length of the underlying reader.
func (c *Cursor) Len() int64 { return c.end }

// Pos returns the cursor's current logical position. Callers must not
// depend on this across unrelated catalog operations (§5): it exists purely
// to let sequential parsers read one field after another.
func (c *Cursor) Pos() int64 { return c.pos }

// Seek moves the cursor to an absolute offset. Negative offsets and offsets
// past the end of the file are accepted here; they only fail on the next
// read.
func (c *Cursor) Seek(absoluteOffset int64) {
	c.pos = absoluteOffset
}

func (c *Cursor) readExact(n int) ([]byte, error) {
	if c.pos < 0 {
		return nil, fmt.Errorf("cursor: negative offset %d: %w", c.pos, ErrTruncated)
	}
	buf := make([]byte, n)
	read, err := c.r.ReadAt(buf, c.pos)
	if err != nil && !(err == io.EOF && read == n) {
		return nil, fmt.Errorf("cursor: short read at %d (%d/%d bytes): %w", c.pos, read, n, ErrTruncated)
	}
	c.pos += int64(read)
	return buf, nil
}

// ReadU8 reads a single unsigned byte.
func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.readExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a little-endian uint16.
func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.readExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadI16 reads a little-endian int16.
func (c *Cursor) ReadI16() (int16, error) {
	v, err := c.ReadU16()
	return int16(v), err
}

// ReadU32 reads a little-endian uint32.
func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.readExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadBytes reads n raw bytes without interpretation, e.g. a frame payload
// handed to a bitmap translator.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	return c.readExact(n)
}

// Expect reads len(literal) bytes and fails with ErrFormatMismatch when they
// differ from literal. On mismatch the cursor position still advances past
// the literal, matching a plain sequential read.
func (c *Cursor) Expect(literal []byte) error {
	got, err := c.readExact(len(literal))
	if err != nil {
		return err
	}
	if !bytes.Equal(got, literal) {
		return fmt.Errorf("cursor: literal mismatch at %d: got % x, want % x: %w",
			c.pos-int64(len(literal)), got, literal, ErrFormatMismatch)
	}
	return nil
}
