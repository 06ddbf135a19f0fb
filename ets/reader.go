package ets

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Reader is a bounds-checked random access reader over a single file. It
// is not safe for concurrent use; the cursor is shared by all reads.
type Reader struct {
	r    io.ReaderAt
	c    io.Closer
	size int64
	pos  int64

	tmp [8]byte
}

// NewReader returns a Reader reading size bytes from r.
func NewReader(r io.ReaderAt, size int64) *Reader {
	return &Reader{
		r:    r,
		size: size,
	}
}

// OpenReader opens the named file for reading. The caller must Close the
// Reader when finished with it.
func OpenReader(file string) (*Reader, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	r := NewReader(f, info.Size())
	r.c = f

	return r, nil
}

// Close closes the underlying file if the Reader opened it.
func (r *Reader) Close() error {
	if r.c == nil {
		return nil
	}
	return r.c.Close()
}

// Size returns the length of the underlying file.
func (r *Reader) Size() int64 {
	return r.size
}

// Offset returns the current cursor position.
func (r *Reader) Offset() int64 {
	return r.pos
}

// Seek moves the cursor to the absolute offset off. Seeking to exactly the
// end of the file is allowed, anything beyond returns ErrOutOfBounds.
func (r *Reader) Seek(off uint64) error {
	if off > uint64(r.size) {
		return fmt.Errorf("%w: %d > %d", ErrOutOfBounds, off, r.size)
	}
	r.pos = int64(off)
	return nil
}

// ReadExact fills b from the cursor and advances it by len(b). If fewer
// than len(b) bytes remain ErrTruncated is returned and the cursor is left
// unchanged.
func (r *Reader) ReadExact(b []byte) error {
	if int64(len(b)) > r.size-r.pos {
		return fmt.Errorf("%w: need %d bytes at offset %d", ErrTruncated, len(b), r.pos)
	}

	n, err := r.r.ReadAt(b, r.pos)
	if n < len(b) {
		if err == nil || err == io.EOF {
			err = ErrTruncated
		}
		return fmt.Errorf("%w: short read at offset %d", err, r.pos)
	}
	r.pos += int64(n)

	return nil
}

// Uint32 reads a little-endian uint32 from the cursor.
func (r *Reader) Uint32() (uint32, error) {
	if err := r.ReadExact(r.tmp[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.tmp[:4]), nil
}

// Uint64 reads a little-endian uint64 from the cursor.
func (r *Reader) Uint64() (uint64, error) {
	if err := r.ReadExact(r.tmp[:8]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(r.tmp[:8]), nil
}
