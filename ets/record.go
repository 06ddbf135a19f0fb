package ets

import (
	"encoding/binary"
	"errors"
	"io"
)

// Record is a single tile record from the container record table.
type Record struct {
	Column uint32
	Row    uint32
	// Plane is the coordinate slot preceding Level. Its meaning is unknown
	// and it is not assumed to equal Level.
	Plane uint32
	Level uint32
	// DataOffset and DataSize locate the encoded tile payload
	DataOffset uint64
	DataSize   uint32
}

func decodeRecord(b []byte) Record {
	return Record{
		Column:     binary.LittleEndian.Uint32(b[4:]),
		Row:        binary.LittleEndian.Uint32(b[8:]),
		Plane:      binary.LittleEndian.Uint32(b[12:]),
		Level:      binary.LittleEndian.Uint32(b[16:]),
		DataOffset: binary.LittleEndian.Uint64(b[20:]),
		DataSize:   binary.LittleEndian.Uint32(b[28:]),
	}
}

// ReadRecord reads the record slot starting at off.
func ReadRecord(r *Reader, off uint64) (Record, error) {
	if err := r.Seek(off); err != nil {
		return Record{}, err
	}

	var b [RecordSize]byte
	if err := r.ReadExact(b[:]); err != nil {
		return Record{}, err
	}

	return decodeRecord(b[:]), nil
}

// Stream reads consecutive tile records starting at a given offset.
type Stream struct {
	r    *Reader
	off  uint64
	left uint32
}

// NewStream returns a Stream yielding at most n records from r starting
// at off. Streams share nothing but the cursor of r, a new Stream can be
// created at any offset.
func NewStream(r *Reader, off uint64, n uint32) *Stream {
	return &Stream{
		r:    r,
		off:  off,
		left: n,
	}
}

// Next returns the next record and the offset of its slot. It returns
// io.EOF once the maximum number of records has been read, or ErrTruncated
// if the file ends first.
func (s *Stream) Next() (Record, uint64, error) {
	if s.left == 0 {
		return Record{}, 0, io.EOF
	}

	off := s.off
	rec, err := ReadRecord(s.r, off)
	if err != nil {
		if errors.Is(err, ErrOutOfBounds) {
			err = ErrTruncated
		}
		s.left = 0
		return Record{}, 0, err
	}

	s.off += RecordSize
	s.left--

	return rec, off, nil
}
