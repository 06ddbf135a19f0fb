package ets

import (
	"bytes"
	"fmt"
)

// Header is the fixed header of an ETS container.
type Header struct {
	// RecordCount is the number of tile records in the table
	RecordCount uint32
	// TableOffset is the absolute offset of the first tile record
	TableOffset uint64
}

// TableEnd returns the offset immediately after the last tile record.
func (h Header) TableEnd() uint64 {
	return h.TableOffset + uint64(h.RecordCount)*RecordSize
}

// RecordOffset returns the offset of the i'th record slot in the table.
func (h Header) RecordOffset(i uint32) uint64 {
	return h.TableOffset + uint64(i)*RecordSize
}

func readMagic(r *Reader, off uint64, magic [signatureBytes]byte) error {
	if err := r.Seek(off); err != nil {
		return err
	}

	var b [signatureBytes]byte
	if err := r.ReadExact(b[:]); err != nil {
		return err
	}

	if !bytes.Equal(b[:], magic[:]) {
		return fmt.Errorf("%w: %q at offset %d", ErrInvalidSignature, b[:], off)
	}

	return nil
}

// ReadHeader parses and validates the container header from r. The record
// table is checked to lie within the file.
func ReadHeader(r *Reader) (Header, error) {
	var h Header

	if err := readMagic(r, sisOffset, sisMagic); err != nil {
		return Header{}, err
	}

	if err := r.Seek(countOffset); err != nil {
		return Header{}, err
	}
	count, err := r.Uint32()
	if err != nil {
		return Header{}, err
	}
	if count == 0 {
		return Header{}, ErrEmptyIndex
	}
	h.RecordCount = count

	if err := readMagic(r, etsOffset, etsMagic); err != nil {
		return Header{}, err
	}

	if err := r.Seek(tableOffsetOffset); err != nil {
		return Header{}, err
	}
	if h.TableOffset, err = r.Uint64(); err != nil {
		return Header{}, err
	}

	size := uint64(r.Size())
	if h.TableOffset > size {
		return Header{}, fmt.Errorf("%w: record table at %d, file is %d bytes", ErrOutOfBounds, h.TableOffset, size)
	}
	if uint64(h.RecordCount) > (size-h.TableOffset)/RecordSize {
		return Header{}, fmt.Errorf("%w: %d records at %d exceed file of %d bytes", ErrTruncated, h.RecordCount, h.TableOffset, size)
	}

	return h, nil
}

// ReadHeaderFile reads just the header of the named container.
func ReadHeaderFile(file string) (Header, error) {
	r, err := OpenReader(file)
	if err != nil {
		return Header{}, err
	}
	defer r.Close()

	return ReadHeader(r)
}
