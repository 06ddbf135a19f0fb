/*
Package ets implements a reader for the Olympus ETS tile container.

An ETS file stores one resolution pyramid as a flat table of fixed size tile
records following a short header. The header only declares where the table
starts and how many records it holds; the number of pyramid levels, the grid
size of each level and where each level starts in the table are all inferred
by walking the table.

The header is laid out as follows, all integers little-endian:

	0   "SIS\x00"
	32  uint64 offset of the record table
	40  uint32 number of records
	64  "ETS\x00"

Each record occupies 36 bytes:

	0   uint32 unknown
	4   uint32 column
	8   uint32 row
	12  uint32 plane
	16  uint32 level
	20  uint64 payload offset
	28  uint32 payload size
	32  uint32 unknown

Records are grouped by level, finest level first. Levels may have holes
where a tile was never written.
*/
package ets

import (
	"errors"
)

const (
	// RecordSize is the size in bytes of a single tile record
	RecordSize = 36
	// HeaderSize is the number of bytes covered by the container header
	HeaderSize = 68

	sisOffset         = 0
	tableOffsetOffset = 32
	countOffset       = 40
	etsOffset         = 64
	signatureBytes    = 4
)

var (
	sisMagic = [signatureBytes]byte{'S', 'I', 'S', 0}
	etsMagic = [signatureBytes]byte{'E', 'T', 'S', 0}
)

var (
	// ErrInvalidSignature is returned when either header magic does not match
	ErrInvalidSignature = errors.New("ets: invalid signature")
	// ErrEmptyIndex is returned when the container declares no tile records
	ErrEmptyIndex = errors.New("ets: empty tile index")
	// ErrTruncated is returned when a read runs past the end of the file
	ErrTruncated = errors.New("ets: truncated data")
	// ErrOutOfBounds is returned when seeking past the end of the file
	ErrOutOfBounds = errors.New("ets: offset out of bounds")
	// ErrCorruptIndex is returned when a pyramid level cannot be located
	ErrCorruptIndex = errors.New("ets: corrupt tile index")
	// ErrTileNotFound is returned when no record exists for a tile
	ErrTileNotFound = errors.New("ets: tile not found")
)
