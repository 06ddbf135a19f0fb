package ets

import (
	"errors"
	"fmt"
	"io"
)

// Container is an opened ETS file together with its reconstructed pyramid.
// It is not safe for concurrent use.
type Container struct {
	r   *Reader
	idx *Index
}

// NewContainer parses the header and reconstructs the pyramid from r.
func NewContainer(r *Reader) (*Container, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	idx, err := Reconstruct(r, h)
	if err != nil {
		return nil, err
	}

	return &Container{
		r:   r,
		idx: idx,
	}, nil
}

// Open opens the named ETS file and indexes it. The caller must Close the
// Container when finished with it.
func Open(file string) (*Container, error) {
	r, err := OpenReader(file)
	if err != nil {
		return nil, err
	}

	c, err := NewContainer(r)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	return c, nil
}

// OpenIndex opens the named ETS file, reconstructs its pyramid and closes
// the file again.
func OpenIndex(file string) (*Index, error) {
	c, err := Open(file)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	return c.Index(), nil
}

// Close closes the underlying file.
func (c *Container) Close() error {
	return c.r.Close()
}

// Index returns the reconstructed pyramid.
func (c *Container) Index() *Index {
	return c.idx
}

// Records calls fn for every record stored for level l, in table order.
// Iteration stops at the first error returned by fn.
func (c *Container) Records(l uint32, fn func(Record, uint64) error) error {
	level, ok := c.idx.Level(l)
	if !ok {
		return fmt.Errorf("%w: no level %d", ErrTileNotFound, l)
	}

	n := (c.idx.levelEnd(l) - level.FirstRecordOffset) / RecordSize
	s := NewStream(c.r, level.FirstRecordOffset, uint32(n))
	for {
		rec, off, err := s.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec, off); err != nil {
			return err
		}
	}
}

// errStop ends a Records walk early.
var errStop = errors.New("ets: stop")

// Tile returns the record for the tile at column x, row y of level l. A
// tile inside the grid without a record is a hole and also returns
// ErrTileNotFound.
func (c *Container) Tile(l, x, y uint32) (Record, error) {
	level, ok := c.idx.Level(l)
	if !ok {
		return Record{}, fmt.Errorf("%w: no level %d", ErrTileNotFound, l)
	}
	if x >= level.Width || y >= level.Height {
		return Record{}, fmt.Errorf("%w: %d,%d outside %dx%d grid of level %d", ErrTileNotFound, x, y, level.Width, level.Height, l)
	}

	var (
		found Record
		hit   bool
	)
	if err := c.Records(l, func(rec Record, _ uint64) error {
		if rec.Column == x && rec.Row == y {
			found, hit = rec, true
			return errStop
		}
		return nil
	}); err != nil && err != errStop {
		return Record{}, err
	}
	if !hit {
		return Record{}, fmt.Errorf("%w: %d,%d at level %d", ErrTileNotFound, x, y, l)
	}

	return found, nil
}

// ReadTile returns the encoded payload of the tile at column x, row y of
// level l. The payload is returned as stored, it is not decoded.
func (c *Container) ReadTile(l, x, y uint32) ([]byte, error) {
	rec, err := c.Tile(l, x, y)
	if err != nil {
		return nil, err
	}

	if err := c.r.Seek(rec.DataOffset); err != nil {
		return nil, err
	}
	if uint64(rec.DataSize) > uint64(c.r.Size())-rec.DataOffset {
		return nil, fmt.Errorf("%w: %d byte tile at %d", ErrTruncated, rec.DataSize, rec.DataOffset)
	}
	b := make([]byte, rec.DataSize)
	if err := c.r.ReadExact(b); err != nil {
		return nil, err
	}

	return b, nil
}
