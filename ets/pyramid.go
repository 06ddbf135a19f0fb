package ets

import (
	"fmt"
	"io"
	"math"
)

// Level describes the tile grid of one pyramid level.
type Level struct {
	Level  uint32
	Width  uint32
	Height uint32
	// FirstRecordOffset is the absolute offset of the first record
	// belonging to this level
	FirstRecordOffset uint64
}

// Tiles returns the number of tiles in a fully populated grid.
func (l Level) Tiles() uint64 {
	return uint64(l.Width) * uint64(l.Height)
}

// Index is the reconstructed pyramid of a container.
type Index struct {
	Header Header
	// Levels is indexed by level number, level 0 being full resolution
	Levels []Level
}

// MaxLevel returns the deepest level in the pyramid.
func (idx *Index) MaxLevel() uint32 {
	return uint32(len(idx.Levels) - 1)
}

// Level returns the geometry of level l.
func (idx *Index) Level(l uint32) (Level, bool) {
	if int(l) >= len(idx.Levels) {
		return Level{}, false
	}
	return idx.Levels[l], true
}

// levelEnd returns the offset just past the record run of level l.
func (idx *Index) levelEnd(l uint32) uint64 {
	if int(l)+1 < len(idx.Levels) {
		return idx.Levels[l+1].FirstRecordOffset
	}
	return idx.Header.TableEnd()
}

func half(n uint32) uint32 {
	return n/2 + n%2
}

type reconstructor struct {
	r      *Reader
	h      Header
	levels []Level
}

// bootstrap scans level 0 from the start of the table, returning the grid
// of level 0 and the offset of the first record beyond it. If the whole
// table is level 0 the offset is the end of the table.
func (rc *reconstructor) bootstrap() (Level, uint64, error) {
	var (
		maxColumn, maxRow uint32
		n                 uint32
		next              = rc.h.TableEnd()
	)

	s := NewStream(rc.r, rc.h.TableOffset, rc.h.RecordCount)
	for {
		rec, off, err := s.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Level{}, 0, err
		}
		if rec.Level > 0 {
			next = off
			break
		}
		if rec.Column > maxColumn {
			maxColumn = rec.Column
		}
		if rec.Row > maxRow {
			maxRow = rec.Row
		}
		n++
	}

	if n == 0 {
		return Level{}, 0, fmt.Errorf("%w: no level 0 records", ErrEmptyIndex)
	}
	if maxColumn == math.MaxUint32 || maxRow == math.MaxUint32 {
		return Level{}, 0, fmt.Errorf("%w: level 0 grid too large", ErrCorruptIndex)
	}

	return Level{
		Level:             0,
		Width:             maxColumn + 1,
		Height:            maxRow + 1,
		FirstRecordOffset: rc.h.TableOffset,
	}, next, nil
}

// maxLevel reads the level of the last record in the table.
func (rc *reconstructor) maxLevel() (uint32, error) {
	rec, err := ReadRecord(rc.r, rc.h.RecordOffset(rc.h.RecordCount-1))
	if err != nil {
		return 0, err
	}
	return rec.Level, nil
}

// starts reports whether the record at off begins the run of level l. The
// level found at off is returned either way.
func (rc *reconstructor) starts(off uint64, l uint32) (uint32, bool, error) {
	rec, err := ReadRecord(rc.r, off)
	if err != nil {
		return 0, false, err
	}
	if rec.Level != l {
		return rec.Level, false, nil
	}
	if off == rc.h.TableOffset {
		return rec.Level, true, nil
	}
	prev, err := ReadRecord(rc.r, off-RecordSize)
	if err != nil {
		return 0, false, err
	}
	return rec.Level, prev.Level < l, nil
}

// jump computes the start of level l from the end of the table. Holes are
// found in the sparse finer levels, the coarse levels from l upwards are
// expected to be fully populated so their extent is known.
func (rc *reconstructor) jump(l, maxLevel uint32) (uint64, error) {
	var tail uint64
	w, h := rc.levels[l-1].Width, rc.levels[l-1].Height
	for k := l; k <= maxLevel; k++ {
		w, h = half(w), half(h)
		tail += uint64(w) * uint64(h)
		if tail > uint64(rc.h.RecordCount) {
			return 0, fmt.Errorf("%w: levels %d-%d need more than %d records", ErrCorruptIndex, l, maxLevel, rc.h.RecordCount)
		}
	}
	return rc.h.RecordOffset(rc.h.RecordCount - uint32(tail)), nil
}

// locate finds the first record of level l given the candidate offset
// reached by walking forward from the previous level.
func (rc *reconstructor) locate(l, maxLevel uint32, cursor uint64) (uint64, error) {
	if cursor < rc.h.TableEnd() {
		found, ok, err := rc.starts(cursor, l)
		if err != nil {
			return 0, err
		}
		if ok {
			return cursor, nil
		}
		if found < l {
			return 0, fmt.Errorf("%w: level %d record at %d where level %d expected", ErrCorruptIndex, found, cursor, l)
		}
	}

	// The walk overshot, either past a hole in an earlier level or off the
	// end of the table
	off, err := rc.jump(l, maxLevel)
	if err != nil {
		return 0, err
	}
	found, ok, err := rc.starts(off, l)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: level %d not found at %d, found level %d", ErrCorruptIndex, l, off, found)
	}

	return off, nil
}

// Reconstruct infers the pyramid geometry of the container read by r. It
// either returns a complete Index or an error, never a partial Index.
func Reconstruct(r *Reader, h Header) (*Index, error) {
	rc := &reconstructor{
		r: r,
		h: h,
	}

	level0, cursor, err := rc.bootstrap()
	if err != nil {
		return nil, err
	}
	rc.levels = append(rc.levels, level0)

	maxLevel, err := rc.maxLevel()
	if err != nil {
		return nil, err
	}
	// Every level holds at least one record
	if maxLevel >= h.RecordCount {
		return nil, fmt.Errorf("%w: %d levels from %d records", ErrCorruptIndex, uint64(maxLevel)+1, h.RecordCount)
	}

	for l := uint32(1); l <= maxLevel; l++ {
		prev := rc.levels[l-1]
		level := Level{
			Level:  l,
			Width:  half(prev.Width),
			Height: half(prev.Height),
		}

		if level.FirstRecordOffset, err = rc.locate(l, maxLevel, cursor); err != nil {
			return nil, err
		}
		rc.levels = append(rc.levels, level)

		if n := level.Tiles(); n < uint64(h.RecordCount) {
			cursor = level.FirstRecordOffset + n*RecordSize
		} else {
			cursor = h.TableEnd()
		}
	}

	return &Index{
		Header: h,
		Levels: rc.levels,
	}, nil
}
