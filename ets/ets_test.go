package ets

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testTile struct {
	level, x, y, plane uint32
}

func (t testTile) payload() []byte {
	return []byte{byte(t.level), byte(t.x), byte(t.y)}
}

// pyramid returns the tiles of a fully populated pyramid with a w by h
// level 0 grid, minus any holes, in table order.
func pyramid(w, h, maxLevel uint32, holes ...testTile) []testTile {
	missing := make(map[testTile]bool, len(holes))
	for _, t := range holes {
		missing[t] = true
	}

	var tiles []testTile
	for l := uint32(0); l <= maxLevel; l++ {
		for y := uint32(0); y < h; y++ {
			for x := uint32(0); x < w; x++ {
				t := testTile{level: l, x: x, y: y}
				if !missing[t] {
					tiles = append(tiles, t)
				}
			}
		}
		w, h = half(w), half(h)
	}
	return tiles
}

// buildContainer lays out a header, the tile payloads and then the record
// table, returning the file contents and the table offset.
func buildContainer(tiles []testTile) ([]byte, uint64) {
	b := make([]byte, HeaderSize)
	copy(b[sisOffset:], "SIS\x00")
	copy(b[etsOffset:], "ETS\x00")

	offsets := make([]uint64, len(tiles))
	for i, t := range tiles {
		offsets[i] = uint64(len(b))
		b = append(b, t.payload()...)
	}

	table := uint64(len(b))
	binary.LittleEndian.PutUint64(b[tableOffsetOffset:], table)
	binary.LittleEndian.PutUint32(b[countOffset:], uint32(len(tiles)))

	for i, t := range tiles {
		var rec [RecordSize]byte
		binary.LittleEndian.PutUint32(rec[4:], t.x)
		binary.LittleEndian.PutUint32(rec[8:], t.y)
		binary.LittleEndian.PutUint32(rec[12:], t.plane)
		binary.LittleEndian.PutUint32(rec[16:], t.level)
		binary.LittleEndian.PutUint64(rec[20:], offsets[i])
		binary.LittleEndian.PutUint32(rec[28:], uint32(len(t.payload())))
		b = append(b, rec[:]...)
	}

	return b, table
}

func newTestReader(b []byte) *Reader {
	return NewReader(bytes.NewReader(b), int64(len(b)))
}

func writeContainer(t *testing.T, b []byte) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "frame_t.ets")
	require.NoError(t, os.WriteFile(file, b, 0o644))
	return file
}
