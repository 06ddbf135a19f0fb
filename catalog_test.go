package olympus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/olympus/ets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	catalog := newTestOlympus(t).Catalog()

	file := filepath.Join(t.TempDir(), "frame_t.ets")
	require.NoError(t, os.WriteFile(file, etsFile(5, 5, 3), 0o644))

	c, err := ets.Open(file)
	require.NoError(t, err)
	defer c.Close()

	idx, err := catalog.Lookup("abc")
	require.NoError(t, err)
	assert.Nil(t, idx)

	require.NoError(t, catalog.Store(file, "abc", c))
	// Storing again replaces the earlier entry
	require.NoError(t, catalog.Store(file, "abc", c))

	idx, err = catalog.Lookup("abc")
	require.NoError(t, err)
	assert.Equal(t, c.Index(), idx)

	rec, ok, err := catalog.FindTile("abc", 1, 2, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(1), rec.Level)
	assert.Equal(t, uint32(2), rec.Column)
	assert.Equal(t, uint32(1), rec.Row)

	_, ok, err = catalog.FindTile("abc", 1, 3, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}
