package olympus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestStackDir(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "_slide_"), StackDir(filepath.Join("data", "slide.vsi")))
}

func TestStackFiles(t *testing.T) {
	dir := t.TempDir()
	vsi := writeSlide(t, dir, "slide", etsFile(1, 1, 0), etsFile(1, 1, 0))
	// Files directly in the stack directory and other extensions are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_slide_", "frame_t.ets"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_slide_", "stack10000", "frame_t.txt"), nil, 0o644))

	files, err := StackFiles(vsi)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "_slide_", "stack10000", "frame_t.ets"),
		filepath.Join(dir, "_slide_", "stack10001", "frame_t.ets"),
	}, files)

	_, err = StackFiles(filepath.Join(dir, "slide.tif"))
	assert.Error(t, err)

	_, err = StackFiles(filepath.Join(dir, "missing.vsi"))
	assert.Error(t, err)

	empty := writeSlide(t, dir, "empty")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "_empty_", "stack10000"), 0o755))
	_, err = StackFiles(empty)
	assert.ErrorIs(t, err, errNoContainers)
}

func TestSelectLargest(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, b []byte) string {
		file := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(file, b, 0o644))
		return file
	}

	bad := etsFile(9, 9, 0)
	copy(bad[64:], "XXX")

	small := write("small.ets", etsFile(2, 2, 1))
	large := write("large.ets", etsFile(4, 4, 2))
	tie := write("tie.ets", etsFile(4, 4, 2))
	invalid := write("invalid.ets", bad)
	missing := filepath.Join(dir, "missing.ets")

	file, h, err := SelectLargest(context.Background(), zaptest.NewLogger(t), []string{small, invalid, large, missing, tie})
	require.NoError(t, err)
	assert.Equal(t, large, file)
	assert.Equal(t, uint32(16+4+1), h.RecordCount)

	_, _, err = SelectLargest(context.Background(), zap.NewNop(), []string{invalid, missing})
	assert.ErrorIs(t, err, errNoValid)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = SelectLargest(ctx, zap.NewNop(), []string{small, large})
	assert.ErrorIs(t, err, context.Canceled)
}
