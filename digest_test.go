package olympus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/olympus/ets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest(t *testing.T) {
	dir := t.TempDir()
	b := etsFile(4, 4, 2)

	a := filepath.Join(dir, "a.ets")
	require.NoError(t, os.WriteFile(a, b, 0o644))

	// Trailing bytes beyond the record table don't change the digest
	c := filepath.Join(dir, "c.ets")
	require.NoError(t, os.WriteFile(c, append(append([]byte(nil), b...), 0xde, 0xad), 0o644))

	d1, err := Digest(a)
	require.NoError(t, err)
	assert.Len(t, d1, 64)

	d2, err := Digest(c)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	other := filepath.Join(dir, "other.ets")
	require.NoError(t, os.WriteFile(other, etsFile(4, 3, 2), 0o644))
	d3, err := Digest(other)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)

	bad := filepath.Join(dir, "bad.ets")
	require.NoError(t, os.WriteFile(bad, []byte("XXX\x00"), 0o644))
	_, err = Digest(bad)
	assert.ErrorIs(t, err, ets.ErrInvalidSignature)
}
