package olympus

import (
	"fmt"
	"io"
	"os"

	"github.com/bodgit/olympus/ets"
	"github.com/zeebo/blake3"
)

// Digest returns the hex encoded BLAKE3 hash of the header and record table
// of the named ETS container. Tile payloads are not hashed.
func Digest(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	header, err := ets.ReadHeader(ets.NewReader(f, info.Size()))
	if err != nil {
		return "", err
	}

	h := blake3.New()
	if _, err = io.Copy(h, io.NewSectionReader(f, 0, ets.HeaderSize)); err != nil {
		return "", err
	}
	if _, err = io.Copy(h, io.NewSectionReader(f, int64(header.TableOffset), int64(header.TableEnd()-header.TableOffset))); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
