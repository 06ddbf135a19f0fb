package olympus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bodgit/olympus/ets"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	vsiExt = ".vsi"
	etsExt = ".ets"

	maxHeaderReaders = 8
)

var (
	errNoContainers = errors.New("olympus: no ETS containers found")
	errNoValid      = errors.New("olympus: no valid ETS container")
)

// StackDir returns the directory holding the image stacks of the slide
// vsi, "_name_" next to "name.vsi".
func StackDir(vsi string) string {
	base := strings.TrimSuffix(filepath.Base(vsi), filepath.Ext(vsi))
	return filepath.Join(filepath.Dir(vsi), "_"+base+"_")
}

// StackFiles returns every ETS container in the stack directories of the
// slide vsi, sorted by path.
func StackFiles(vsi string) ([]string, error) {
	if !strings.EqualFold(filepath.Ext(vsi), vsiExt) {
		return nil, fmt.Errorf("olympus: %s does not have %s extension", vsi, vsiExt)
	}

	dir := StackDir(vsi)
	stacks, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, stack := range stacks {
		if !stack.IsDir() {
			continue
		}

		entries, err := os.ReadDir(filepath.Join(dir, stack.Name()))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), etsExt) {
				files = append(files, filepath.Join(dir, stack.Name(), e.Name()))
			}
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", errNoContainers, dir)
	}
	sort.Strings(files)

	return files, nil
}

// SelectLargest reads the header of every candidate container and returns
// the one declaring the most tile records. Candidates that cannot be read
// are logged and skipped. On a tie the earlier candidate wins.
func SelectLargest(ctx context.Context, logger *zap.Logger, candidates []string) (string, ets.Header, error) {
	headers := make([]*ets.Header, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxHeaderReaders)
	for i, file := range candidates {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, err := ets.ReadHeaderFile(file)
			if err != nil {
				logger.Warn("skipping container", zap.String("path", file), zap.Error(err))
				return nil
			}
			headers[i] = &h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", ets.Header{}, err
	}

	best := -1
	for i, h := range headers {
		if h == nil {
			continue
		}
		if best < 0 || h.RecordCount > headers[best].RecordCount {
			best = i
		}
	}
	if best < 0 {
		return "", ets.Header{}, errNoValid
	}

	logger.Debug("selected container",
		zap.String("path", candidates[best]),
		zap.Uint32("records", headers[best].RecordCount),
		zap.Int("candidates", len(candidates)))

	return candidates[best], *headers[best], nil
}
