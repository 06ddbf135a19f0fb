package olympus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const scanWorkers = 4

func (o *Olympus) findSlides(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// The stack directories only ever hold ETS containers
			if info.Mode().IsDir() {
				if strings.HasPrefix(info.Name(), "_") && strings.HasSuffix(info.Name(), "_") && file != base {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() || !strings.EqualFold(filepath.Ext(file), vsiExt) {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (o *Olympus) slideWorker(ctx context.Context, in <-chan string, results chan<- *Slide) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			slide, err := o.Index(ctx, file)
			if err != nil {
				// A slide that cannot be indexed doesn't stop the scan
				o.logger.Warn("cannot index slide", zap.String("path", file), zap.Error(err))
				continue
			}

			select {
			case results <- slide:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()
	return errc, nil
}

// waitForPipeline drains every stage, cancelling the rest of the pipeline on
// the first error, which is returned.
func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	var first error
	for err := range mergeErrors(errs...) {
		if err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks the directory tree rooted at path, indexing every slide found
// into the catalog. The indexed slides are returned in no particular order.
func (o *Olympus) Scan(path string) ([]*Slide, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := o.findSlides(ctx, dir)
	if err != nil {
		return nil, err
	}
	errcList = append(errcList, errc)

	results := make(chan *Slide)
	var slides []*Slide
	done := make(chan struct{})
	go func() {
		defer close(done)
		for s := range results {
			slides = append(slides, s)
		}
	}()

	for i := 0; i < scanWorkers; i++ {
		errc, err := o.slideWorker(ctx, files, results)
		if err != nil {
			return nil, err
		}
		errcList = append(errcList, errc)
	}

	err = waitForPipeline(cancelFunc, errcList...)
	close(results)
	<-done

	if err != nil {
		return nil, err
	}

	return slides, nil
}
