/*
Package olympus is a library for indexing Olympus VSI whole slide images.

A slide is a small .vsi file accompanied by a "_name_" directory holding one
or more stack directories, each containing ETS tile containers. The
container with the most tile records is taken as the canonical source of
the slide's tile pyramid, which is reconstructed by the ets package and kept
in a SQLite catalog.
*/
package olympus

import (
	"context"

	"github.com/bodgit/olympus/ets"
	"go.uber.org/zap"
)

// Olympus indexes slides into a catalog.
type Olympus struct {
	catalog *Catalog
	logger  *zap.Logger
}

// Slide is the result of indexing a single slide.
type Slide struct {
	// Path is the .vsi file
	Path string
	// Container is the ETS container chosen as the index source
	Container string
	// Digest identifies the container contents in the catalog
	Digest string
	Index  *ets.Index
	// Cached is true if the index came from the catalog
	Cached bool
}

// New returns an Olympus using the catalog database in file. If logger is
// nil nothing is logged.
func New(file string, logger *zap.Logger) (*Olympus, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := NewCatalog(file)
	if err != nil {
		return nil, err
	}

	return &Olympus{
		catalog: catalog,
		logger:  logger,
	}, nil
}

// Close closes the catalog.
func (o *Olympus) Close() error {
	return o.catalog.Close()
}

// Catalog returns the underlying catalog.
func (o *Olympus) Catalog() *Catalog {
	return o.catalog
}

// Index selects the largest ETS container of the slide vsi and returns its
// pyramid, reconstructing and cataloguing it unless the catalog already
// holds a container with the same digest.
func (o *Olympus) Index(ctx context.Context, vsi string) (*Slide, error) {
	files, err := StackFiles(vsi)
	if err != nil {
		return nil, err
	}

	file, _, err := SelectLargest(ctx, o.logger, files)
	if err != nil {
		return nil, err
	}

	digest, err := Digest(file)
	if err != nil {
		return nil, err
	}

	slide := &Slide{
		Path:      vsi,
		Container: file,
		Digest:    digest,
	}

	if slide.Index, err = o.catalog.Lookup(digest); err != nil {
		return nil, err
	}
	if slide.Index != nil {
		o.logger.Debug("index found in catalog", zap.String("path", file), zap.String("digest", digest))
		slide.Cached = true
		return slide, nil
	}

	c, err := ets.Open(file)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	if err := o.catalog.Store(file, digest, c); err != nil {
		return nil, err
	}
	slide.Index = c.Index()

	o.logger.Info("indexed slide",
		zap.String("path", vsi),
		zap.String("container", file),
		zap.Int("levels", len(slide.Index.Levels)),
		zap.Uint32("records", slide.Index.Header.RecordCount))

	return slide, nil
}
