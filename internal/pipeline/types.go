package pipeline

import (
	"context"
	"time"

	"github.com/wegman-software/osm-footprints/internal/aggregate"
	"github.com/wegman-software/osm-footprints/internal/feature"
	"github.com/wegman-software/osm-footprints/internal/geomath"
)

// Source fetches raw elements for a region. One call per run, no retry.
type Source interface {
	Fetch(ctx context.Context, region geomath.Region) ([]feature.RawElement, error)
}

// Batch is the shared result of one run handed to every listener.
// Listeners must treat it as read-only.
type Batch struct {
	Region   geomath.Region
	Features []feature.Feature // deduplicated, containment tagged
	Snapshot aggregate.Snapshot

	// Index is valid only when IndexErr is nil
	Index    aggregate.Index
	IndexErr error
}

// Listener consumes a completed batch
type Listener interface {
	Name() string
	Handle(ctx context.Context, b *Batch) error
}

// Stats holds run statistics
type Stats struct {
	RawElements int
	Features    int
	Unique      int
	Contained   int
	Duration    time.Duration
}

// Result is returned by a run that got past the fetch
type Result struct {
	RunID string
	Batch *Batch
	Stats Stats

	// Errors reported by listeners; none of them abort the run
	Errors []error
}
