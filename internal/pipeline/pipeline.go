// Package pipeline runs fetch, normalize, deduplicate, containment tagging
// and aggregation for a region, then hands the batch to a fixed listener list.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wegman-software/osm-footprints/internal/aggregate"
	"github.com/wegman-software/osm-footprints/internal/feature"
	"github.com/wegman-software/osm-footprints/internal/geomath"
	"github.com/wegman-software/osm-footprints/internal/logger"
)

// Pipeline orchestrates one region analysis per Run
type Pipeline struct {
	source    Source
	listeners []Listener
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithListeners appends listeners, invoked in every run
func WithListeners(l ...Listener) Option {
	return func(p *Pipeline) {
		p.listeners = append(p.listeners, l...)
	}
}

// New creates a pipeline reading from source
func New(source Source, opts ...Option) *Pipeline {
	p := &Pipeline{source: source}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run analyzes region. A fetch failure aborts the run before any listener is
// invoked. Listener failures are logged and collected in Result.Errors.
func (p *Pipeline) Run(ctx context.Context, region geomath.Region) (*Result, error) {
	runID := uuid.New().String()
	log := logger.Get().With(zap.String("run_id", runID))
	start := time.Now()

	if err := region.Validate(); err != nil {
		return nil, err
	}

	log.Info("Fetching region", zap.Stringer("region", region))

	raw, err := p.source.Fetch(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch region: %w", err)
	}

	batch, stats := Build(raw, region)

	if batch.IndexErr != nil {
		log.Warn("Accessibility index skipped", zap.Error(batch.IndexErr))
	}

	res := &Result{RunID: runID, Batch: batch, Stats: stats}
	res.Errors = p.publish(ctx, log, batch)
	res.Stats.Duration = time.Since(start)

	log.Info("Run complete",
		zap.Int("raw_elements", stats.RawElements),
		zap.Int("features", stats.Features),
		zap.Int("unique", stats.Unique),
		zap.Int("contained", stats.Contained),
		zap.Int("listener_errors", len(res.Errors)),
		zap.Duration("duration", res.Stats.Duration.Round(time.Millisecond)),
	)

	return res, nil
}

// Build runs the synchronous part of a run over already fetched elements
func Build(raw []feature.RawElement, region geomath.Region) (*Batch, Stats) {
	features := feature.Normalize(raw)
	unique := feature.Deduplicate(features)

	stats := Stats{
		RawElements: len(raw),
		Features:    len(features),
		Unique:      len(unique),
	}

	for i := range unique {
		unique[i].Contained = geomath.IsFullyWithin(unique[i].Ring, region)
		if unique[i].Contained {
			stats.Contained++
		}
	}

	snap := aggregate.Aggregate(unique, region)
	idx, idxErr := aggregate.Accessibility(snap)

	return &Batch{
		Region:   region,
		Features: unique,
		Snapshot: snap,
		Index:    idx,
		IndexErr: idxErr,
	}, stats
}

// publish hands the batch to every listener concurrently. A failing listener
// does not cancel the others.
func (p *Pipeline) publish(ctx context.Context, log *zap.Logger, b *Batch) []error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)

	for _, l := range p.listeners {
		g.Go(func() error {
			if err := l.Handle(ctx, b); err != nil {
				log.Error("Listener failed", zap.String("listener", l.Name()), zap.Error(err))
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", l.Name(), err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errs
}

// Err joins the listener errors of a result, nil when there are none
func (r *Result) Err() error {
	return errors.Join(r.Errors...)
}
