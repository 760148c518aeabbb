package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/wegman-software/osm-footprints/internal/classify"
	"github.com/wegman-software/osm-footprints/internal/feature"
	"github.com/wegman-software/osm-footprints/internal/logger"
	"github.com/wegman-software/osm-footprints/internal/proximity"
	"github.com/wegman-software/osm-footprints/internal/report"
	"github.com/wegman-software/osm-footprints/internal/store"
)

// MetricsListener shows the snapshot and the accessibility index
type MetricsListener struct {
	Sink report.MetricsSink
}

func (l *MetricsListener) Name() string { return "metrics" }

func (l *MetricsListener) Handle(_ context.Context, b *Batch) error {
	var errs []error
	errs = append(errs, l.Sink.ShowMetrics(b.Snapshot))
	if b.IndexErr != nil {
		errs = append(errs, l.Sink.ShowDegenerate(b.IndexErr))
	} else {
		errs = append(errs, l.Sink.ShowAccessibility(b.Index))
	}
	return errors.Join(errs...)
}

// PersistenceListener saves one payload per non-empty category.
// A failed category does not stop the remaining ones.
type PersistenceListener struct {
	Sink store.Sink
}

func (l *PersistenceListener) Name() string { return "persistence" }

func (l *PersistenceListener) Handle(ctx context.Context, b *Batch) error {
	log := logger.Get()

	features, dropped := feature.Encodable(b.Features)
	if dropped > 0 {
		log.Warn("Skipping features with non-finite coordinates", zap.Int("count", dropped))
	}

	var errs []error
	for _, p := range store.Payloads(classify.Partition(features)) {
		if err := l.Sink.Save(ctx, p); err != nil {
			log.Error("Failed to save category", zap.String("category", p.Category), zap.Error(err))
			errs = append(errs, fmt.Errorf("category %s: %w", p.Category, err))
			continue
		}
		log.Debug("Saved category",
			zap.String("category", p.Category),
			zap.Int("features", len(p.GeoJSON.Features)))
	}
	return errors.Join(errs...)
}

// GeometryListener enriches features with their nearest green space distance
// and hands the collection to the geometry sink
type GeometryListener struct {
	Sink report.GeometrySink
}

func (l *GeometryListener) Name() string { return "geometry" }

func (l *GeometryListener) Handle(_ context.Context, b *Batch) error {
	distances, summary := proximity.Measure(b.Features)

	logger.Get().Info("Green space proximity",
		zap.Int("measured", summary.Measured),
		zap.Int("within_walkable", summary.Near),
		zap.Float64("mean_distance_m", summary.MeanDistance),
		zap.Float64("max_distance_m", summary.MaxDistance),
	)

	features, dropped := feature.Encodable(b.Features)
	if dropped > 0 {
		logger.Get().Warn("Leaving features with non-finite coordinates off the map", zap.Int("count", dropped))
	}
	return l.Sink.ShowFeatures(report.Enrich(features, distances))
}
