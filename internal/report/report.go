package report

import (
	"errors"

	"github.com/paulmach/orb/geojson"

	"github.com/wegman-software/osm-footprints/internal/aggregate"
)

// MetricsSink displays a metrics snapshot and the derived accessibility index
type MetricsSink interface {
	ShowMetrics(s aggregate.Snapshot) error
	ShowAccessibility(idx aggregate.Index) error
	ShowDegenerate(err error) error
}

// GeometrySink receives the enriched feature collection for map rendering
type GeometrySink interface {
	ShowFeatures(fc *geojson.FeatureCollection) error
}

// MultiMetrics forwards to every sink and joins their errors
type MultiMetrics []MetricsSink

func (m MultiMetrics) ShowMetrics(s aggregate.Snapshot) error {
	var errs []error
	for _, sink := range m {
		errs = append(errs, sink.ShowMetrics(s))
	}
	return errors.Join(errs...)
}

func (m MultiMetrics) ShowAccessibility(idx aggregate.Index) error {
	var errs []error
	for _, sink := range m {
		errs = append(errs, sink.ShowAccessibility(idx))
	}
	return errors.Join(errs...)
}

func (m MultiMetrics) ShowDegenerate(err error) error {
	var errs []error
	for _, sink := range m {
		errs = append(errs, sink.ShowDegenerate(err))
	}
	return errors.Join(errs...)
}
