package report

import (
	"go.uber.org/zap"

	"github.com/wegman-software/osm-footprints/internal/aggregate"
)

// Log writes metrics to a zap logger
type Log struct {
	log *zap.Logger
}

// NewLog creates a log sink
func NewLog(log *zap.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) ShowMetrics(s aggregate.Snapshot) error {
	l.log.Info("Metrics calculated",
		zap.Int("greenspace", s.Greenspace),
		zap.Int("parking", s.Parking),
		zap.Int("buildings", s.Buildings),
		zap.Int("pedestrian", s.Pedestrian),
		zap.Int("others", s.Others),
		zap.Float64("total_green_space_area_m2", s.TotalGreenSpaceArea),
		zap.Float64("total_footprint_area_m2", s.TotalFootprintArea),
		zap.Float64("outlier_area_purged_m2", s.TotalOutlierAreaPurged),
		zap.Int("outside_area_count", s.PropertiesOutsideAreaCount),
	)
	return nil
}

func (l *Log) ShowAccessibility(idx aggregate.Index) error {
	l.log.Info("Green space accessibility",
		zap.Float64("index", idx.Value),
		zap.String("label", idx.Label),
		zap.Float64("green_space_area_m2", idx.TotalGreenSpaceArea),
		zap.Float64("footprint_area_m2", idx.TotalFootprintArea),
	)
	return nil
}

func (l *Log) ShowDegenerate(err error) error {
	l.log.Warn("Green space accessibility unavailable", zap.Error(err))
	return nil
}
