package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wegman-software/osm-footprints/internal/config"
	"github.com/wegman-software/osm-footprints/internal/logger"
	"github.com/wegman-software/osm-footprints/internal/overpass"
	"github.com/wegman-software/osm-footprints/internal/pipeline"
	"github.com/wegman-software/osm-footprints/internal/report"
	"github.com/wegman-software/osm-footprints/internal/store"
	"github.com/wegman-software/osm-footprints/internal/style"
)

const userAgent = "osm-footprints/1.0"

// newSource builds the Overpass client, using the style file when set
func newSource(c *config.Config) (*overpass.Client, error) {
	opts := []overpass.Option{overpass.WithUserAgent(userAgent)}
	if c.RequestInterval > 0 {
		opts = append(opts, overpass.WithLimiter(rate.NewLimiter(rate.Every(c.RequestInterval), 1)))
	}
	if c.StyleFile != "" {
		st, err := style.LoadConfig(c.StyleFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load style: %w", err)
		}
		opts = append(opts, overpass.WithStyle(st))
	}
	return overpass.NewClient(c.OverpassURL, c.Timeout, opts...), nil
}

// newSink opens the configured storage sink. The returned close func is never nil.
func newSink(ctx context.Context, c *config.Config) (store.Sink, func(), error) {
	switch c.Sink {
	case config.SinkHTTP:
		return store.NewHTTPSink(c.SaveURL, c.Timeout), func() {}, nil

	case config.SinkPostGIS:
		pg, err := store.ConnectPostGIS(ctx, c.ConnectionString(), c.DBSchema)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, pg.Close, nil

	default:
		dir, err := store.NewDirStore(c.OutputDir)
		if err != nil {
			return nil, nil, err
		}
		return dir, func() {}, nil
	}
}

// listeners builds the metrics, persistence and geometry listeners.
// Console output is added when text is true.
func listeners(c *config.Config, sink store.Sink, text bool) []pipeline.Listener {
	metrics := report.MultiMetrics{
		report.NewJSONFiles(c.OutputDir),
		report.NewLog(logger.Get()),
	}
	if text {
		metrics = append(metrics, report.NewText(os.Stdout))
	}

	return []pipeline.Listener{
		&pipeline.MetricsListener{Sink: metrics},
		&pipeline.PersistenceListener{Sink: sink},
		&pipeline.GeometryListener{Sink: report.NewGeoJSONFile(filepath.Join(c.OutputDir, report.FeaturesFileName))},
	}
}

func logConfig(c *config.Config) {
	logger.Get().Debug("Configuration",
		zap.String("overpass", c.OverpassURL),
		zap.Duration("timeout", c.Timeout),
		zap.String("sink", c.Sink),
		zap.String("output_dir", c.OutputDir),
		zap.String("style", c.StyleFile),
	)
}
