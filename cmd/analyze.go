package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osm-footprints/internal/logger"
	"github.com/wegman-software/osm-footprints/internal/pipeline"
)

var quiet bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Fetch a region, compute land-use metrics and save the categories",
	Long: `Run one analysis over a region given as west,south,east,north:

  1. Fetch building, parking, pedestrian and green space polygons from Overpass
  2. Normalize, deduplicate and tag the features fully inside the region
  3. Classify and aggregate the metrics, then derive the accessibility index
  4. Print the metrics, write the metrics JSON and the enriched GeoJSON,
     and save one payload per non-empty category to the configured sink

Only a failed fetch aborts the run. Display and save failures are reported.`,
	Example: `  osm-footprints analyze --region 13.37,52.50,13.40,52.52
  osm-footprints analyze --region 13.37,52.50,13.40,52.52 --sink postgis -d gis`,
	Args: cobra.NoArgs,
	Run:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&cfg.Region, "region", "r", cfg.Region, "Region to analyze: west,south,east,north")
	analyzeCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the metrics overview")
}

func runAnalyze(cmd *cobra.Command, args []string) {
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		exitWithError("invalid configuration", err)
	}
	region, err := cfg.Bounds()
	if err != nil {
		exitWithError("invalid region", err)
	}
	logConfig(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := newSource(cfg)
	if err != nil {
		exitWithError("failed to create region source", err)
	}
	sink, closeSink, err := newSink(ctx, cfg)
	if err != nil {
		exitWithError("failed to open storage", err)
	}
	defer closeSink()

	p := pipeline.New(source, pipeline.WithListeners(listeners(cfg, sink, !quiet)...))

	res, err := p.Run(ctx, region)
	if err != nil {
		closeSink()
		exitWithError("analysis failed", err)
	}

	if len(res.Errors) > 0 {
		log.Warn("Analysis completed with errors", zap.Int("errors", len(res.Errors)), zap.Error(res.Err()))
		return
	}
	log.Info("Analysis complete",
		zap.Stringer("region", region),
		zap.Int("features", res.Stats.Unique),
		zap.Int("contained", res.Stats.Contained),
		zap.Duration("duration", res.Stats.Duration))
}
