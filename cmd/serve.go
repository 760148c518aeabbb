package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osm-footprints/internal/logger"
	"github.com/wegman-software/osm-footprints/internal/metrics"
	"github.com/wegman-software/osm-footprints/internal/pipeline"
	"github.com/wegman-software/osm-footprints/internal/server"
	"github.com/wegman-software/osm-footprints/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the footprint store and region analysis over HTTP",
	Long: `Start the HTTP server:

  POST /save-footprints      save {"category", "geojson"} as <category>.geojson
  GET  /analyze-footprints   green feature count and Web Mercator area of greenspace.geojson
  POST /api/analyze          run an analysis for {"region": {west,south,east,north}}
  GET  /health               liveness

Analyses are run one at a time. Their categories go to the configured
--sink; the save and analyze-footprints endpoints always use the output directory.`,
	Args: cobra.NoArgs,
	Run:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&cfg.ListenAddr, "listen", "l", cfg.ListenAddr, "Address to listen on")
	serveCmd.Flags().StringSliceVar(&cfg.CORSOrigins, "cors-origins", cfg.CORSOrigins, "Allowed CORS origins")
	serveCmd.Flags().DurationVar(&cfg.MetricsInterval, "metrics-interval", cfg.MetricsInterval, "Interval for system metrics logging, 0 to disable (e.g., 10s, 1m)")
}

func runServe(cmd *cobra.Command, args []string) {
	if err := cfg.Validate(); err != nil {
		exitWithError("invalid configuration", err)
	}
	logConfig(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir, err := store.NewDirStore(cfg.OutputDir)
	if err != nil {
		exitWithError("failed to open output directory", err)
	}
	source, err := newSource(cfg)
	if err != nil {
		exitWithError("failed to create region source", err)
	}
	sink, closeSink, err := newSink(ctx, cfg)
	if err != nil {
		exitWithError("failed to open sink", err)
	}
	defer closeSink()

	runner := pipeline.New(source, pipeline.WithListeners(listeners(cfg, sink, false)...))
	opts := []server.Option{server.WithRunner(runner), server.WithCORSOrigins(cfg.CORSOrigins)}

	if cfg.MetricsInterval > 0 {
		collector := metrics.NewCollector(cfg.MetricsInterval, logger.Get())
		go collector.Start(ctx)
		opts = append(opts, server.WithCollector(collector))
		logger.Get().Info("System metrics collection started", zap.Duration("interval", cfg.MetricsInterval))
	}

	srv := server.New(dir, opts...)

	if err := srv.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		exitWithError("server failed", err)
	}
}
