package cmd

import (
	"os"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osm-footprints/internal/config"
	"github.com/wegman-software/osm-footprints/internal/logger"
)

var (
	cfg        = config.DefaultConfig()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "osm-footprints",
	Short: "Land-use footprint metrics from OpenStreetMap",
	Long: `osm-footprints fetches OpenStreetMap polygons for a rectangular region,
classifies every feature into a land-use category and computes area metrics:

  - Green space, parking, pedestrian, building and other footprints
  - Outlier-aware area totals and a green space accessibility index
  - Category-partitioned GeoJSON persistence (directory, HTTP or PostGIS)

Settings come from flags, FOOTPRINTS_* environment variables, a .env file
and an optional footprints.yaml config file.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loaded, err := config.Load(configFile, cmd.Flags())
		if err != nil {
			logger.Init(logger.Options{})
			exitWithError("failed to load configuration", err)
		}
		*cfg = *loaded

		logger.Init(logger.Options{Debug: cfg.Verbose, LogFile: cfg.LogFile})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default ./footprints.yaml if present)")

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&cfg.OutputDir, "output-dir", "o", cfg.OutputDir, "Directory for category GeoJSON and metrics files")
	rootCmd.PersistentFlags().StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Path to log file for persistent logging (JSON format)")

	// Region source flags
	rootCmd.PersistentFlags().StringVar(&cfg.OverpassURL, "overpass-url", cfg.OverpassURL, "Overpass API interpreter endpoint")
	rootCmd.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Overpass request timeout")
	rootCmd.PersistentFlags().DurationVar(&cfg.RequestInterval, "request-interval", cfg.RequestInterval, "Minimum spacing between Overpass requests, 0 for none")
	rootCmd.PersistentFlags().StringVarP(&cfg.StyleFile, "style", "S", cfg.StyleFile, "Style YAML file with the tag selectors to fetch")

	// Storage flags
	rootCmd.PersistentFlags().StringVar(&cfg.Sink, "sink", cfg.Sink, "Where category payloads are saved: dir, http or postgis")
	rootCmd.PersistentFlags().StringVar(&cfg.SaveURL, "save-url", cfg.SaveURL, "Base URL of a footprints server (http sink)")

	// Database flags (persistent so they're available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfg.DBHost, "db-host", cfg.DBHost, "PostgreSQL host")
	rootCmd.PersistentFlags().IntVar(&cfg.DBPort, "db-port", cfg.DBPort, "PostgreSQL port")
	rootCmd.PersistentFlags().StringVarP(&cfg.DBName, "db-name", "d", cfg.DBName, "PostgreSQL database name")
	rootCmd.PersistentFlags().StringVarP(&cfg.DBUser, "db-user", "U", cfg.DBUser, "PostgreSQL user")
	rootCmd.PersistentFlags().StringVarP(&cfg.DBPassword, "db-password", "W", cfg.DBPassword, "PostgreSQL password")
	rootCmd.PersistentFlags().StringVar(&cfg.DBSchema, "db-schema", cfg.DBSchema, "PostgreSQL schema")
}

func exitWithError(msg string, err error) {
	log := logger.Get()
	if err != nil {
		log.Error(msg, zap.Error(err))
	} else {
		log.Error(msg)
	}
	logger.Sync()
	os.Exit(1)
}
