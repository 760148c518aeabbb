package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osm-footprints/internal/classify"
	"github.com/wegman-software/osm-footprints/internal/feature"
	"github.com/wegman-software/osm-footprints/internal/geomath"
	"github.com/wegman-software/osm-footprints/internal/server"
	"github.com/wegman-software/osm-footprints/internal/store"
)

var greenspaceCmd = &cobra.Command{
	Use:   "greenspace",
	Short: "Summarize the saved greenspace.geojson",
	Long: `Read greenspace.geojson from the output directory and report the number of
green features with a positive area and their total area, both in Web Mercator
(EPSG:3857) square meters and with the local equirectangular approximation
used for the metrics.`,
	Args: cobra.NoArgs,
	Run:  runGreenspace,
}

func init() {
	rootCmd.AddCommand(greenspaceCmd)
}

func runGreenspace(cmd *cobra.Command, args []string) {
	dir, err := store.NewDirStore(cfg.OutputDir)
	if err != nil {
		exitWithError("failed to open output directory", err)
	}

	fc, err := dir.Load(string(classify.Greenspace))
	if err != nil {
		exitWithError("failed to load green space", err)
	}

	sum := server.SummarizeGreenSpace(fc)

	var approx float64
	for _, gf := range fc.Features {
		if f, ok := feature.FromGeoJSON(gf); ok {
			approx += geomath.Area(f.Ring)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Green features:              %d\n", sum.GreenFeatures)
	fmt.Fprintf(out, "Total green area (EPSG:3857): %.2f m²\n", sum.TotalGreenAreaM2)
	fmt.Fprintf(out, "Total green area (local):     %.2f m²\n", approx)
}
