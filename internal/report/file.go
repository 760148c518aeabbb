package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"

	"github.com/wegman-software/osm-footprints/internal/aggregate"
)

// File names written into the output directory
const (
	MetricsFileName       = "property_category_metrics.json"
	AccessibilityFileName = "green_space_accessibility.json"
	FeaturesFileName      = "features.geojson"
)

// JSONFiles writes the snapshot and accessibility index as JSON files
type JSONFiles struct {
	dir string
}

// NewJSONFiles writes into dir, creating it on first use
func NewJSONFiles(dir string) *JSONFiles {
	return &JSONFiles{dir: dir}
}

func (j *JSONFiles) ShowMetrics(s aggregate.Snapshot) error {
	return writeJSON(filepath.Join(j.dir, MetricsFileName), s)
}

func (j *JSONFiles) ShowAccessibility(idx aggregate.Index) error {
	return writeJSON(filepath.Join(j.dir, AccessibilityFileName), idx)
}

func (j *JSONFiles) ShowDegenerate(err error) error {
	return writeJSON(filepath.Join(j.dir, AccessibilityFileName), map[string]string{"error": err.Error()})
}

// GeoJSONFile writes the enriched feature collection for map rendering
type GeoJSONFile struct {
	path string
}

// NewGeoJSONFile writes to path
func NewGeoJSONFile(path string) *GeoJSONFile {
	return &GeoJSONFile{path: path}
}

func (g *GeoJSONFile) ShowFeatures(fc *geojson.FeatureCollection) error {
	return writeJSON(g.path, fc)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
