package report

import (
	"github.com/paulmach/orb/geojson"

	"github.com/wegman-software/osm-footprints/internal/classify"
	"github.com/wegman-software/osm-footprints/internal/feature"
)

// Enrich builds the map collection: every feature with its category, green
// space flag, estimated height and, where measured, the distance to the
// nearest green space keyed by feature.Key. Features with non-finite
// coordinates are left out.
func Enrich(features []feature.Feature, distances map[string]float64) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		if !f.Finite() {
			continue
		}
		gf := feature.ToGeoJSON(f)
		gf.Properties["category"] = string(classify.Classify(f.Properties))
		gf.Properties["greenspace"] = classify.IsGreenSpace(f.Properties)
		if h, ok := f.HeightMeters(); ok {
			gf.Properties["heightM"] = h
		}
		if d, ok := distances[feature.Key(f)]; ok {
			gf.Properties["nearestGreenspaceM"] = d
		}
		fc.Append(gf)
	}
	return fc
}
