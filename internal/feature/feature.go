package feature

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/osm"
)

// Recognized property keys copied from source tags
const (
	KeyHeight          = "height"
	KeyBuildingLevels  = "building:levels"
	KeyBuilding        = "building"
	KeyLeisure         = "leisure"
	KeyAmenity         = "amenity"
	KeyLanduse         = "landuse"
	KeyNatural         = "natural"
	KeyHighway         = "highway"
	KeyTourism         = "tourism"
	KeyPublicTransport = "public_transport"
	KeyParking         = "parking"
)

// RecognizedKeys lists the tag keys kept on a normalized feature
var RecognizedKeys = []string{
	KeyHeight,
	KeyBuildingLevels,
	KeyBuilding,
	KeyLeisure,
	KeyAmenity,
	KeyLanduse,
	KeyNatural,
	KeyHighway,
	KeyTourism,
	KeyPublicTransport,
	KeyParking,
}

// RawElement is a single element as returned by a region source
type RawElement struct {
	Type     osm.Type
	ID       int64
	Geometry []orb.Point // ordered (lon, lat) vertices
	Tags     osm.Tags
}

// FeatureID returns the OSM feature id string, e.g. "way/123"
func (e RawElement) FeatureID() string {
	if e.ID == 0 {
		return ""
	}
	switch e.Type {
	case osm.TypeWay:
		return osm.WayID(e.ID).FeatureID().String()
	case osm.TypeRelation:
		return osm.RelationID(e.ID).FeatureID().String()
	default:
		return string(e.Type) + "/" + strconv.FormatInt(e.ID, 10)
	}
}

// Properties is the category-relevant tag bag of a feature. Missing keys are absent.
type Properties map[string]string

// Get returns the value of a key, or "" when absent
func (p Properties) Get(key string) string {
	return p[key]
}

// Has reports whether the key is present with a non-empty value
func (p Properties) Has(key string) bool {
	return p[key] != ""
}

// Feature is a normalized polygon feature
type Feature struct {
	ID         string
	Ring       orb.Ring // as given by the source, not re-closed
	Properties Properties
	Contained  bool
}

// HeightMeters returns the height tag, or an estimate of 3 m per building level.
// The second value is false when neither tag is usable.
func (f Feature) HeightMeters() (float64, bool) {
	if h := f.Properties.Get(KeyHeight); h != "" {
		if v, err := strconv.ParseFloat(trimUnit(h), 64); err == nil {
			return v, true
		}
	}
	if l := f.Properties.Get(KeyBuildingLevels); l != "" {
		if v, err := strconv.ParseFloat(l, 64); err == nil {
			return v * 3, true
		}
	}
	return 0, false
}

func trimUnit(s string) string {
	for i, r := range s {
		if r == ' ' || r == 'm' {
			return s[:i]
		}
	}
	return s
}

// Key returns the deduplication key: the identity when present,
// otherwise a structural key built from the serialized ring
func Key(f Feature) string {
	if f.ID != "" {
		return "id:" + f.ID
	}
	data, err := json.Marshal(f.Ring)
	if err != nil {
		// NaN coordinates cannot be marshalled as JSON
		return "geom:" + formatRing(f.Ring)
	}
	return "geom:" + string(data)
}

func formatRing(ring orb.Ring) string {
	buf := make([]byte, 0, len(ring)*24)
	for _, p := range ring {
		buf = strconv.AppendFloat(buf, p[0], 'g', -1, 64)
		buf = append(buf, ',')
		buf = strconv.AppendFloat(buf, p[1], 'g', -1, 64)
		buf = append(buf, ';')
	}
	return string(buf)
}

// ToGeoJSON converts the feature to a GeoJSON polygon feature carrying its
// properties, id and containment flag
func ToGeoJSON(f Feature) *geojson.Feature {
	gf := geojson.NewFeature(orb.Polygon{f.Ring})
	if f.ID != "" {
		gf.ID = f.ID
		gf.Properties["id"] = f.ID
	}
	for k, v := range f.Properties {
		gf.Properties[k] = v
	}
	gf.Properties["isContained"] = f.Contained
	return gf
}

// Finite reports whether every ring coordinate is a finite number
func (f Feature) Finite() bool {
	for _, p := range f.Ring {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			return false
		}
	}
	return true
}

// Encodable returns the features whose rings can be written as GeoJSON,
// and the number left out
func Encodable(features []Feature) ([]Feature, int) {
	kept := make([]Feature, 0, len(features))
	for _, f := range features {
		if f.Finite() {
			kept = append(kept, f)
		}
	}
	return kept, len(features) - len(kept)
}

// Collection converts features into a GeoJSON FeatureCollection.
// Features with non-finite coordinates are left out.
func Collection(features []Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		if !f.Finite() {
			continue
		}
		fc.Append(ToGeoJSON(f))
	}
	return fc
}

// FromGeoJSON converts a GeoJSON polygon feature back to a Feature.
// Only the outer ring is kept. Returns false for non-polygon geometry.
func FromGeoJSON(gf *geojson.Feature) (Feature, bool) {
	poly, ok := gf.Geometry.(orb.Polygon)
	if !ok || len(poly) == 0 {
		return Feature{}, false
	}

	f := Feature{Ring: poly[0], Properties: Properties{}}
	if id, ok := gf.ID.(string); ok {
		f.ID = id
	}
	for _, k := range RecognizedKeys {
		if v, ok := gf.Properties[k].(string); ok && v != "" {
			f.Properties[k] = v
		}
	}
	if c, ok := gf.Properties["isContained"].(bool); ok {
		f.Contained = c
	}
	return f, true
}
