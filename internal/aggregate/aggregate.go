package aggregate

import (
	"errors"

	"github.com/wegman-software/osm-footprints/internal/classify"
	"github.com/wegman-software/osm-footprints/internal/feature"
	"github.com/wegman-software/osm-footprints/internal/geomath"
)

// ErrDegenerateFootprint is returned when the footprint total is zero
var ErrDegenerateFootprint = errors.New("total footprint area is zero")

// Snapshot holds the metrics of a single run. It is never mutated after Aggregate returns.
type Snapshot struct {
	Greenspace int `json:"greenspace"`
	Parking    int `json:"parking"`
	Buildings  int `json:"buildings"`
	Pedestrian int `json:"pedestrian"`
	Others     int `json:"others"`

	TotalGreenSpaceArea        float64 `json:"totalGreenSpaceArea"`
	TotalFootprintArea         float64 `json:"totalFootprintArea"`
	TotalOutlierAreaPurged     float64 `json:"totalOutlierAreaPurged"`
	PropertiesOutsideAreaCount int     `json:"propertiesOutsideAreaCount"`
}

// Count returns the feature count of a category
func (s Snapshot) Count(c classify.Category) int {
	switch c {
	case classify.Greenspace:
		return s.Greenspace
	case classify.Parking:
		return s.Parking
	case classify.Buildings:
		return s.Buildings
	case classify.Pedestrian:
		return s.Pedestrian
	default:
		return s.Others
	}
}

// Contained returns the number of features that survived the containment filter
func (s Snapshot) Contained() int {
	return s.Greenspace + s.Parking + s.Buildings + s.Pedestrian + s.Others
}

func (s *Snapshot) add(c classify.Category) {
	switch c {
	case classify.Greenspace:
		s.Greenspace++
	case classify.Parking:
		s.Parking++
	case classify.Buildings:
		s.Buildings++
	case classify.Pedestrian:
		s.Pedestrian++
	default:
		s.Others++
	}
}

// Aggregate computes the metrics snapshot for features inside region.
//
// Features not fully within the region are dropped and counted in
// PropertiesOutsideAreaCount. Outliers (area above OutlierThreshold) stay in
// their category count but contribute zero area; their true area is added to
// TotalOutlierAreaPurged instead. Counts and area totals can therefore diverge.
func Aggregate(features []feature.Feature, region geomath.Region) Snapshot {
	var s Snapshot

	for _, f := range features {
		if !geomath.IsFullyWithin(f.Ring, region) {
			s.PropertiesOutsideAreaCount++
			continue
		}

		area := geomath.Area(f.Ring)
		if area > geomath.OutlierThreshold {
			s.TotalOutlierAreaPurged += area
			area = 0
		}

		c := classify.Classify(f.Properties)
		s.add(c)
		if c == classify.Greenspace {
			s.TotalGreenSpaceArea += area
		}
		s.TotalFootprintArea += area
	}

	return s
}

// Accessibility labels
const (
	LabelVeryGood = "Very Good"
	LabelGood     = "Good"
	LabelModerate = "Moderate"
	LabelLacking  = "Lacking"
)

// Index is the green space accessibility index: green area as a percentage of footprint area
type Index struct {
	Value               float64 `json:"value"`
	Label               string  `json:"label"`
	TotalGreenSpaceArea float64 `json:"totalGreenSpaceArea"` // m²
	TotalFootprintArea  float64 `json:"totalFootprintArea"`  // m²
}

// Accessibility derives the accessibility index from a snapshot.
// Returns ErrDegenerateFootprint when the footprint total is zero.
func Accessibility(s Snapshot) (Index, error) {
	if s.TotalFootprintArea == 0 {
		return Index{}, ErrDegenerateFootprint
	}
	v := s.TotalGreenSpaceArea / s.TotalFootprintArea * 100
	return Index{
		Value:               v,
		Label:               Label(v),
		TotalGreenSpaceArea: s.TotalGreenSpaceArea,
		TotalFootprintArea:  s.TotalFootprintArea,
	}, nil
}

// Label buckets an index value. 20 itself is Good; only values above 20 are Very Good.
func Label(v float64) string {
	switch {
	case v > 20:
		return LabelVeryGood
	case v >= 15:
		return LabelGood
	case v >= 10:
		return LabelModerate
	default:
		return LabelLacking
	}
}
