// Package classify assigns normalized features to land-use categories.
//
// The rule list is ordered and the first match wins. A feature can match
// several predicates (a cafe on landuse=grass, say), so the order decides
// the category and must not be rearranged.
package classify

import (
	"github.com/wegman-software/osm-footprints/internal/feature"
)

// Category is a land-use category
type Category string

const (
	Greenspace Category = "greenspace"
	Parking    Category = "parking"
	Buildings  Category = "buildings"
	Pedestrian Category = "pedestrian"
	Others     Category = "others"
)

// Categories lists every category in rule order, with the default last
var Categories = []Category{Greenspace, Parking, Pedestrian, Buildings, Others}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case Greenspace, Parking, Buildings, Pedestrian, Others:
		return true
	}
	return false
}

// Match is a single tag predicate. An empty Values list matches any
// non-empty value of Key.
type Match struct {
	Key    string
	Values []string
}

func (m Match) matches(props feature.Properties) bool {
	v := props.Get(m.Key)
	if v == "" {
		return false
	}
	if len(m.Values) == 0 {
		return true
	}
	for _, want := range m.Values {
		if v == want {
			return true
		}
	}
	return false
}

// Rule assigns Category when any of its matches hold
type Rule struct {
	Category Category
	Any      []Match
}

// Greenspace tag values, shared with IsGreenSpace
var (
	greenLeisure = []string{"park", "garden", "nature_reserve"}
	greenLanduse = []string{"forest", "meadow", "grass", "orchard", "recreation_ground"}
)

// Rules is the ordered decision list. Others is the implicit default.
var Rules = []Rule{
	{
		Category: Greenspace,
		Any: []Match{
			{Key: feature.KeyLeisure, Values: greenLeisure},
			{Key: feature.KeyLanduse, Values: greenLanduse},
		},
	},
	{
		Category: Parking,
		Any: []Match{
			{Key: feature.KeyAmenity, Values: []string{"parking", "charging_station"}},
			{Key: feature.KeyParking, Values: []string{"street"}},
		},
	},
	{
		Category: Pedestrian,
		Any: []Match{
			{Key: feature.KeyHighway, Values: []string{"pedestrian"}},
			{Key: feature.KeyLanduse, Values: []string{"plaza"}},
			{Key: feature.KeyAmenity, Values: []string{"marketplace"}},
			{Key: feature.KeyPublicTransport, Values: []string{"platform"}},
		},
	},
	{
		Category: Buildings,
		Any: []Match{
			{Key: feature.KeyBuildingLevels},
			{Key: feature.KeyTourism, Values: []string{"hotel", "attraction"}},
			{Key: feature.KeyAmenity, Values: []string{"restaurant", "cafe", "fast_food", "bar", "school", "university"}},
		},
	},
}

// Classify returns the category of the first matching rule, or Others
func Classify(props feature.Properties) Category {
	for _, r := range Rules {
		for _, m := range r.Any {
			if m.matches(props) {
				return r.Category
			}
		}
	}
	return Others
}

// IsGreenSpace is the coarse green test used for styling and proximity.
// leisure or landuse counts as green when its value is any greenspace value.
// Every feature classified Greenspace also satisfies IsGreenSpace.
func IsGreenSpace(props feature.Properties) bool {
	for _, key := range []string{feature.KeyLeisure, feature.KeyLanduse} {
		v := props.Get(key)
		if v == "" {
			continue
		}
		if contains(greenLeisure, v) || contains(greenLanduse, v) {
			return true
		}
	}
	return false
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// Partition groups features by category. Categories without features are absent.
func Partition(features []feature.Feature) map[Category][]feature.Feature {
	groups := make(map[Category][]feature.Feature)
	for _, f := range features {
		c := Classify(f.Properties)
		groups[c] = append(groups[c], f)
	}
	return groups
}
