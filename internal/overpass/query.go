package overpass

import (
	"fmt"
	"strings"
	"time"

	"github.com/wegman-software/osm-footprints/internal/geomath"
	"github.com/wegman-software/osm-footprints/internal/style"
)

// BBox formats a region in Overpass order: south,west,north,east
func BBox(r geomath.Region) string {
	return fmt.Sprintf("%g,%g,%g,%g", r.South, r.West, r.North, r.East)
}

// BuildQuery renders an Overpass QL union of the selectors over the region,
// returning full geometry for every element
func BuildQuery(r geomath.Region, selectors []style.Selector, timeout time.Duration) string {
	bbox := BBox(r)

	var b strings.Builder
	b.WriteString("[out:json]")
	if secs := int(timeout.Seconds()); secs > 0 {
		fmt.Fprintf(&b, "[timeout:%d]", secs)
	}
	b.WriteString(";\n(\n")
	for _, s := range selectors {
		if s.Value == "" {
			fmt.Fprintf(&b, "  %s[%q](%s);\n", s.Kind, s.Key, bbox)
		} else {
			fmt.Fprintf(&b, "  %s[%q=%q](%s);\n", s.Kind, s.Key, s.Value, bbox)
		}
	}
	b.WriteString(");\nout geom;\n")
	return b.String()
}
