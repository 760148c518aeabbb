package feature

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"go.uber.org/zap"

	"github.com/wegman-software/osm-footprints/internal/logger"
)

// Normalize converts raw elements into polygon features.
// Only ways with geometry are supported; everything else is skipped.
func Normalize(elements []RawElement) []Feature {
	features := make([]Feature, 0, len(elements))
	skipped := 0

	for _, e := range elements {
		if e.Type != osm.TypeWay || len(e.Geometry) == 0 {
			skipped++
			continue
		}

		ring := make(orb.Ring, len(e.Geometry))
		copy(ring, e.Geometry)

		features = append(features, Feature{
			ID:         e.FeatureID(),
			Ring:       ring,
			Properties: properties(e.Tags),
		})
	}

	if skipped > 0 {
		logger.Get().Debug("Skipped unsupported elements",
			zap.Int("skipped", skipped),
			zap.Int("features", len(features)),
		)
	}

	return features
}

func properties(tags osm.Tags) Properties {
	props := make(Properties, len(RecognizedKeys))
	for _, key := range RecognizedKeys {
		if v := tags.Find(key); v != "" {
			props[key] = v
		}
	}
	return props
}

// Deduplicate keeps the first feature per Key, preserving first-seen order
func Deduplicate(features []Feature) []Feature {
	seen := make(map[string]struct{}, len(features))
	unique := make([]Feature, 0, len(features))

	for _, f := range features {
		k := Key(f)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, f)
	}

	return unique
}
