package style

import (
	"fmt"
	"os"
	"sort"

	"github.com/paulmach/osm"
	"gopkg.in/yaml.v3"
)

// Config selects which OSM elements a region query asks for
type Config struct {
	// Ways configuration for way elements
	Ways *FilterConfig `yaml:"ways,omitempty"`
	// Relations configuration for relation elements
	Relations *FilterConfig `yaml:"relations,omitempty"`
}

// FilterConfig defines selection rules for one element kind
type FilterConfig struct {
	// Include specifies which tag keys/values are queried.
	// An empty value list selects any value of the key.
	Include map[string][]string `yaml:"include,omitempty"`
	// Exclude drops elements client side after the query.
	// An empty value list excludes any element carrying the key.
	Exclude map[string][]string `yaml:"exclude,omitempty"`
}

// Selector is a single tag clause of a region query
type Selector struct {
	Kind  osm.Type
	Key   string
	Value string // empty = any value
}

// LoadConfig loads a style configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read style file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse style YAML: %w", err)
	}

	if cfg.Ways == nil && cfg.Relations == nil {
		return nil, fmt.Errorf("style file %s selects no elements", path)
	}

	return &cfg, nil
}

// DefaultConfig returns the selection used for land-use footprints:
// buildings, parking, parks and gardens, green landuse and pedestrian areas
func DefaultConfig() *Config {
	return &Config{
		Ways: &FilterConfig{
			Include: map[string][]string{
				"building": nil,
				"amenity":  {"parking"},
				"leisure":  {"park", "garden"},
				"landuse":  {"forest", "meadow", "grass", "recreation_ground"},
				"highway":  {"pedestrian"},
			},
		},
		Relations: &FilterConfig{
			Include: map[string][]string{
				"building": nil,
			},
		},
	}
}

// Selectors expands the configuration into query clauses in a stable order
func (c *Config) Selectors() []Selector {
	var out []Selector
	out = append(out, selectors(osm.TypeWay, c.Ways)...)
	out = append(out, selectors(osm.TypeRelation, c.Relations)...)
	return out
}

func selectors(kind osm.Type, fc *FilterConfig) []Selector {
	if fc == nil {
		return nil
	}

	keys := make([]string, 0, len(fc.Include))
	for k := range fc.Include {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Selector
	for _, k := range keys {
		values := fc.Include[k]
		if len(values) == 0 {
			out = append(out, Selector{Kind: kind, Key: k})
			continue
		}
		for _, v := range values {
			out = append(out, Selector{Kind: kind, Key: k, Value: v})
		}
	}
	return out
}

// Filter applies the exclude rules of a configuration
type Filter struct {
	cfg *Config
}

// NewFilter creates a filter from configuration
func NewFilter(cfg *Config) *Filter {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Filter{cfg: cfg}
}

// Match checks if an element of the given kind should be kept
func (f *Filter) Match(kind osm.Type, tags osm.Tags) bool {
	var fc *FilterConfig
	switch kind {
	case osm.TypeWay:
		fc = f.cfg.Ways
	case osm.TypeRelation:
		fc = f.cfg.Relations
	}
	if fc == nil || len(fc.Exclude) == 0 {
		return true
	}

	for key, values := range fc.Exclude {
		tagValue := tags.Find(key)
		if tagValue == "" {
			continue
		}
		// If no specific values, exclude any with this key
		if len(values) == 0 {
			return false
		}
		for _, v := range values {
			if v == tagValue || v == "*" {
				return false
			}
		}
	}

	return true
}

// HasFilter returns true if any exclude rule is configured
func (f *Filter) HasFilter() bool {
	for _, fc := range []*FilterConfig{f.cfg.Ways, f.cfg.Relations} {
		if fc != nil && len(fc.Exclude) > 0 {
			return true
		}
	}
	return false
}
