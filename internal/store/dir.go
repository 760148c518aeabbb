package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/wegman-software/osm-footprints/internal/logger"
)

// ErrNotFound is returned when no collection is stored for a category
var ErrNotFound = errors.New("category not found")

// DirStore keeps one <category>.geojson file per category in a directory
type DirStore struct {
	dir string
}

// NewDirStore creates the directory if needed
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the store directory
func (s *DirStore) Dir() string {
	return s.dir
}

// Path returns the file path used for a category
func (s *DirStore) Path(category string) string {
	return filepath.Join(s.dir, category+".geojson")
}

// Save overwrites the category file with the payload's collection
func (s *DirStore) Save(ctx context.Context, p Payload) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(p.GeoJSON)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", p.Category, err)
	}

	path := s.Path(p.Category)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p.Category, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename %s: %w", p.Category, err)
	}

	logger.Get().Debug("Saved category",
		zap.String("category", p.Category),
		zap.Int("features", len(p.GeoJSON.Features)),
		zap.String("path", path),
	)
	return nil
}

// Load reads a category file back
func (s *DirStore) Load(category string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(s.Path(category))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, category)
	}
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", category, err)
	}
	return fc, nil
}
