package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/wegman-software/osm-footprints/internal/logger"
	"github.com/wegman-software/osm-footprints/internal/wkb"
)

// Table is the footprint table name inside the configured schema
const Table = "footprints"

const loadTable = "footprints_load"

var loadColumns = []string{"category", "feature_id", "tags", "is_contained", "geom_wkb"}

// Pool is the subset of pgxpool.Pool used by the PostGIS store
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostGISStore replaces a category's rows in <schema>.footprints on every save
type PostGISStore struct {
	pool   Pool
	schema string
	close  func()
}

// NewPostGISStore wraps an existing pool
func NewPostGISStore(pool Pool, schema string) *PostGISStore {
	if schema == "" {
		schema = "public"
	}
	return &PostGISStore{pool: pool, schema: schema}
}

// ConnectPostGIS opens a connection pool and wraps it in a store
func ConnectPostGIS(ctx context.Context, connString, schema string) (*PostGISStore, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	s := NewPostGISStore(pool, schema)
	s.close = pool.Close
	return s, nil
}

// Close releases the pool when the store owns it
func (s *PostGISStore) Close() {
	if s.close != nil {
		s.close()
	}
}

func (s *PostGISStore) table() string {
	return pgx.Identifier{s.schema, Table}.Sanitize()
}

// EnsureSchema creates the PostGIS extension, schema and footprint table
func (s *PostGISStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS postgis",
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pgx.Identifier{s.schema}.Sanitize()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			category TEXT NOT NULL,
			feature_id TEXT,
			tags JSONB,
			is_contained BOOLEAN NOT NULL DEFAULT false,
			geom GEOMETRY(Polygon, 4326)
		)`, s.table()),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS footprints_category_idx ON %s (category)", s.table()),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS footprints_geom_idx ON %s USING GIST (geom)", s.table()),
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare schema: %w", err)
		}
	}
	return nil
}

// Save replaces the category's rows with the payload in one transaction
func (s *PostGISStore) Save(ctx context.Context, p Payload) error {
	if err := p.Validate(); err != nil {
		return err
	}

	rows, err := s.rows(p)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	n, err := s.replace(ctx, tx, p.Category, rows)
	if err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("saving %s: %w", p.Category, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("saving %s: failed to commit: %w", p.Category, err)
	}

	logger.Get().Debug("Stored category",
		zap.String("category", p.Category),
		zap.Int64("rows", n),
	)
	return nil
}

func (s *PostGISStore) replace(ctx context.Context, tx pgx.Tx, category string, rows [][]any) (int64, error) {
	// EWKB goes through a bytea staging column, PostGIS parses it on insert
	createTmp := fmt.Sprintf(`CREATE TEMP TABLE IF NOT EXISTS %s (
		category TEXT,
		feature_id TEXT,
		tags TEXT,
		is_contained BOOLEAN,
		geom_wkb BYTEA
	) ON COMMIT DROP`, loadTable)
	if _, err := tx.Exec(ctx, createTmp); err != nil {
		return 0, fmt.Errorf("failed to create staging table: %w", err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{loadTable}, loadColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy rows: %w", err)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE category = $1", s.table()), category); err != nil {
		return 0, fmt.Errorf("failed to clear category: %w", err)
	}

	insert := fmt.Sprintf(`INSERT INTO %s (category, feature_id, tags, is_contained, geom)
		SELECT category, feature_id, tags::jsonb, is_contained, ST_GeomFromEWKB(geom_wkb)
		FROM %s`, s.table(), loadTable)
	if _, err := tx.Exec(ctx, insert); err != nil {
		return 0, fmt.Errorf("failed to insert rows: %w", err)
	}

	return n, nil
}

func (s *PostGISStore) rows(p Payload) ([][]any, error) {
	enc := wkb.NewEncoder(256)
	rows := make([][]any, 0, len(p.GeoJSON.Features))

	for _, f := range p.GeoJSON.Features {
		poly, ok := f.Geometry.(orb.Polygon)
		if !ok || len(poly) == 0 {
			continue
		}
		geom := enc.EncodeRing(poly[0])
		if geom == nil {
			continue
		}

		tags, err := json.Marshal(f.Properties)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tags: %w", err)
		}

		var id any
		if s, ok := f.ID.(string); ok && s != "" {
			id = s
		}
		contained, _ := f.Properties["isContained"].(bool)

		rows = append(rows, []any{p.Category, id, string(tags), contained, geom})
	}
	return rows, nil
}
