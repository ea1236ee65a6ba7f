package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/l0p7/regiond/internal/hierarchy"
)

// PostgresConfig mirrors the server configuration so this package stays free
// of a config dependency.
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Postgres reads the hierarchy from the relational store the deployment owns.
//
// Expected schema:
//
//	locations(id bigint primary key, parent_id bigint, level int,
//	          name text, deleted bool, end_date timestamptz,
//	          lat_min float8, lon_min float8, lat_max float8, lon_max float8)
//	location_names(location_id bigint, language text, name text)
type Postgres struct {
	db *sql.DB
}

const locationColumns = `id, parent_id, level, name, deleted, end_date, lat_min, lon_min, lat_max, lon_max`

// OpenPostgres opens the connection pool and verifies connectivity.
func OpenPostgres(cfg PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, errors.New("store: postgres dsn required")
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: postgres open: %w", err)
	}
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 50
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 25
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: postgres ping: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// ByID implements hierarchy.Store.
func (p *Postgres) ByID(ctx context.Context, id int64) (hierarchy.Node, bool, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE id = $1`, id)
	node, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return hierarchy.Node{}, false, nil
	}
	if err != nil {
		return hierarchy.Node{}, false, fmt.Errorf("store: postgres select location %d: %w", id, err)
	}
	if err := p.attachTranslations(ctx, map[int64]*hierarchy.Node{node.ID: &node}); err != nil {
		return hierarchy.Node{}, false, err
	}
	return node, true, nil
}

// ChildrenOf implements hierarchy.Store.
func (p *Postgres) ChildrenOf(ctx context.Context, parentID int64) ([]hierarchy.Node, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE parent_id = $1 ORDER BY id`, parentID)
	if err != nil {
		return nil, fmt.Errorf("store: postgres select children of %d: %w", parentID, err)
	}
	defer rows.Close()

	var nodes []hierarchy.Node
	byID := make(map[int64]*hierarchy.Node)
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("store: postgres scan child of %d: %w", parentID, err)
		}
		nodes = append(nodes, node)
		byID[node.ID] = &nodes[len(nodes)-1]
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: postgres children of %d: %w", parentID, err)
	}
	if err := p.attachTranslations(ctx, byID); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (p *Postgres) attachTranslations(ctx context.Context, nodes map[int64]*hierarchy.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT location_id, language, name FROM location_names WHERE location_id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("store: postgres select translations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var locationID int64
		var language, name string
		if err := rows.Scan(&locationID, &language, &name); err != nil {
			return fmt.Errorf("store: postgres scan translation: %w", err)
		}
		node, ok := nodes[locationID]
		if !ok {
			continue
		}
		if node.Translations == nil {
			node.Translations = make(map[string]string)
		}
		node.Translations[language] = name
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("store: postgres translations: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (hierarchy.Node, error) {
	var (
		node     hierarchy.Node
		parentID sql.NullInt64
		level    sql.NullInt64
		endDate  sql.NullTime
		latMin   sql.NullFloat64
		lonMin   sql.NullFloat64
		latMax   sql.NullFloat64
		lonMax   sql.NullFloat64
	)
	err := row.Scan(&node.ID, &parentID, &level, &node.Name, &node.Deleted,
		&endDate, &latMin, &lonMin, &latMax, &lonMax)
	if err != nil {
		return hierarchy.Node{}, err
	}
	if parentID.Valid {
		value := parentID.Int64
		node.ParentID = &value
	}
	if level.Valid {
		value := int(level.Int64)
		node.Level = &value
	}
	if endDate.Valid {
		value := endDate.Time
		node.EndDate = &value
	}
	if latMin.Valid && lonMin.Valid && latMax.Valid && lonMax.Valid {
		node.Bounds = &hierarchy.Bounds{
			MinLon: lonMin.Float64,
			MinLat: latMin.Float64,
			MaxLon: lonMax.Float64,
			MaxLat: latMax.Float64,
		}
	}
	return node, nil
}
