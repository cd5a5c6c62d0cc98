package supply

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // cgo-free sqlite driver

	"github.com/sells-group/sitecheck/internal/geometry"
)

// SQLiteSource reads a local catalog snapshot. The snapshot schema mirrors
// the Postgres inventory with categories flattened to a semicolon-separated
// text column.
type SQLiteSource struct {
	Path string
}

// Name implements Source.
func (s *SQLiteSource) Name() string { return "sqlite:" + s.Path }

// Load implements Source.
func (s *SQLiteSource) Load(ctx context.Context) ([]Site, error) {
	dbc, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "supply: open snapshot %s", s.Path)
	}
	defer dbc.Close() //nolint:errcheck

	rows, err := dbc.QueryContext(ctx,
		`SELECT id, name, categories, lat, lon FROM supply_sites ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "supply: query snapshot")
	}
	defer rows.Close() //nolint:errcheck

	var sites []Site
	for rows.Next() {
		var (
			site Site
			cats string
		)
		if err := rows.Scan(&site.ID, &site.Name, &cats, &site.Lat, &site.Lon); err != nil {
			return nil, eris.Wrap(err, "supply: scan snapshot row")
		}
		site.Categories = splitCategories(cats)
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "supply: iterate snapshot rows")
	}
	return sites, nil
}

// WriteSnapshot persists a catalog to a local SQLite file so later runs can
// work offline.
func WriteSnapshot(ctx context.Context, path string, sites []Site) error {
	dbc, err := sql.Open("sqlite", path)
	if err != nil {
		return eris.Wrapf(err, "supply: open snapshot %s", path)
	}
	defer dbc.Close() //nolint:errcheck

	if _, err := dbc.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS supply_sites (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			categories TEXT NOT NULL DEFAULT '',
			lat REAL NOT NULL,
			lon REAL NOT NULL
		)`); err != nil {
		return eris.Wrap(err, "supply: create snapshot table")
	}

	tx, err := dbc.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "supply: begin snapshot tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM supply_sites`); err != nil {
		return eris.Wrap(err, "supply: clear snapshot")
	}

	for _, site := range sites {
		if !geometry.ValidCoordinate(site.Lat, site.Lon) {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO supply_sites (id, name, categories, lat, lon) VALUES (?, ?, ?, ?, ?)`,
			site.ID, site.Name, strings.Join(site.Categories, ";"), site.Lat, site.Lon,
		); err != nil {
			return eris.Wrapf(err, "supply: insert snapshot row %s", site.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "supply: commit snapshot")
}
