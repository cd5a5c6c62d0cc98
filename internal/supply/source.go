package supply

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sitecheck/internal/db"
	"github.com/sells-group/sitecheck/internal/fetcher"
)

// ErrNoSupplyData means every configured catalog source failed.
var ErrNoSupplyData = eris.New("supply: no catalog available")

// Source supplies the material catalog from one location.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Site, error)
}

// siteRecord is the JSON wire shape of HTTP supply catalogs.
type siteRecord struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
}

// HTTPSource fetches a JSON array of supply sites.
type HTTPSource struct {
	URL     string
	Fetcher fetcher.Fetcher
}

// Name implements Source.
func (s *HTTPSource) Name() string { return s.URL }

// Load implements Source.
func (s *HTTPSource) Load(ctx context.Context) ([]Site, error) {
	records, err := fetcher.DecodeJSONArray[siteRecord](ctx, s.Fetcher, s.URL)
	if err != nil {
		return nil, eris.Wrapf(err, "supply: fetch catalog %s", s.URL)
	}

	sites := make([]Site, 0, len(records))
	for i, r := range records {
		sites = append(sites, Site{
			ID:         orDefault(r.ID, fmt.Sprintf("supply-%04d", i)),
			Name:       r.Name,
			Categories: r.Categories,
			Lat:        r.Lat,
			Lon:        r.Lon,
		})
	}
	return sites, nil
}

// PostgresSource reads the catalog from a shared Postgres inventory.
type PostgresSource struct {
	Pool db.Pool
}

// Name implements Source.
func (s *PostgresSource) Name() string { return "postgres" }

// Load implements Source.
func (s *PostgresSource) Load(ctx context.Context) ([]Site, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, name, categories, lat, lon FROM supply_sites ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "supply: query postgres catalog")
	}
	defer rows.Close()

	var sites []Site
	for rows.Next() {
		var site Site
		if err := rows.Scan(&site.ID, &site.Name, &site.Categories, &site.Lat, &site.Lon); err != nil {
			return nil, eris.Wrap(err, "supply: scan postgres row")
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "supply: iterate postgres rows")
	}
	return sites, nil
}

// XLSXSource reads a supplier spreadsheet with columns
// name, category (semicolon-separated), lat, lon.
type XLSXSource struct {
	Path string

	// SkipRows skips leading header rows. Default 1.
	SkipRows int
}

// Name implements Source.
func (s *XLSXSource) Name() string { return "xlsx:" + s.Path }

// Load implements Source.
func (s *XLSXSource) Load(ctx context.Context) ([]Site, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "supply: xlsx source cancelled")
	}

	skip := s.SkipRows
	if skip == 0 {
		skip = 1
	}
	rows, err := fetcher.ReadXLSX(s.Path, fetcher.XLSXOptions{SkipRows: skip})
	if err != nil {
		return nil, eris.Wrapf(err, "supply: read spreadsheet %s", s.Path)
	}

	var sites []Site
	for i, row := range rows {
		if len(row) < 4 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		if latErr != nil || lonErr != nil {
			zap.L().Debug("supply: skipping spreadsheet row with bad coordinates",
				zap.Int("row", i+skip),
			)
			continue
		}

		sites = append(sites, Site{
			ID:         fmt.Sprintf("supply-%04d", i),
			Name:       strings.TrimSpace(row[0]),
			Categories: splitCategories(row[1]),
			Lat:        lat,
			Lon:        lon,
		})
	}
	return sites, nil
}

// CascadeSource tries sources in order; the first yielding ≥1 site wins.
type CascadeSource struct {
	Sources []Source

	won string
}

// Name reports the winning source after a successful Load.
func (s *CascadeSource) Name() string {
	if s.won != "" {
		return s.won
	}
	return "cascade"
}

// Load implements Source.
func (s *CascadeSource) Load(ctx context.Context) ([]Site, error) {
	for _, src := range s.Sources {
		sites, err := src.Load(ctx)
		if err != nil {
			zap.L().Warn("supply: catalog source failed",
				zap.String("source", src.Name()),
				zap.Error(err),
			)
			continue
		}
		if len(sites) == 0 {
			zap.L().Debug("supply: catalog source empty", zap.String("source", src.Name()))
			continue
		}
		zap.L().Info("supply: catalog loaded",
			zap.String("source", src.Name()),
			zap.Int("sites", len(sites)),
		)
		s.won = src.Name()
		return sites, nil
	}
	return nil, ErrNoSupplyData
}

func splitCategories(raw string) []string {
	var out []string
	for _, c := range strings.Split(raw, ";") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, strings.ToLower(c))
		}
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
