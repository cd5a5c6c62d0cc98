package main

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sells-group/sitecheck/internal/config"
	"github.com/sells-group/sitecheck/internal/db"
	"github.com/sells-group/sitecheck/internal/fetcher"
	"github.com/sells-group/sitecheck/internal/geometry"
	"github.com/sells-group/sitecheck/internal/session"
	"github.com/sells-group/sitecheck/internal/supply"
	"github.com/sells-group/sitecheck/internal/zone"
	"github.com/sells-group/sitecheck/pkg/advisor"
	"github.com/sells-group/sitecheck/pkg/anthropic"
)

// appEnv bundles the wired engine for one command invocation.
type appEnv struct {
	Zones      *zone.Store
	Supplies   *supply.Store
	Loader     *zone.Loader
	Controller *session.Controller

	pool *pgxpool.Pool
}

// Close releases the session and any database connections.
func (e *appEnv) Close() {
	if e.Controller != nil {
		e.Controller.Close()
	}
	if e.pool != nil {
		e.pool.Close()
	}
}

// initEngine builds the full pipeline from config: dataset cascade, supply
// cascade, evaluator, finder, and session controller.
func initEngine(ctx context.Context, withAI bool) (*appEnv, error) {
	env := &appEnv{
		Zones:    zone.NewStore(),
		Supplies: supply.NewStore(),
	}

	httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:    time.Duration(cfg.Dataset.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Dataset.MaxRetries,
	})
	ftpFetcher := fetcher.NewFTPFetcher(time.Duration(cfg.Dataset.TimeoutSecs) * time.Second)

	env.Loader = zone.NewLoader(
		zoneSources(cfg.Dataset, httpFetcher, ftpFetcher),
		zone.NewIngestor(zone.WithBatchSize(cfg.Dataset.BatchSize)),
	)
	if err := env.Loader.Load(ctx, env.Zones); err != nil {
		return nil, err
	}

	if err := loadSupplies(ctx, env, httpFetcher); err != nil {
		// A missing catalog degrades ranking, never analysis.
		zap.L().Warn("supply catalog unavailable, proximity ranking disabled", zap.Error(err))
	}

	opts := []session.ControllerOption{
		session.WithDebounce(time.Duration(cfg.Engine.DebounceMs) * time.Millisecond),
		session.WithCacheCapacity(cfg.Engine.CacheCapacity),
	}
	if withAI && cfg.Anthropic.Key != "" {
		opts = append(opts, session.WithAdvisor(advisor.New(
			anthropic.NewClient(cfg.Anthropic.Key),
			advisor.WithModel(cfg.Anthropic.Model),
			advisor.WithTimeout(time.Duration(cfg.Anthropic.TimeoutSecs)*time.Second),
		)))
	}

	env.Controller = session.NewController(
		env.Zones,
		env.Supplies,
		geometry.NewApproxProvider(),
		supply.NewFinder(cfg.Engine.MaxSupplyResults, cfg.Engine.MaxRadiusMeters),
		opts...,
	)

	return env, nil
}

// zoneSources maps configured dataset locations to source implementations.
func zoneSources(dc config.DatasetConfig, httpFetcher fetcher.Fetcher, ftpFetcher *fetcher.FTPFetcher) []zone.Source {
	var sources []zone.Source
	for _, loc := range dc.Sources {
		switch {
		case strings.HasPrefix(loc, "http://"), strings.HasPrefix(loc, "https://"):
			sources = append(sources, &zone.HTTPSource{URL: loc, Fetcher: httpFetcher})
		case strings.HasPrefix(loc, "ftp://"):
			sources = append(sources, &zone.FTPSource{URL: loc, Fetcher: ftpFetcher})
		case strings.HasSuffix(loc, ".shp"):
			sources = append(sources, &zone.ShapefileSource{Path: loc, NameField: dc.ShapefileNameField})
		default:
			sources = append(sources, &zone.FileSource{Path: loc})
		}
	}
	return sources
}

// loadSupplies resolves the material catalog through its own cascade and
// refreshes the local snapshot when a remote source won.
func loadSupplies(ctx context.Context, env *appEnv, httpFetcher fetcher.Fetcher) error {
	var sources []supply.Source

	if cfg.Supply.URL != "" {
		sources = append(sources, &supply.HTTPSource{URL: cfg.Supply.URL, Fetcher: httpFetcher})
	}
	if cfg.Supply.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.Supply.DatabaseURL)
		if err != nil {
			zap.L().Warn("supply database unreachable", zap.Error(err))
		} else {
			env.pool = pool
			sources = append(sources, &supply.PostgresSource{Pool: pool})
		}
	}
	if cfg.Supply.XLSXPath != "" {
		sources = append(sources, &supply.XLSXSource{Path: cfg.Supply.XLSXPath})
	}
	if cfg.Supply.SnapshotPath != "" {
		sources = append(sources, &supply.SQLiteSource{Path: cfg.Supply.SnapshotPath})
	}
	if len(sources) == 0 {
		return supply.ErrNoSupplyData
	}

	cascade := &supply.CascadeSource{Sources: sources}
	sites, err := cascade.Load(ctx)
	if err != nil {
		return err
	}

	kept := env.Supplies.Replace(sites, cascade.Name())
	zap.L().Info("supply catalog ready", zap.Int("sites", kept))

	snapshotPath := cfg.Supply.SnapshotPath
	if snapshotPath != "" {
		if err := supply.WriteSnapshot(ctx, snapshotPath, env.Supplies.Sites()); err != nil {
			zap.L().Warn("supply snapshot refresh failed", zap.Error(err))
		}
	}
	return nil
}
