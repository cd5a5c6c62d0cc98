package session

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/sitecheck/internal/geometry"
	"github.com/sells-group/sitecheck/internal/recommend"
	"github.com/sells-group/sitecheck/internal/restrict"
	"github.com/sells-group/sitecheck/internal/supply"
	"github.com/sells-group/sitecheck/internal/zone"
	"github.com/sells-group/sitecheck/pkg/advisor"
)

// DefaultDebounce is the trailing debounce window for rapid re-selections.
const DefaultDebounce = 500 * time.Millisecond

// ErrInvalidCoordinates rejects selections outside valid lat/lon ranges.
var ErrInvalidCoordinates = eris.New("session: invalid coordinates")

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithDebounce overrides the debounce window.
func WithDebounce(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithAdvisor enables asynchronous AI enrichment.
func WithAdvisor(adv *advisor.Advisor) ControllerOption {
	return func(c *Controller) { c.advisor = adv }
}

// WithCacheCapacity overrides the report cache capacity.
func WithCacheCapacity(n int) ControllerOption {
	return func(c *Controller) { c.cache = NewCache(n) }
}

// WithOnReport registers a callback invoked with each completed base report.
func WithOnReport(fn func(*Report)) ControllerOption {
	return func(c *Controller) { c.onReport = fn }
}

// WithOnEnrichment registers a callback invoked when an enrichment is
// applied to a report.
func WithOnEnrichment(fn func(*Report)) ControllerOption {
	return func(c *Controller) { c.onEnrichment = fn }
}

// Controller runs the analysis pipeline for one session. Selections are
// debounced with trailing semantics; evaluation happens on the debounce
// tick, never inline with the selection call.
type Controller struct {
	zones     *zone.Store
	supplies  *supply.Store
	evaluator *restrict.Evaluator
	finder    *supply.Finder
	cache     *Cache
	advisor   *advisor.Advisor

	debounce     time.Duration
	onReport     func(*Report)
	onEnrichment func(*Report)

	group singleflight.Group

	mu         sync.Mutex
	timer      *time.Timer
	pending    *Selection
	generation uint64
	enriching  map[string]struct{}
	closed     bool

	wg sync.WaitGroup
}

// NewController wires the stores, evaluator, and finder into a session.
func NewController(zones *zone.Store, supplies *supply.Store, geo geometry.Provider, finder *supply.Finder, opts ...ControllerOption) *Controller {
	c := &Controller{
		zones:     zones,
		supplies:  supplies,
		evaluator: restrict.NewEvaluator(geo),
		finder:    finder,
		cache:     NewCache(0),
		debounce:  DefaultDebounce,
		enriching: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Select registers a candidate site. Rapid re-selections inside the debounce
// window replace the pending one; only the last selection is evaluated. Each
// call supersedes any in-flight AI enrichment from an earlier selection.
func (c *Controller) Select(lat, lon float64) error {
	if !geometry.ValidCoordinate(lat, lon) {
		return ErrInvalidCoordinates
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return eris.New("session: controller closed")
	}

	c.generation++
	c.pending = &Selection{Lat: lat, Lon: lon}

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.fireTick)
	return nil
}

// fireTick evaluates the pending selection from the timer goroutine.
func (c *Controller) fireTick() {
	c.mu.Lock()
	if c.closed || c.pending == nil {
		c.mu.Unlock()
		return
	}
	sel := *c.pending
	c.pending = nil
	c.mu.Unlock()

	report, err := c.Analyze(context.Background(), sel.Lat, sel.Lon)
	if err != nil {
		zap.L().Error("session: evaluation failed",
			zap.Float64("lat", sel.Lat),
			zap.Float64("lng", sel.Lon),
			zap.Error(err),
		)
		return
	}

	if c.onReport != nil {
		c.onReport(report)
	}
}

// Analyze runs the synchronous pipeline for one selection: cache lookup,
// restriction evaluation, supply ranking, recommendation synthesis. A cache
// hit returns the stored report unchanged.
func (c *Controller) Analyze(ctx context.Context, lat, lon float64) (*Report, error) {
	if !geometry.ValidCoordinate(lat, lon) {
		return nil, ErrInvalidCoordinates
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "session: analyze cancelled")
	}

	key := CacheKey(lat, lon)

	// Concurrent selections of the same cell share one computation.
	report, err, _ := c.group.Do(key, func() (any, error) {
		if cached := c.cache.Get(key); cached != nil {
			return cached, nil
		}

		sel := Selection{Lat: lat, Lon: lon}
		findings := c.evaluator.Evaluate(lat, lon, c.zones.Zones())
		proximities := c.finder.Nearest(lat, lon, c.supplies.Sites())
		recommendations := recommend.Build(findings, proximities)

		r := newReport(sel, key, findings, proximities, recommendations)
		c.cache.Put(key, r)
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	base := report.(*Report)
	if c.advisor != nil && base.Enrichment == nil {
		c.scheduleEnrichment(base)
	}
	return base, nil
}

// scheduleEnrichment runs the AI stage in its own goroutine, at most once
// in flight per cell. The published base report is never mutated: the
// enrichment lands on a copy that replaces the cache entry, so concurrent
// readers of the base report race with nothing. A result arriving after a
// newer selection is discarded, never applied.
func (c *Controller) scheduleEnrichment(base *Report) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if _, busy := c.enriching[base.CacheKey]; busy {
		c.mu.Unlock()
		return
	}
	c.enriching[base.CacheKey] = struct{}{}
	gen := c.generation
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		enr, fromModel := c.advisor.Advise(context.Background(), advisor.Request{
			Lat:             base.Site.Lat,
			Lon:             base.Site.Lon,
			Findings:        base.Findings,
			Proximities:     base.Proximities,
			Recommendations: base.Recommendations,
		})

		c.mu.Lock()
		delete(c.enriching, base.CacheKey)
		stale := c.closed || gen != c.generation
		c.mu.Unlock()
		if stale {
			zap.L().Debug("session: discarding superseded enrichment",
				zap.String("report_id", base.ID),
			)
			return
		}

		enriched := *base
		enriched.Enrichment = enr
		c.cache.Put(enriched.CacheKey, &enriched)
		zap.L().Debug("session: enrichment applied",
			zap.String("report_id", base.ID),
			zap.Bool("from_model", fromModel),
		)
		if c.onEnrichment != nil {
			c.onEnrichment(&enriched)
		}
	}()
}

// CacheStats exposes report-cache statistics for diagnostics.
func (c *Controller) CacheStats() CacheStats {
	return c.cache.Stats()
}

// ResetDataset drops evaluator buffer caches and cached reports after a
// zone or supply reload.
func (c *Controller) ResetDataset() {
	c.evaluator.Reset()
	c.cache.Clear()
}

// Close tears the session down: pending selections are dropped, in-flight
// enrichments are discarded on arrival, and the cache is cleared.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.generation++
	c.pending = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	c.wg.Wait()
	c.cache.Clear()
}
