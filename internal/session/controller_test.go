package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sitecheck/internal/geometry"
	"github.com/sells-group/sitecheck/internal/restrict"
	"github.com/sells-group/sitecheck/internal/supply"
	"github.com/sells-group/sitecheck/internal/zone"
	"github.com/sells-group/sitecheck/pkg/advisor"
	"github.com/sells-group/sitecheck/pkg/anthropic"
)

func squareRing(lon, lat, d float64) geometry.Ring {
	return geometry.Ring{
		{lon - d, lat - d},
		{lon + d, lat - d},
		{lon + d, lat + d},
		{lon - d, lat + d},
		{lon - d, lat - d},
	}
}

func testStores() (*zone.Store, *supply.Store) {
	zones := zone.NewStore()
	ring := squareRing(151.17, -33.95, 0.03)
	zones.Replace([]zone.RestrictedZone{{
		ID:           "zone-0000",
		Name:         "Sydney Airport",
		Type:         zone.TypeAirport,
		Ring:         ring,
		BufferMeters: zone.BufferDistance(zone.TypeAirport),
		BBox:         geometry.BBoxFromRing(ring),
		Source:       zone.SourceIngested,
	}}, zone.SourceIngested)

	supplies := supply.NewStore()
	supplies.Replace([]supply.Site{
		{ID: "s1", Name: "Northside Concrete", Categories: []string{"concrete"}, Lat: -33.94, Lon: 151.17},
		{ID: "s2", Name: "Far Quarry", Categories: []string{"aggregate"}, Lat: -30.0, Lon: 153.0},
	}, "test")

	return zones, supplies
}

func newTestController(opts ...ControllerOption) *Controller {
	zones, supplies := testStores()
	base := []ControllerOption{WithDebounce(20 * time.Millisecond)}
	return NewController(zones, supplies, geometry.NewApproxProvider(),
		supply.NewFinder(5, 50000), append(base, opts...)...)
}

func TestAnalyze_RestrictedSiteWithSupply(t *testing.T) {
	c := newTestController()
	defer c.Close()

	report, err := c.Analyze(context.Background(), -33.95, 151.17)
	require.NoError(t, err)

	require.Len(t, report.Findings, 1)
	assert.Equal(t, zone.TypeAirport, report.Findings[0].ZoneType)
	assert.Equal(t, restrict.SeverityInside, report.Findings[0].Severity)

	require.Len(t, report.Proximities, 1)
	assert.Equal(t, "Northside Concrete", report.Proximities[0].Site.Name)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, CacheKey(-33.95, 151.17), report.CacheKey)
	assert.NotEmpty(t, report.Recommendations)
	assert.Contains(t, report.Recommendations[len(report.Recommendations)-1], "aviation clearance")
}

func TestAnalyze_CacheHitIsIdentical(t *testing.T) {
	c := newTestController()
	defer c.Close()

	first, err := c.Analyze(context.Background(), -33.95, 151.17)
	require.NoError(t, err)

	second, err := c.Analyze(context.Background(), -33.95003, 151.17004)
	require.NoError(t, err)

	// Same quantized cell: the exact stored report comes back.
	assert.Same(t, first, second)

	stats := c.CacheStats()
	assert.Equal(t, int64(1), stats.Hits)
}

func TestAnalyze_InvalidCoordinates(t *testing.T) {
	c := newTestController()
	defer c.Close()

	_, err := c.Analyze(context.Background(), 95, 151.17)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}

func TestSelect_DebounceTrailing(t *testing.T) {
	var reports atomic.Int32
	var lastLat atomic.Value

	c := newTestController(WithOnReport(func(r *Report) {
		reports.Add(1)
		lastLat.Store(r.Site.Lat)
	}))
	defer c.Close()

	// Three rapid selections inside one debounce window.
	require.NoError(t, c.Select(-33.95, 151.17))
	require.NoError(t, c.Select(-33.90, 151.20))
	require.NoError(t, c.Select(-33.80, 151.25))

	assert.Eventually(t, func() bool { return reports.Load() == 1 }, time.Second, 5*time.Millisecond)

	// Only the trailing selection was evaluated.
	assert.Equal(t, -33.80, lastLat.Load().(float64))

	// No further reports arrive for the discarded selections.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), reports.Load())
}

func TestSelect_SeparatedSelectionsBothEvaluate(t *testing.T) {
	var reports atomic.Int32
	c := newTestController(WithOnReport(func(r *Report) { reports.Add(1) }))
	defer c.Close()

	require.NoError(t, c.Select(-33.95, 151.17))
	assert.Eventually(t, func() bool { return reports.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Select(-33.80, 151.25))
	assert.Eventually(t, func() bool { return reports.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestSelect_NeverEvaluatesInline(t *testing.T) {
	evaluated := make(chan struct{}, 1)
	c := newTestController(WithOnReport(func(r *Report) {
		evaluated <- struct{}{}
	}))
	defer c.Close()

	require.NoError(t, c.Select(-33.95, 151.17))

	// The selection call returns before any evaluation happens.
	select {
	case <-evaluated:
		t.Fatal("evaluation ran inline with the selection")
	default:
	}

	select {
	case <-evaluated:
	case <-time.After(time.Second):
		t.Fatal("evaluation never ran")
	}
}

func TestSelect_InvalidCoordinates(t *testing.T) {
	c := newTestController()
	defer c.Close()
	assert.ErrorIs(t, c.Select(-200, 0), ErrInvalidCoordinates)
}

// gatedClient blocks CreateMessage until released.
type gatedClient struct {
	release chan struct{}
	calls   atomic.Int32
}

func (g *gatedClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	g.calls.Add(1)
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{
		Type: "text",
		Text: `{"summary":"s","recommendation":"r","riskLevel":"low","confidence":0.9}`,
	}}}, nil
}

func TestEnrichment_Applied(t *testing.T) {
	gate := &gatedClient{release: make(chan struct{})}
	close(gate.release)

	enriched := make(chan *Report, 1)
	c := newTestController(
		WithAdvisor(advisor.New(gate)),
		WithOnEnrichment(func(r *Report) { enriched <- r }),
	)
	defer c.Close()

	require.NoError(t, c.Select(-33.95, 151.17))

	select {
	case r := <-enriched:
		require.NotNil(t, r.Enrichment)
		assert.Equal(t, "s", r.Enrichment.Summary)
	case <-time.After(2 * time.Second):
		t.Fatal("enrichment never arrived")
	}
}

func TestAnalyze_SchedulesEnrichment(t *testing.T) {
	gate := &gatedClient{release: make(chan struct{})}
	close(gate.release)

	enriched := make(chan *Report, 1)
	c := newTestController(
		WithAdvisor(advisor.New(gate)),
		WithOnEnrichment(func(r *Report) { enriched <- r }),
	)
	defer c.Close()

	// Direct analysis, no selection: the AI stage still runs.
	_, err := c.Analyze(context.Background(), -33.95, 151.17)
	require.NoError(t, err)

	select {
	case r := <-enriched:
		require.NotNil(t, r.Enrichment)
	case <-time.After(2 * time.Second):
		t.Fatal("enrichment never arrived")
	}

	// The enriched report serves subsequent hits on the same cell.
	again, err := c.Analyze(context.Background(), -33.95, 151.17)
	require.NoError(t, err)
	assert.NotNil(t, again.Enrichment)
}

func TestEnrichment_PublishedReportNotMutated(t *testing.T) {
	gate := &gatedClient{release: make(chan struct{})}

	enriched := make(chan *Report, 1)
	c := newTestController(
		WithAdvisor(advisor.New(gate)),
		WithOnEnrichment(func(r *Report) { enriched <- r }),
	)
	defer c.Close()

	base, err := c.Analyze(context.Background(), -33.95, 151.17)
	require.NoError(t, err)

	// Hammer cache hits on the published report while the AI call resolves.
	done := make(chan struct{})
	go func() {
		defer close(done)
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			r, err := c.Analyze(context.Background(), -33.95, 151.17)
			if err != nil || r.Enrichment != nil {
				return
			}
		}
	}()

	close(gate.release)
	r := <-enriched
	<-done

	assert.Nil(t, base.Enrichment)
	assert.NotSame(t, base, r)
	require.NotNil(t, r.Enrichment)
	assert.Equal(t, base.ID, r.ID)
}

func TestEnrichment_OneInFlightPerCell(t *testing.T) {
	gate := &gatedClient{release: make(chan struct{})}

	var enrichments atomic.Int32
	c := newTestController(
		WithAdvisor(advisor.New(gate)),
		WithOnEnrichment(func(r *Report) { enrichments.Add(1) }),
	)
	defer c.Close()

	for i := 0; i < 3; i++ {
		_, err := c.Analyze(context.Background(), -33.95, 151.17)
		require.NoError(t, err)
	}
	close(gate.release)

	assert.Eventually(t, func() bool { return enrichments.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), gate.calls.Load())
}

func TestEnrichment_StaleResultDiscarded(t *testing.T) {
	gate := &gatedClient{release: make(chan struct{})}

	var enrichments atomic.Int32
	reports := make(chan *Report, 2)
	c := newTestController(
		WithAdvisor(advisor.New(gate)),
		WithOnReport(func(r *Report) { reports <- r }),
		WithOnEnrichment(func(r *Report) { enrichments.Add(1) }),
	)
	defer c.Close()

	require.NoError(t, c.Select(-33.95, 151.17))
	first := <-reports

	// A newer selection supersedes the first enrichment before it resolves.
	require.NoError(t, c.Select(-33.80, 151.25))
	<-reports
	close(gate.release)

	assert.Eventually(t, func() bool { return enrichments.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Nil(t, first.Enrichment)
}

func TestClose_ClearsState(t *testing.T) {
	c := newTestController()

	_, err := c.Analyze(context.Background(), -33.95, 151.17)
	require.NoError(t, err)
	assert.Equal(t, 1, c.CacheStats().Entries)

	c.Close()
	assert.Zero(t, c.CacheStats().Entries)
	assert.Error(t, c.Select(-33.95, 151.17))
}

func TestResetDataset_DropsCache(t *testing.T) {
	c := newTestController()
	defer c.Close()

	first, err := c.Analyze(context.Background(), -33.95, 151.17)
	require.NoError(t, err)

	c.ResetDataset()

	second, err := c.Analyze(context.Background(), -33.95, 151.17)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}
