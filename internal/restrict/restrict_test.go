package restrict

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sitecheck/internal/geometry"
	"github.com/sells-group/sitecheck/internal/zone"
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

func testZone(id string, t zone.Type, lon, lat, d float64) zone.RestrictedZone {
	ring := squareRing(lon, lat, d)
	return zone.RestrictedZone{
		ID:           id,
		Name:         id,
		Type:         t,
		Ring:         ring,
		BufferMeters: zone.BufferDistance(t),
		BBox:         geometry.BBoxFromRing(ring),
		Source:       zone.SourceIngested,
	}
}

func TestEvaluate_InsideZoneBody(t *testing.T) {
	ev := NewEvaluator(geometry.NewApproxProvider())
	zones := []zone.RestrictedZone{
		testZone("zone-0000", zone.TypeProtectedArea, 151.2, -33.8, 0.05),
	}

	findings := ev.Evaluate(-33.8, 151.2, zones)
	require.Len(t, findings, 1)
	assert.Equal(t, "zone-0000", findings[0].ZoneID)
	assert.Equal(t, zone.TypeProtectedArea, findings[0].ZoneType)
	assert.Equal(t, SeverityInside, findings[0].Severity)
}

func TestEvaluate_WithinBufferOnly(t *testing.T) {
	ev := NewEvaluator(geometry.NewApproxProvider())
	// Protected area half-width 0.05 deg (~5.5 km); buffer 2000 m (~0.018 deg).
	zones := []zone.RestrictedZone{
		testZone("zone-0000", zone.TypeProtectedArea, 151.2, -33.8, 0.05),
	}

	// ~0.06 deg east of center: outside the body, inside the 2 km buffer.
	findings := ev.Evaluate(-33.8, 151.26, zones)
	require.Len(t, findings, 1)
	assert.Equal(t, SeverityBuffered, findings[0].Severity)
}

func TestEvaluate_ClearSite(t *testing.T) {
	ev := NewEvaluator(geometry.NewApproxProvider())
	zones := []zone.RestrictedZone{
		testZone("zone-0000", zone.TypeProtectedArea, 151.2, -33.8, 0.05),
	}

	findings := ev.Evaluate(-33.8, 152.5, zones)
	assert.Empty(t, findings)
}

func TestEvaluate_MultipleZonesInDatasetOrder(t *testing.T) {
	ev := NewEvaluator(geometry.NewApproxProvider())
	zones := []zone.RestrictedZone{
		testZone("zone-0000", zone.TypeWaterBody, 151.2, -33.8, 0.05),
		testZone("zone-0001", zone.TypeOther, 151.21, -33.81, 0.05),
		testZone("zone-0002", zone.TypeAirport, 153.0, -30.0, 0.01),
	}

	findings := ev.Evaluate(-33.8, 151.2, zones)
	require.Len(t, findings, 2)
	assert.Equal(t, "zone-0000", findings[0].ZoneID)
	assert.Equal(t, "zone-0001", findings[1].ZoneID)
}

func TestEvaluate_DeterministicAcrossCalls(t *testing.T) {
	ev := NewEvaluator(geometry.NewApproxProvider())
	zones := []zone.RestrictedZone{
		testZone("zone-0000", zone.TypeWaterBody, 151.2, -33.8, 0.05),
		testZone("zone-0001", zone.TypeAirport, 151.25, -33.8, 0.05),
	}

	first := ev.Evaluate(-33.8, 151.22, zones)
	second := ev.Evaluate(-33.8, 151.22, zones)
	assert.Equal(t, first, second)
}

// failingBuffer fails every buffer computation but delegates containment.
type failingBuffer struct {
	inner   geometry.Provider
	buffers int
}

func (f *failingBuffer) Buffer(ring geometry.Ring, meters float64) (geometry.Ring, error) {
	f.buffers++
	return nil, eris.New("synthetic buffer failure")
}

func (f *failingBuffer) PointInPolygon(lon, lat float64, ring geometry.Ring) bool {
	return f.inner.PointInPolygon(lon, lat, ring)
}

func TestEvaluate_BufferFailureDegradesToBodyOnly(t *testing.T) {
	fb := &failingBuffer{inner: geometry.NewApproxProvider()}
	ev := NewEvaluator(fb)
	zones := []zone.RestrictedZone{
		testZone("zone-0000", zone.TypeProtectedArea, 151.2, -33.8, 0.05),
	}

	// Inside the body still reports.
	findings := ev.Evaluate(-33.8, 151.2, zones)
	require.Len(t, findings, 1)
	assert.Equal(t, SeverityInside, findings[0].Severity)

	// A buffer-only position is silently clear.
	findings = ev.Evaluate(-33.8, 151.26, zones)
	assert.Empty(t, findings)

	// The failure is cached: only one buffer attempt.
	ev.Evaluate(-33.8, 151.26, zones)
	assert.Equal(t, 1, fb.buffers)
}

// countingProvider counts buffer computations to verify caching.
type countingProvider struct {
	inner   geometry.Provider
	buffers int
}

func (c *countingProvider) Buffer(ring geometry.Ring, meters float64) (geometry.Ring, error) {
	c.buffers++
	return c.inner.Buffer(ring, meters)
}

func (c *countingProvider) PointInPolygon(lon, lat float64, ring geometry.Ring) bool {
	return c.inner.PointInPolygon(lon, lat, ring)
}

func TestEvaluate_BufferRingCachedPerZone(t *testing.T) {
	cp := &countingProvider{inner: geometry.NewApproxProvider()}
	ev := NewEvaluator(cp)
	zones := []zone.RestrictedZone{
		testZone("zone-0000", zone.TypeProtectedArea, 151.2, -33.8, 0.05),
	}

	for i := 0; i < 5; i++ {
		ev.Evaluate(-33.8, 151.26, zones)
	}
	assert.Equal(t, 1, cp.buffers)

	ev.Reset()
	ev.Evaluate(-33.8, 151.26, zones)
	assert.Equal(t, 2, cp.buffers)
}

func TestEvaluate_ZeroBufferMatchesBodyOnly(t *testing.T) {
	ev := NewEvaluator(geometry.NewApproxProvider())
	z := testZone("zone-0000", zone.TypeWaterBody, 151.2, -33.8, 0.05)
	z.BufferMeters = 0
	zones := []zone.RestrictedZone{z}

	require.Len(t, ev.Evaluate(-33.8, 151.2, zones), 1)
	assert.Empty(t, ev.Evaluate(-33.8, 151.2505, zones))
}

func TestEvaluate_BBoxRejectSkipsContainment(t *testing.T) {
	calls := 0
	cp := &pipCounter{inner: geometry.NewApproxProvider(), calls: &calls}
	ev := NewEvaluator(cp)
	zones := []zone.RestrictedZone{
		testZone("zone-0000", zone.TypeWaterBody, 151.2, -33.8, 0.05),
	}

	// Far outside the buffered extent: no containment test should run.
	ev.Evaluate(10.0, 10.0, zones)
	assert.Equal(t, 0, calls)
}

type pipCounter struct {
	inner geometry.Provider
	calls *int
}

func (c *pipCounter) Buffer(ring geometry.Ring, meters float64) (geometry.Ring, error) {
	return c.inner.Buffer(ring, meters)
}

func (c *pipCounter) PointInPolygon(lon, lat float64, ring geometry.Ring) bool {
	*c.calls++
	return c.inner.PointInPolygon(lon, lat, ring)
}

func TestEvaluate_EmptyDataset(t *testing.T) {
	ev := NewEvaluator(geometry.NewApproxProvider())
	assert.Empty(t, ev.Evaluate(-33.8, 151.2, nil))
}
