package zone

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func polygonFeature(name string, ring [][]float64) Feature {
	raw, _ := json.Marshal([][][]float64{ring})
	return Feature{
		Properties: map[string]any{"name": name},
		Geometry:   Geometry{Type: "Polygon", Coordinates: raw},
	}
}

func squareRingCoords(lon, lat, d float64) [][]float64 {
	return [][]float64{
		{lon - d, lat - d},
		{lon + d, lat - d},
		{lon + d, lat + d},
		{lon - d, lat + d},
		{lon - d, lat - d},
	}
}

func TestIngest_Polygon(t *testing.T) {
	ing := NewIngestor()
	fc := &FeatureCollection{Features: []Feature{
		polygonFeature("Sydney Airport", squareRingCoords(151.17, -33.95, 0.02)),
	}}

	zones, err := ing.Ingest(context.Background(), fc)
	require.NoError(t, err)
	require.Len(t, zones, 1)

	z := zones[0]
	assert.Equal(t, "zone-0000", z.ID)
	assert.Equal(t, "Sydney Airport", z.Name)
	assert.Equal(t, TypeAirport, z.Type)
	assert.Equal(t, 3000.0, z.BufferMeters)
	assert.Equal(t, SourceIngested, z.Source)
	assert.True(t, z.Ring.Valid())

	// Bounding box matches the ring.
	assert.InDelta(t, 151.15, z.BBox.MinLng, 1e-9)
	assert.InDelta(t, 151.19, z.BBox.MaxLng, 1e-9)
}

func TestIngest_SkipsNamelessAndMalformed(t *testing.T) {
	ing := NewIngestor()
	fc := &FeatureCollection{Features: []Feature{
		{Properties: map[string]any{}, Geometry: Geometry{Type: "Polygon"}},
		polygonFeature("Broken", nil),
		{
			Properties: map[string]any{"name": "Bad JSON"},
			Geometry:   Geometry{Type: "Polygon", Coordinates: json.RawMessage(`{notjson`)},
		},
		polygonFeature("Good Reservoir", squareRingCoords(150.5, -33.5, 0.01)),
	}}

	zones, err := ing.Ingest(context.Background(), fc)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "Good Reservoir", zones[0].Name)
	assert.Equal(t, TypeWaterBody, zones[0].Type)
}

func TestIngest_PointSynthesizesPolygon(t *testing.T) {
	ing := NewIngestor()
	raw, _ := json.Marshal([]float64{151.2, -33.8})
	fc := &FeatureCollection{Features: []Feature{{
		Properties: map[string]any{"name": "Heliport Pad"},
		Geometry:   Geometry{Type: "Point", Coordinates: raw},
	}}}

	zones, err := ing.Ingest(context.Background(), fc)
	require.NoError(t, err)
	require.Len(t, zones, 1)

	z := zones[0]
	assert.Equal(t, TypeAirport, z.Type)
	assert.Len(t, z.Ring, pointZoneSegments+1)
	assert.True(t, z.BBox.Contains(151.2, -33.8))
}

func TestIngest_MultiPolygonUsesFirstMember(t *testing.T) {
	ing := NewIngestor()
	first := squareRingCoords(151.0, -33.0, 0.01)
	second := squareRingCoords(152.0, -34.0, 0.01)
	raw, _ := json.Marshal([][][][]float64{{first}, {second}})
	fc := &FeatureCollection{Features: []Feature{{
		Properties: map[string]any{"name": "Wetland Complex"},
		Geometry:   Geometry{Type: "MultiPolygon", Coordinates: raw},
	}}}

	zones, err := ing.Ingest(context.Background(), fc)
	require.NoError(t, err)
	require.Len(t, zones, 1)

	// Only the first member's extent is covered.
	assert.True(t, zones[0].BBox.Contains(151.0, -33.0))
	assert.False(t, zones[0].BBox.Contains(152.0, -34.0))
}

func TestIngest_LineStringBecomesCorridor(t *testing.T) {
	ing := NewIngestor()
	raw, _ := json.Marshal([][]float64{{151.0, -33.8}, {151.1, -33.8}})
	fc := &FeatureCollection{Features: []Feature{{
		Properties: map[string]any{"name": "Western Motorway"},
		Geometry:   Geometry{Type: "LineString", Coordinates: raw},
	}}}

	zones, err := ing.Ingest(context.Background(), fc)
	require.NoError(t, err)
	require.Len(t, zones, 1)

	z := zones[0]
	assert.Equal(t, TypeTransportationCorridor, z.Type)
	assert.True(t, z.Ring.Valid())
	assert.True(t, z.BBox.Contains(151.05, -33.8))
}

func TestIngest_SimplifiesOversizedRings(t *testing.T) {
	ing := NewIngestor()

	// Build a 120-vertex ring around a circle.
	ring := make([][]float64, 0, 121)
	for i := 0; i < 120; i++ {
		theta := 2 * math.Pi * float64(i) / 120
		ring = append(ring, []float64{151.2 + 0.05*math.Cos(theta), -33.8 + 0.05*math.Sin(theta)})
	}
	ring = append(ring, ring[0])

	fc := &FeatureCollection{Features: []Feature{polygonFeature("Big Reservoir", ring)}}

	zones, err := ing.Ingest(context.Background(), fc)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.LessOrEqual(t, len(zones[0].Ring), 120/simplifyStride+2)
}

func TestIngest_BatchesAndYields(t *testing.T) {
	var batches []int
	ing := NewIngestor(WithBatchSize(10), WithOnBatch(func(processed int) {
		batches = append(batches, processed)
	}))

	fc := &FeatureCollection{}
	for i := 0; i < 25; i++ {
		fc.Features = append(fc.Features,
			polygonFeature(fmt.Sprintf("Zone %d", i), squareRingCoords(150+float64(i)*0.1, -33, 0.01)))
	}

	zones, err := ing.Ingest(context.Background(), fc)
	require.NoError(t, err)
	assert.Len(t, zones, 25)
	assert.Equal(t, []int{10, 20, 25}, batches)
}

func TestIngest_Cancelled(t *testing.T) {
	ing := NewIngestor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fc := &FeatureCollection{Features: []Feature{
		polygonFeature("Any", squareRingCoords(151, -33, 0.01)),
	}}
	_, err := ing.Ingest(ctx, fc)
	assert.Error(t, err)
}

func TestIngest_NilCollection(t *testing.T) {
	ing := NewIngestor()
	_, err := ing.Ingest(context.Background(), nil)
	assert.Error(t, err)
}

func TestIngest_PreservesFeatureOrder(t *testing.T) {
	ing := NewIngestor()
	fc := &FeatureCollection{Features: []Feature{
		polygonFeature("First Lake", squareRingCoords(150, -33, 0.01)),
		polygonFeature("Second Airport", squareRingCoords(151, -33, 0.01)),
		polygonFeature("Third Park Conservation", squareRingCoords(152, -33, 0.01)),
	}}

	zones, err := ing.Ingest(context.Background(), fc)
	require.NoError(t, err)
	require.Len(t, zones, 3)
	assert.Equal(t, "First Lake", zones[0].Name)
	assert.Equal(t, "Second Airport", zones[1].Name)
	assert.Equal(t, "Third Park Conservation", zones[2].Name)
}
