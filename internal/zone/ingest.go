package zone

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/sitecheck/internal/geometry"
)

const (
	// defaultBatchSize bounds how many features are processed before the
	// ingestor yields back to the scheduler.
	defaultBatchSize = 50

	// pointZoneRadiusMeters is the fixed radius of the polygon synthesized
	// for Point features.
	pointZoneRadiusMeters = 500

	// pointZoneSegments is the vertex count of synthesized point polygons.
	pointZoneSegments = 12

	// simplifyThreshold is the ring size above which vertices are thinned.
	simplifyThreshold = 50

	// simplifyStride keeps every Nth vertex when thinning oversized rings.
	simplifyStride = 3
)

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithBatchSize overrides the per-batch feature count.
func WithBatchSize(n int) IngestorOption {
	return func(ing *Ingestor) {
		if n > 0 {
			ing.batchSize = n
		}
	}
}

// WithOnBatch installs a callback invoked after each batch with the number
// of features processed so far.
func WithOnBatch(fn func(processed int)) IngestorOption {
	return func(ing *Ingestor) {
		ing.onBatch = fn
	}
}

// Ingestor normalizes raw features into RestrictedZone records.
type Ingestor struct {
	batchSize int
	onBatch   func(processed int)
	log       *zap.Logger
}

// NewIngestor creates an Ingestor with default batching.
func NewIngestor(opts ...IngestorOption) *Ingestor {
	ing := &Ingestor{
		batchSize: defaultBatchSize,
		log:       zap.L().With(zap.String("component", "zone.ingest")),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Ingest converts a feature collection into zones, preserving feature order.
// Features are processed in fixed-size batches with a cooperative yield
// between batches so a large dataset never monopolizes the scheduler.
// Individual malformed features are skipped, never fatal.
func (ing *Ingestor) Ingest(ctx context.Context, fc *FeatureCollection) ([]RestrictedZone, error) {
	if fc == nil {
		return nil, eris.New("zone: nil feature collection")
	}

	zones := make([]RestrictedZone, 0, len(fc.Features))

	for start := 0; start < len(fc.Features); start += ing.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "zone: ingest cancelled")
		}

		end := min(start+ing.batchSize, len(fc.Features))
		for i := start; i < end; i++ {
			z, ok := ing.ingestOne(i, fc.Features[i])
			if ok {
				zones = append(zones, z)
			}
		}

		if ing.onBatch != nil {
			ing.onBatch(end)
		}

		// Yield between batches so concurrent work can interleave.
		runtime.Gosched()
	}

	ing.log.Info("zone ingestion complete",
		zap.Int("features", len(fc.Features)),
		zap.Int("zones", len(zones)),
	)
	return zones, nil
}

// ingestOne normalizes a single feature. Any failure is logged and the
// feature skipped; a panic in geometry handling is contained the same way.
func (ing *Ingestor) ingestOne(index int, f Feature) (z RestrictedZone, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ing.log.Warn("zone: feature processing panicked, skipping",
				zap.Int("index", index),
				zap.Any("panic", r),
			)
			ok = false
		}
	}()

	name := f.Name()
	if name == "" {
		ing.log.Debug("zone: skipping nameless feature", zap.Int("index", index))
		return RestrictedZone{}, false
	}

	zoneType := Classify(name, f.Tags())
	bufferMeters := BufferDistance(zoneType)

	ring, err := normalizeGeometry(f.Geometry, bufferMeters)
	if err != nil {
		ing.log.Warn("zone: skipping feature with unusable geometry",
			zap.Int("index", index),
			zap.String("name", name),
			zap.String("geometry_type", f.Geometry.Type),
			zap.Error(err),
		)
		return RestrictedZone{}, false
	}

	return RestrictedZone{
		ID:           fmt.Sprintf("zone-%04d", index),
		Name:         name,
		Type:         zoneType,
		Ring:         ring,
		BufferMeters: bufferMeters,
		BBox:         geometry.BBoxFromRing(ring),
		Source:       SourceIngested,
	}, true
}

// normalizeGeometry turns any supported GeoJSON geometry into a closed body
// ring.
//
//   - Polygon: outer ring, thinned when oversized.
//   - MultiPolygon: first member only; additional members are dropped.
//   - Point: synthesized 12-sided polygon of fixed radius.
//   - LineString: corridor of the zone type's buffer width, falling back to
//     a rectangular envelope when corridor construction fails.
func normalizeGeometry(g Geometry, corridorMeters float64) (geometry.Ring, error) {
	switch g.Type {
	case "Polygon":
		rings, err := polygonCoords(g.Coordinates)
		if err != nil {
			return nil, err
		}
		if len(rings) == 0 {
			return nil, eris.New("zone: polygon has no rings")
		}
		return ringFromCoords(rings[0])

	case "MultiPolygon":
		polys, err := multiPolygonCoords(g.Coordinates)
		if err != nil {
			return nil, err
		}
		if len(polys) == 0 || len(polys[0]) == 0 {
			return nil, eris.New("zone: multipolygon has no rings")
		}
		return ringFromCoords(polys[0][0])

	case "Point":
		pt, err := pointCoords(g.Coordinates)
		if err != nil {
			return nil, err
		}
		return geometry.CirclePolygon(pt[0], pt[1], pointZoneRadiusMeters, pointZoneSegments)

	case "LineString":
		line, err := lineCoords(g.Coordinates)
		if err != nil {
			return nil, err
		}
		ring, err := geometry.LineCorridor(line, corridorMeters)
		if err == nil {
			return ring, nil
		}
		zap.L().Debug("zone: corridor construction failed, using envelope",
			zap.Error(err),
		)
		return geometry.LineEnvelope(line, corridorMeters)

	default:
		return nil, eris.Errorf("zone: unsupported geometry type %q", g.Type)
	}
}

// ringFromCoords closes and validates a ring, thinning oversized ones.
func ringFromCoords(coords []geom.Coord) (geometry.Ring, error) {
	ring := geometry.Ring(coords).Closed()
	if !ring.Valid() {
		return nil, eris.Wrap(geometry.ErrDegenerateRing, "zone: body ring")
	}
	if len(ring) > simplifyThreshold {
		ring = simplifyRing(ring)
	}
	return ring, nil
}

// simplifyRing keeps every simplifyStride-th vertex of an oversized ring.
func simplifyRing(ring geometry.Ring) geometry.Ring {
	body := ring[:len(ring)-1]
	out := make(geometry.Ring, 0, len(body)/simplifyStride+2)
	for i := 0; i < len(body); i += simplifyStride {
		out = append(out, body[i])
	}
	return out.Closed()
}
