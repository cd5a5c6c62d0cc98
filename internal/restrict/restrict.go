// Package restrict evaluates a candidate site against the restricted-zone
// dataset, reporting whether the site sits inside a zone body or inside its
// safety buffer.
package restrict

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/sitecheck/internal/geometry"
	"github.com/sells-group/sitecheck/internal/zone"
)

// Severity grades a restriction hit.
type Severity string

const (
	// SeverityInside means the site is within the zone body itself.
	SeverityInside Severity = "inside"
	// SeverityBuffered means the site is outside the body but within the
	// zone's safety buffer.
	SeverityBuffered Severity = "buffered"
)

// Finding is a single restriction hit against one zone.
type Finding struct {
	ZoneID   string    `json:"zone_id"`
	ZoneName string    `json:"zone_name"`
	ZoneType zone.Type `json:"zone_type"`
	Severity Severity  `json:"severity"`
}

// Evaluator checks sites against zones. Buffered rings are computed lazily
// and cached per zone ID, so repeated evaluations over a stable dataset pay
// the buffer cost once.
type Evaluator struct {
	geo geometry.Provider

	mu      sync.Mutex
	buffers map[string]geometry.Ring
	failed  map[string]bool
}

// NewEvaluator creates an Evaluator using the given geometry provider.
func NewEvaluator(geo geometry.Provider) *Evaluator {
	return &Evaluator{
		geo:     geo,
		buffers: make(map[string]geometry.Ring),
		failed:  make(map[string]bool),
	}
}

// Reset drops cached buffer rings. Call after the zone dataset is replaced.
func (e *Evaluator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buffers = make(map[string]geometry.Ring)
	e.failed = make(map[string]bool)
}

// Evaluate returns one Finding per violated zone, in dataset order.
// A site inside a zone body reports SeverityInside; a site only within the
// buffer reports SeverityBuffered. Zones whose buffer cannot be computed
// degrade to body-only checks.
func (e *Evaluator) Evaluate(lat, lon float64, zones []zone.RestrictedZone) []Finding {
	var findings []Finding
	for _, z := range zones {
		f, ok := e.evaluateZone(lat, lon, z)
		if ok {
			findings = append(findings, f)
		}
	}
	return findings
}

func (e *Evaluator) evaluateZone(lat, lon float64, z zone.RestrictedZone) (Finding, bool) {
	// Cheap extent check first. The buffered extent is the body bbox grown
	// by the buffer distance, so a miss here rules out both severities.
	margin := geometry.MetersToLatDegrees(z.BufferMeters)
	if !z.BBox.Expanded(margin).Contains(lon, lat) {
		return Finding{}, false
	}

	if e.geo.PointInPolygon(lon, lat, z.Ring) {
		return Finding{
			ZoneID:   z.ID,
			ZoneName: z.Name,
			ZoneType: z.Type,
			Severity: SeverityInside,
		}, true
	}

	buffered, ok := e.bufferedRing(z)
	if !ok {
		return Finding{}, false
	}

	if e.geo.PointInPolygon(lon, lat, buffered) {
		return Finding{
			ZoneID:   z.ID,
			ZoneName: z.Name,
			ZoneType: z.Type,
			Severity: SeverityBuffered,
		}, true
	}

	return Finding{}, false
}

// bufferedRing returns the cached buffer ring for a zone, computing it on
// first use. A zone whose buffer computation failed is remembered and
// checked body-only from then on.
func (e *Evaluator) bufferedRing(z zone.RestrictedZone) (geometry.Ring, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ring, ok := e.buffers[z.ID]; ok {
		return ring, true
	}
	if e.failed[z.ID] {
		return nil, false
	}

	ring, err := e.geo.Buffer(z.Ring, z.BufferMeters)
	if err != nil {
		e.failed[z.ID] = true
		zap.L().Warn("restrict: buffer computation failed, zone degraded to body-only",
			zap.String("zone_id", z.ID),
			zap.String("zone_type", string(z.Type)),
			zap.Error(err),
		)
		return nil, false
	}

	e.buffers[z.ID] = ring
	return ring, true
}
