// Package zone ingests raw geographic features into typed restricted-zone
// records and resolves the zone dataset from an ordered list of sources.
package zone

import (
	"sync"

	"github.com/sells-group/sitecheck/internal/geometry"
)

// Type classifies a restricted zone and determines its safety buffer.
type Type string

// Zone types in classification priority order.
const (
	TypeAirport                Type = "airport"
	TypeProtectedArea          Type = "protected_area"
	TypeWaterBody              Type = "water_body"
	TypeTransportationCorridor Type = "transportation_corridor"
	TypeOther                  Type = "other"
)

// bufferDistances is the fixed safety-buffer lookup by zone type, in meters.
var bufferDistances = map[Type]float64{
	TypeAirport:                3000,
	TypeProtectedArea:          2000,
	TypeWaterBody:              500,
	TypeTransportationCorridor: 200,
	TypeOther:                  1000,
}

// BufferDistance returns the fixed safety-buffer distance for a zone type.
func BufferDistance(t Type) float64 {
	if d, ok := bufferDistances[t]; ok {
		return d
	}
	return bufferDistances[TypeOther]
}

// Zone provenance values.
const (
	SourceIngested = "ingested"
	SourceFallback = "fallback"
)

// RestrictedZone is a regulated geographic area. Immutable once created.
type RestrictedZone struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Type         Type          `json:"type"`
	Ring         geometry.Ring `json:"ring"`
	BufferMeters float64       `json:"buffer_meters"`
	BBox         geometry.BBox `json:"bbox"`
	Source       string        `json:"source"`
}

// Store holds the current zone dataset. Zones are replaced wholesale on
// reload and read-only between reloads.
type Store struct {
	mu     sync.RWMutex
	zones  []RestrictedZone
	origin string
}

// NewStore creates an empty zone store.
func NewStore() *Store {
	return &Store{}
}

// Replace swaps in a new zone dataset. The caller must not mutate the slice
// after handing it over.
func (s *Store) Replace(zones []RestrictedZone, origin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones = zones
	s.origin = origin
}

// Zones returns the current dataset in ingestion order. The returned slice
// is shared and must be treated as read-only.
func (s *Store) Zones() []RestrictedZone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zones
}

// Origin returns the name of the source that produced the current dataset.
func (s *Store) Origin() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.origin
}

// CountByType tallies zones per type for diagnostics.
func (s *Store) CountByType() map[Type]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[Type]int)
	for _, z := range s.zones {
		counts[z.Type]++
	}
	return counts
}
