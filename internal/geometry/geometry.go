// Package geometry provides the planar-approximation spatial primitives used
// by zone ingestion and restriction evaluation: ring buffering, containment,
// bounding boxes, and great-circle distance.
package geometry

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// EarthRadiusMeters is the mean Earth radius used for all metric conversions.
const EarthRadiusMeters = 6371000.0

// ErrDegenerateRing is returned when an operation receives a ring with too
// few distinct vertices to describe an area.
var ErrDegenerateRing = eris.New("geometry: degenerate ring")

// Ring is a closed sequence of lon/lat vertices. The first and last vertex
// must be equal for a valid ring.
type Ring []geom.Coord

// NewRing builds a Ring from lon/lat pairs, closing it if the input is open.
func NewRing(coords [][2]float64) Ring {
	r := make(Ring, 0, len(coords)+1)
	for _, c := range coords {
		r = append(r, geom.Coord{c[0], c[1]})
	}
	return r.Closed()
}

// Closed returns the ring with its closing vertex appended if missing.
func (r Ring) Closed() Ring {
	if len(r) < 3 {
		return r
	}
	first, last := r[0], r[len(r)-1]
	if first[0] == last[0] && first[1] == last[1] {
		return r
	}
	return append(r, geom.Coord{first[0], first[1]})
}

// Valid reports whether the ring is closed and has at least 3 distinct vertices.
func (r Ring) Valid() bool {
	if len(r) < 4 {
		return false
	}
	first, last := r[0], r[len(r)-1]
	return first[0] == last[0] && first[1] == last[1]
}

// FlatCoords returns the ring as a flat lon/lat coordinate slice.
func (r Ring) FlatCoords() []float64 {
	flat := make([]float64, 0, len(r)*2)
	for _, c := range r {
		flat = append(flat, c[0], c[1])
	}
	return flat
}

// Clone returns a deep copy of the ring.
func (r Ring) Clone() Ring {
	out := make(Ring, len(r))
	for i, c := range r {
		out[i] = geom.Coord{c[0], c[1]}
	}
	return out
}

// Polygon converts the ring to a go-geom Polygon with SRID 4326.
func (r Ring) Polygon() (*geom.Polygon, error) {
	if !r.Valid() {
		return nil, eris.Wrap(ErrDegenerateRing, "geometry: ring to polygon")
	}
	lr := geom.NewLinearRingFlat(geom.XY, r.FlatCoords())
	poly := geom.NewPolygon(geom.XY).SetSRID(4326)
	if err := poly.Push(lr); err != nil {
		return nil, eris.Wrap(err, "geometry: push ring")
	}
	return poly, nil
}

// Provider is the capability interface for the geometry operations the
// evaluator depends on. Any conformant implementation satisfies the contract.
type Provider interface {
	// Buffer returns a closed ring whose boundary lies at least meters
	// outward from the input ring. It fails explicitly on degenerate input
	// rather than returning an empty ring.
	Buffer(ring Ring, meters float64) (Ring, error)

	// PointInPolygon reports whether the lon/lat point lies inside the ring.
	PointInPolygon(lon, lat float64, ring Ring) bool
}
