package geometry

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// maxUsableLatitude bounds the small-angle longitude correction. Beyond it
// cos(lat) is too close to zero for the offset math to stay sane.
const maxUsableLatitude = 89.0

// ApproxProvider implements Provider with a per-vertex outward offset using
// the small-angle approximation:
//
//	dLat = meters / earthRadius * 180/pi
//	dLng = dLat / cos(lat)
//
// This is not true geodesic buffering; the error is acceptable for the
// safety-perimeter distances involved (hundreds of meters to a few km).
type ApproxProvider struct{}

// NewApproxProvider returns the default geometry provider.
func NewApproxProvider() *ApproxProvider {
	return &ApproxProvider{}
}

// Buffer offsets every vertex outward from the ring centroid by meters.
func (p *ApproxProvider) Buffer(ring Ring, meters float64) (Ring, error) {
	if meters < 0 {
		return nil, eris.Errorf("geometry: negative buffer distance %f", meters)
	}

	verts := distinctVertices(ring)
	if len(verts) < 3 {
		return nil, eris.Wrap(ErrDegenerateRing, "geometry: buffer")
	}

	cLon, cLat := vertexCentroid(verts)

	out := make(Ring, 0, len(verts)+1)
	for _, v := range verts {
		lon, lat := v[0], v[1]
		if math.Abs(lat) > maxUsableLatitude {
			return nil, eris.Errorf("geometry: buffer unusable at latitude %f", lat)
		}

		dx := lon - cLon
		dy := lat - cLat
		norm := math.Hypot(dx, dy)
		if norm == 0 {
			// Vertex coincides with the centroid; no outward direction.
			return nil, eris.Wrap(ErrDegenerateRing, "geometry: buffer centroid vertex")
		}

		dLat := MetersToLatDegrees(meters)
		dLng := dLat / math.Cos(lat*math.Pi/180)
		out = append(out, geom.Coord{
			lon + (dx/norm)*dLng,
			lat + (dy/norm)*dLat,
		})
	}

	out = out.Closed()
	if !out.Valid() {
		return nil, eris.Wrap(ErrDegenerateRing, "geometry: buffer result")
	}
	return out, nil
}

// PointInPolygon performs an exact planar containment test against the ring.
func (p *ApproxProvider) PointInPolygon(lon, lat float64, ring Ring) bool {
	if !ring.Valid() {
		return false
	}
	return xy.IsPointInRing(geom.XY, geom.Coord{lon, lat}, ring.FlatCoords())
}

// CirclePolygon synthesizes a closed n-sided polygon of the given metric
// radius around a lon/lat point. Used to give Point features an area.
func CirclePolygon(lon, lat, radiusMeters float64, segments int) (Ring, error) {
	if segments < 3 {
		return nil, eris.Errorf("geometry: circle needs at least 3 segments, got %d", segments)
	}
	if radiusMeters <= 0 {
		return nil, eris.Errorf("geometry: non-positive circle radius %f", radiusMeters)
	}
	if math.Abs(lat) > maxUsableLatitude {
		return nil, eris.Errorf("geometry: circle unusable at latitude %f", lat)
	}

	dLat := MetersToLatDegrees(radiusMeters)
	dLng := dLat / math.Cos(lat*math.Pi/180)

	out := make(Ring, 0, segments+1)
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		out = append(out, geom.Coord{
			lon + dLng*math.Cos(theta),
			lat + dLat*math.Sin(theta),
		})
	}
	return out.Closed(), nil
}

// LineCorridor buffers a polyline into a corridor polygon by offsetting each
// vertex perpendicular to the local direction on both sides.
func LineCorridor(line []geom.Coord, meters float64) (Ring, error) {
	if len(line) < 2 {
		return nil, eris.Errorf("geometry: corridor needs at least 2 vertices, got %d", len(line))
	}
	if meters <= 0 {
		return nil, eris.Errorf("geometry: non-positive corridor width %f", meters)
	}

	left := make([]geom.Coord, 0, len(line))
	right := make([]geom.Coord, 0, len(line))

	for i, v := range line {
		dir, ok := localDirection(line, i)
		if !ok {
			return nil, eris.Wrap(ErrDegenerateRing, "geometry: corridor zero-length segment")
		}

		lat := v[1]
		if math.Abs(lat) > maxUsableLatitude {
			return nil, eris.Errorf("geometry: corridor unusable at latitude %f", lat)
		}
		dLat := MetersToLatDegrees(meters)
		dLng := dLat / math.Cos(lat*math.Pi/180)

		// Perpendicular of (dx, dy) is (-dy, dx).
		nx, ny := -dir[1], dir[0]
		left = append(left, geom.Coord{v[0] + nx*dLng, v[1] + ny*dLat})
		right = append(right, geom.Coord{v[0] - nx*dLng, v[1] - ny*dLat})
	}

	out := make(Ring, 0, len(left)+len(right)+1)
	out = append(out, left...)
	for i := len(right) - 1; i >= 0; i-- {
		out = append(out, right[i])
	}
	out = out.Closed()
	if !out.Valid() {
		return nil, eris.Wrap(ErrDegenerateRing, "geometry: corridor result")
	}
	return out, nil
}

// LineEnvelope builds a rectangular envelope around a polyline expanded by
// meters. It is the documented fallback when true corridor construction
// fails; the shape distortion versus a real buffer is accepted.
func LineEnvelope(line []geom.Coord, meters float64) (Ring, error) {
	if len(line) < 2 {
		return nil, eris.Errorf("geometry: envelope needs at least 2 vertices, got %d", len(line))
	}

	bbox := BBoxFromCoords(line)
	midLat := (bbox.MinLat + bbox.MaxLat) / 2
	if math.Abs(midLat) > maxUsableLatitude {
		return nil, eris.Errorf("geometry: envelope unusable at latitude %f", midLat)
	}

	dLat := MetersToLatDegrees(meters)
	dLng := dLat / math.Cos(midLat*math.Pi/180)

	return Ring{
		{bbox.MinLng - dLng, bbox.MinLat - dLat},
		{bbox.MaxLng + dLng, bbox.MinLat - dLat},
		{bbox.MaxLng + dLng, bbox.MaxLat + dLat},
		{bbox.MinLng - dLng, bbox.MaxLat + dLat},
	}.Closed(), nil
}

// MetersToLatDegrees converts a metric distance to latitude degrees.
func MetersToLatDegrees(meters float64) float64 {
	return meters / EarthRadiusMeters * 180 / math.Pi
}

// distinctVertices strips the closing vertex and consecutive duplicates.
func distinctVertices(ring Ring) []geom.Coord {
	var out []geom.Coord
	for i, c := range ring {
		if i == len(ring)-1 && len(ring) > 1 {
			first := ring[0]
			if c[0] == first[0] && c[1] == first[1] {
				break
			}
		}
		if len(out) > 0 {
			prev := out[len(out)-1]
			if prev[0] == c[0] && prev[1] == c[1] {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// vertexCentroid averages the vertices. Good enough as an outward reference
// point for convex-ish zone rings.
func vertexCentroid(verts []geom.Coord) (lon, lat float64) {
	for _, v := range verts {
		lon += v[0]
		lat += v[1]
	}
	n := float64(len(verts))
	return lon / n, lat / n
}

// localDirection returns the normalized direction of the polyline at index i,
// averaging the adjacent segment directions for interior vertices.
func localDirection(line []geom.Coord, i int) (geom.Coord, bool) {
	var dx, dy float64
	if i > 0 {
		dx += line[i][0] - line[i-1][0]
		dy += line[i][1] - line[i-1][1]
	}
	if i < len(line)-1 {
		dx += line[i+1][0] - line[i][0]
		dy += line[i+1][1] - line[i][1]
	}
	norm := math.Hypot(dx, dy)
	if norm == 0 {
		return nil, false
	}
	return geom.Coord{dx / norm, dy / norm}, true
}
