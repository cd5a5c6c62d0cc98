package geometry

import (
	"math"

	"github.com/twpayne/go-geom"
)

// BBox is an axis-aligned lon/lat bounding box used for O(1) rejection
// before exact containment tests.
type BBox struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// BBoxFromRing computes the bounding box of a ring.
func BBoxFromRing(r Ring) BBox {
	return BBoxFromCoords(r)
}

// BBoxFromCoords computes the bounding box of a coordinate sequence.
// An empty sequence yields the zero box.
func BBoxFromCoords(coords []geom.Coord) BBox {
	if len(coords) == 0 {
		return BBox{}
	}
	b := BBox{
		MinLng: coords[0][0], MaxLng: coords[0][0],
		MinLat: coords[0][1], MaxLat: coords[0][1],
	}
	for _, c := range coords[1:] {
		if c[0] < b.MinLng {
			b.MinLng = c[0]
		}
		if c[0] > b.MaxLng {
			b.MaxLng = c[0]
		}
		if c[1] < b.MinLat {
			b.MinLat = c[1]
		}
		if c[1] > b.MaxLat {
			b.MaxLat = c[1]
		}
	}
	return b
}

// Contains reports whether the lon/lat point lies inside the box, inclusive.
func (b BBox) Contains(lon, lat float64) bool {
	return lon >= b.MinLng && lon <= b.MaxLng && lat >= b.MinLat && lat <= b.MaxLat
}

// Expanded returns the box grown by latDegrees on every side. Longitude
// growth is corrected for the box's mid-latitude.
func (b BBox) Expanded(latDegrees float64) BBox {
	lngDegrees := latDegrees
	midLat := (b.MinLat + b.MaxLat) / 2
	if c := math.Cos(midLat * math.Pi / 180); c > 0.01 {
		lngDegrees = latDegrees / c
	}
	return BBox{
		MinLng: b.MinLng - lngDegrees,
		MinLat: b.MinLat - latDegrees,
		MaxLng: b.MaxLng + lngDegrees,
		MaxLat: b.MaxLat + latDegrees,
	}
}
