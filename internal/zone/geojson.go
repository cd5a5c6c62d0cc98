package zone

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// FeatureCollection is the wire form of a zone dataset.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single raw geographic feature. Properties carry the name plus
// arbitrary tags; Geometry coordinates stay raw until the type is known.
type Feature struct {
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

// Geometry holds the GeoJSON geometry type and its untyped coordinates.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Name returns the feature's name property, or "" if absent.
func (f Feature) Name() string {
	v, ok := f.Properties["name"]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// Tags returns the feature's properties as a string map, excluding the name.
// Non-string values are stringified.
func (f Feature) Tags() map[string]string {
	tags := make(map[string]string, len(f.Properties))
	for k, v := range f.Properties {
		if k == "name" {
			continue
		}
		switch val := v.(type) {
		case string:
			tags[k] = val
		case fmt.Stringer:
			tags[k] = val.String()
		default:
			tags[k] = fmt.Sprintf("%v", val)
		}
	}
	return tags
}

// DecodeFeatureCollection parses a GeoJSON feature collection from a reader.
func DecodeFeatureCollection(r io.Reader) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, eris.Wrap(err, "zone: decode feature collection")
	}
	return &fc, nil
}

// polygonCoords decodes Polygon coordinates: an array of rings.
func polygonCoords(raw json.RawMessage) ([][]geom.Coord, error) {
	var rings [][][]float64
	if err := json.Unmarshal(raw, &rings); err != nil {
		return nil, eris.Wrap(err, "zone: decode polygon coordinates")
	}
	return toCoordRings(rings), nil
}

// multiPolygonCoords decodes MultiPolygon coordinates: an array of polygons.
func multiPolygonCoords(raw json.RawMessage) ([][][]geom.Coord, error) {
	var polys [][][][]float64
	if err := json.Unmarshal(raw, &polys); err != nil {
		return nil, eris.Wrap(err, "zone: decode multipolygon coordinates")
	}
	out := make([][][]geom.Coord, 0, len(polys))
	for _, p := range polys {
		out = append(out, toCoordRings(p))
	}
	return out, nil
}

// pointCoords decodes Point coordinates: a lon/lat pair.
func pointCoords(raw json.RawMessage) (geom.Coord, error) {
	var pt []float64
	if err := json.Unmarshal(raw, &pt); err != nil {
		return nil, eris.Wrap(err, "zone: decode point coordinates")
	}
	if len(pt) < 2 {
		return nil, eris.Errorf("zone: point needs 2 coordinates, got %d", len(pt))
	}
	return geom.Coord{pt[0], pt[1]}, nil
}

// lineCoords decodes LineString coordinates: a sequence of lon/lat pairs.
func lineCoords(raw json.RawMessage) ([]geom.Coord, error) {
	var line [][]float64
	if err := json.Unmarshal(raw, &line); err != nil {
		return nil, eris.Wrap(err, "zone: decode linestring coordinates")
	}
	out := make([]geom.Coord, 0, len(line))
	for _, pt := range line {
		if len(pt) < 2 {
			return nil, eris.Errorf("zone: linestring vertex needs 2 coordinates, got %d", len(pt))
		}
		out = append(out, geom.Coord{pt[0], pt[1]})
	}
	return out, nil
}

func toCoordRings(rings [][][]float64) [][]geom.Coord {
	out := make([][]geom.Coord, 0, len(rings))
	for _, ring := range rings {
		coords := make([]geom.Coord, 0, len(ring))
		for _, pt := range ring {
			if len(pt) >= 2 {
				coords = append(coords, geom.Coord{pt[0], pt[1]})
			}
		}
		out = append(out, coords)
	}
	return out
}
