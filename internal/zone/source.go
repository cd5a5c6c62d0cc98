package zone

import (
	"context"
	"encoding/json"
	"os"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sitecheck/internal/fetcher"
)

// ErrNoZoneData is the only unrecoverable dataset state: every configured
// source failed and the built-in fallback is unavailable.
var ErrNoZoneData = eris.New("zone: no restriction data available")

// Source supplies a raw feature collection from one dataset location.
type Source interface {
	Name() string
	Load(ctx context.Context) (*FeatureCollection, error)
}

// FileSource reads a GeoJSON feature collection from a local path.
type FileSource struct {
	Path string
}

// Name implements Source.
func (s *FileSource) Name() string { return "file:" + s.Path }

// Load implements Source.
func (s *FileSource) Load(ctx context.Context) (*FeatureCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "zone: file source cancelled")
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "zone: open dataset %s", s.Path)
	}
	defer f.Close() //nolint:errcheck

	return DecodeFeatureCollection(f)
}

// HTTPSource fetches a GeoJSON feature collection over HTTP(S).
type HTTPSource struct {
	URL     string
	Fetcher fetcher.Fetcher
}

// Name implements Source.
func (s *HTTPSource) Name() string { return s.URL }

// Load implements Source.
func (s *HTTPSource) Load(ctx context.Context) (*FeatureCollection, error) {
	body, err := s.Fetcher.Download(ctx, s.URL)
	if err != nil {
		return nil, eris.Wrapf(err, "zone: fetch dataset %s", s.URL)
	}
	defer body.Close() //nolint:errcheck

	return DecodeFeatureCollection(body)
}

// FTPSource fetches a GeoJSON feature collection from an ftp:// URL.
// Government GIS drops are still commonly published this way.
type FTPSource struct {
	URL     string
	Fetcher *fetcher.FTPFetcher
}

// Name implements Source.
func (s *FTPSource) Name() string { return s.URL }

// Load implements Source.
func (s *FTPSource) Load(ctx context.Context) (*FeatureCollection, error) {
	body, err := s.Fetcher.Download(ctx, s.URL)
	if err != nil {
		return nil, eris.Wrapf(err, "zone: fetch dataset %s", s.URL)
	}
	defer body.Close() //nolint:errcheck

	return DecodeFeatureCollection(body)
}

// ShapefileSource reads zone features from a local ESRI shapefile.
type ShapefileSource struct {
	Path string

	// NameField is the attribute carrying the feature name. Default "NAME".
	NameField string
}

// Name implements Source.
func (s *ShapefileSource) Name() string { return "shp:" + s.Path }

// Load implements Source. Polygon shapes become Polygon features; other
// shape types are skipped.
func (s *ShapefileSource) Load(ctx context.Context) (*FeatureCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "zone: shapefile source cancelled")
	}

	reader, err := shp.Open(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "zone: open shapefile %s", s.Path)
	}
	defer func() { _ = reader.Close() }()

	nameField := s.NameField
	if nameField == "" {
		nameField = "NAME"
	}

	fields := reader.Fields()
	fc := &FeatureCollection{Type: "FeatureCollection"}

	for reader.Next() {
		n, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly.NumParts == 0 || len(poly.Points) == 0 {
			continue
		}

		props := make(map[string]any, len(fields))
		for i, f := range fields {
			key := trimmedFieldName(f)
			val := reader.Attribute(i)
			if key == nameField {
				props["name"] = val
			} else {
				props[key] = val
			}
		}

		coords, err := shpPolygonOuterRing(poly)
		if err != nil {
			zap.L().Debug("zone: skipping malformed shapefile record",
				zap.Int("record", n),
				zap.Error(err),
			)
			continue
		}

		fc.Features = append(fc.Features, Feature{
			Properties: props,
			Geometry:   Geometry{Type: "Polygon", Coordinates: coords},
		})
	}

	return fc, nil
}

// shpPolygonOuterRing encodes the first part of a shapefile polygon as
// GeoJSON Polygon coordinates.
func shpPolygonOuterRing(p *shp.Polygon) (json.RawMessage, error) {
	end := int32(len(p.Points))
	if p.NumParts > 1 {
		end = p.Parts[1]
	}
	if end-p.Parts[0] < 3 {
		return nil, eris.New("zone: shapefile ring too small")
	}

	ring := make([][]float64, 0, end-p.Parts[0])
	for i := p.Parts[0]; i < end; i++ {
		ring = append(ring, []float64{p.Points[i].X, p.Points[i].Y})
	}

	raw, err := json.Marshal([][][]float64{ring})
	if err != nil {
		return nil, eris.Wrap(err, "zone: encode shapefile ring")
	}
	return raw, nil
}

func trimmedFieldName(f shp.Field) string {
	name := f.String()
	for i := 0; i < len(name); i++ {
		if name[i] == 0 {
			return name[:i]
		}
	}
	return name
}
