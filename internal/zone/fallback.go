package zone

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/sitecheck/internal/geometry"
)

//go:embed fallback_zones.yaml
var fallbackZonesYAML []byte

// fallbackDocument is the YAML schema of the embedded fallback dataset.
type fallbackDocument struct {
	Zones []fallbackZone `yaml:"zones"`
}

type fallbackZone struct {
	ID   string       `yaml:"id"`
	Name string       `yaml:"name"`
	Type string       `yaml:"type"`
	Ring [][2]float64 `yaml:"ring"`
}

// FallbackZones returns the built-in zone list used when every configured
// dataset source fails. The engine is never left with zero zones unless the
// embedded document itself is unusable.
func FallbackZones() ([]RestrictedZone, error) {
	var doc fallbackDocument
	if err := yaml.Unmarshal(fallbackZonesYAML, &doc); err != nil {
		return nil, eris.Wrap(err, "zone: decode fallback dataset")
	}
	if len(doc.Zones) == 0 {
		return nil, eris.New("zone: fallback dataset is empty")
	}

	zones := make([]RestrictedZone, 0, len(doc.Zones))
	for _, fz := range doc.Zones {
		ring := geometry.NewRing(fz.Ring)
		if !ring.Valid() {
			return nil, eris.Errorf("zone: fallback zone %q has invalid ring", fz.ID)
		}
		t := Type(fz.Type)
		zones = append(zones, RestrictedZone{
			ID:           fz.ID,
			Name:         fz.Name,
			Type:         t,
			Ring:         ring,
			BufferMeters: BufferDistance(t),
			BBox:         geometry.BBoxFromRing(ring),
			Source:       SourceFallback,
		})
	}
	return zones, nil
}
