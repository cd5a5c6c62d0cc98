package zone

import (
	"strings"

	"golang.org/x/text/cases"
)

// folder performs Unicode case folding so that feature names and tags match
// regardless of case or script-specific capitalization.
var folder = cases.Fold()

// classifierRule matches a zone type from folded name/tag text.
type classifierRule struct {
	zoneType Type
	keywords []string
	tags     map[string][]string
}

// classifierRules is the ordered predicate table. Earlier rules win; the
// priority is Airport > ProtectedArea > WaterBody > TransportationCorridor,
// with Other as the default.
var classifierRules = []classifierRule{
	{
		zoneType: TypeAirport,
		keywords: []string{"airport", "airfield", "aerodrome", "airstrip", "heliport"},
		tags: map[string][]string{
			"aeroway": {"aerodrome", "airport", "heliport"},
		},
	},
	{
		zoneType: TypeProtectedArea,
		keywords: []string{"national park", "nature reserve", "conservation", "protected", "sanctuary", "wilderness"},
		tags: map[string][]string{
			"boundary": {"national_park", "protected_area"},
			"leisure":  {"nature_reserve"},
		},
	},
	{
		zoneType: TypeWaterBody,
		keywords: []string{"lake", "river", "reservoir", "lagoon", "harbour", "harbor", "bay", "wetland"},
		tags: map[string][]string{
			"natural":  {"water", "wetland", "bay"},
			"water":    {"lake", "river", "reservoir", "lagoon"},
			"waterway": {"river", "riverbank", "canal"},
		},
	},
	{
		zoneType: TypeTransportationCorridor,
		keywords: []string{"railway", "rail corridor", "motorway", "highway", "freeway", "transit"},
		tags: map[string][]string{
			"railway": {"rail", "light_rail", "subway"},
			"highway": {"motorway", "trunk", "primary"},
		},
	},
}

// Classify determines the zone type for a feature from its name and tag map.
// Matching is case-folded and substring-based for names, exact for tag values.
func Classify(name string, tags map[string]string) Type {
	foldedName := folder.String(name)

	foldedTags := make(map[string]string, len(tags))
	for k, v := range tags {
		foldedTags[folder.String(k)] = folder.String(v)
	}

	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(foldedName, kw) {
				return rule.zoneType
			}
		}
		for tagKey, values := range rule.tags {
			got, ok := foldedTags[tagKey]
			if !ok {
				continue
			}
			for _, v := range values {
				if got == v {
					return rule.zoneType
				}
			}
		}
	}
	return TypeOther
}
