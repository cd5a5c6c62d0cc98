// Package recommend synthesizes deterministic, human-readable guidance from
// restriction findings and supply proximities. No I/O, no randomness: the
// same inputs always produce the same list.
package recommend

import (
	"fmt"

	"github.com/sells-group/sitecheck/internal/restrict"
	"github.com/sells-group/sitecheck/internal/supply"
	"github.com/sells-group/sitecheck/internal/zone"
)

// Nearest-distance tier thresholds in meters.
const (
	excellentDistance = 2000.0
	goodDistance      = 5000.0
)

// complianceAdvice maps each zone type to its fixed compliance requirement.
var complianceAdvice = map[zone.Type]string{
	zone.TypeProtectedArea:          "Protected area nearby: a wildlife impact assessment will be required.",
	zone.TypeWaterBody:              "Water body nearby: a flood risk assessment will be required.",
	zone.TypeAirport:                "Airport nearby: aviation clearance will be required for tall structures.",
	zone.TypeTransportationCorridor: "Transportation corridor nearby: a traffic management plan will be required.",
}

// Build produces the recommendation list for a base report.
func Build(findings []restrict.Finding, proximities []supply.Proximity) []string {
	var out []string

	if len(findings) > 0 {
		out = append(out, "Site intersects restricted zones: a detailed assessment and permits are required before proceeding.")
	} else {
		out = append(out, "No zone restrictions detected: the site qualifies for the standard approval process.")
	}

	if len(proximities) > 0 {
		nearest := proximities[0]
		switch {
		case nearest.DistanceMeters < excellentDistance:
			out = append(out, fmt.Sprintf("Excellent material access: %s is %.0f m away.",
				nearest.Site.Name, nearest.DistanceMeters))
		case nearest.DistanceMeters < goodDistance:
			out = append(out, fmt.Sprintf("Good material access: %s is %.1f km away.",
				nearest.Site.Name, nearest.DistanceMeters/1000))
		default:
			out = append(out, fmt.Sprintf("Nearest material source %s is %.1f km away: factor in transport cost.",
				nearest.Site.Name, nearest.DistanceMeters/1000))
		}
	} else {
		out = append(out, "No material sources within the search radius: expand the radius or plan long-haul supply.")
	}

	// One compliance line per distinct zone type, first-occurrence order.
	seen := make(map[zone.Type]bool)
	for _, f := range findings {
		if seen[f.ZoneType] {
			continue
		}
		seen[f.ZoneType] = true
		if advice, ok := complianceAdvice[f.ZoneType]; ok {
			out = append(out, advice)
		}
	}

	return out
}
