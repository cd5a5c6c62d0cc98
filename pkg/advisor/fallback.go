package advisor

import (
	"fmt"

	"github.com/sells-group/sitecheck/internal/restrict"
	"github.com/sells-group/sitecheck/internal/supply"
	"github.com/sells-group/sitecheck/internal/zone"
)

// Fallback derives a deterministic enrichment from the base report inputs.
// It is structurally identical to a model response so consumers never branch
// on the enrichment's origin.
func Fallback(findings []restrict.Finding, proximities []supply.Proximity) *Enrichment {
	risk := fallbackRisk(findings, proximities)

	enr := &Enrichment{
		RiskLevel:  risk,
		Confidence: 0.5,
	}

	switch {
	case len(findings) > 0:
		enr.Summary = fmt.Sprintf("The site intersects %d restricted zone(s); regulatory constraints apply.", len(findings))
		enr.Recommendation = "Engage the relevant authorities before committing to this site."
		enr.KeyFactors = append(enr.KeyFactors, "zone restrictions present")
		enr.NextSteps = append(enr.NextSteps, "obtain required permits and assessments")
	default:
		enr.Summary = "The site is clear of known zone restrictions."
		enr.Recommendation = "Proceed with the standard approval process."
		enr.KeyFactors = append(enr.KeyFactors, "no zone restrictions detected")
		enr.NextSteps = append(enr.NextSteps, "begin standard planning application")
	}

	if len(proximities) > 0 {
		nearest := proximities[0]
		enr.KeyFactors = append(enr.KeyFactors,
			fmt.Sprintf("nearest material source %.1f km away", nearest.DistanceMeters/1000))
		enr.NextSteps = append(enr.NextSteps, "confirm supply availability with "+nearest.Site.Name)
	} else {
		enr.KeyFactors = append(enr.KeyFactors, "no material sources within search radius")
		enr.NextSteps = append(enr.NextSteps, "widen the supply search radius")
	}

	if len(enr.KeyFactors) > 3 {
		enr.KeyFactors = enr.KeyFactors[:3]
	}
	if len(enr.NextSteps) > 3 {
		enr.NextSteps = enr.NextSteps[:3]
	}

	return enr
}

// fallbackRisk grades risk from findings severity, then supply distance.
func fallbackRisk(findings []restrict.Finding, proximities []supply.Proximity) string {
	for _, f := range findings {
		if f.ZoneType == zone.TypeProtectedArea {
			return RiskHigh
		}
	}
	for _, f := range findings {
		if f.ZoneType == zone.TypeWaterBody {
			return RiskMedium
		}
	}

	if len(proximities) == 0 || proximities[0].DistanceMeters >= 5000 {
		return RiskMedium
	}
	return RiskLow
}
