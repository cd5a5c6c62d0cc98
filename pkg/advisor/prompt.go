package advisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

const systemPrompt = `You are a site suitability analyst for construction planning.
Given a candidate site, its zone restriction findings, and nearby material
sources, respond with a single JSON object and nothing else:
{
  "summary": "one-paragraph situation summary",
  "recommendation": "one actionable recommendation",
  "alternativeLocation": {"lat": 0, "lng": 0, "reason": "", "distanceMeters": 0},
  "riskLevel": "low|medium|high",
  "confidence": 0.0,
  "keyFactors": ["up to three strings"],
  "nextSteps": ["up to three strings"]
}
alternativeLocation is optional; omit it unless relocation is clearly better.`

// buildPrompt renders the user message for one selection.
func buildPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Candidate site: lat %.6f, lng %.6f\n\n", req.Lat, req.Lon)

	if len(req.Findings) == 0 {
		b.WriteString("Zone restrictions: none\n")
	} else {
		b.WriteString("Zone restrictions:\n")
		for _, f := range req.Findings {
			fmt.Fprintf(&b, "- %s (%s): %s\n", f.ZoneName, f.ZoneType, f.Severity)
		}
	}
	b.WriteString("\n")

	if len(req.Proximities) == 0 {
		b.WriteString("Material sources within search radius: none\n")
	} else {
		b.WriteString("Nearest material sources:\n")
		for i, p := range req.Proximities {
			if i >= maxProximities {
				break
			}
			fmt.Fprintf(&b, "- %s: %.0f m, ~%.0f min by road", p.Site.Name, p.DistanceMeters, p.TravelTimeMinutes)
			if len(p.Site.Categories) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(p.Site.Categories, ", "))
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	if len(req.Recommendations) > 0 {
		b.WriteString("Rule-based recommendations already issued:\n")
		for _, r := range req.Recommendations {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}

	return b.String()
}

// parseEnrichment decodes and validates the model response. Risk level must
// be one of the known values; confidence is clamped to [0,1]; factor and
// step lists are truncated to three entries.
func parseEnrichment(text string) (*Enrichment, error) {
	text = stripCodeFence(strings.TrimSpace(text))
	if text == "" {
		return nil, eris.New("advisor: empty model response")
	}

	var enr Enrichment
	if err := json.Unmarshal([]byte(text), &enr); err != nil {
		return nil, eris.Wrap(err, "advisor: decode model response")
	}

	if enr.Summary == "" || enr.Recommendation == "" {
		return nil, eris.New("advisor: response missing summary or recommendation")
	}

	switch enr.RiskLevel {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		return nil, eris.Errorf("advisor: invalid risk level %q", enr.RiskLevel)
	}

	if enr.Confidence < 0 {
		enr.Confidence = 0
	}
	if enr.Confidence > 1 {
		enr.Confidence = 1
	}

	if len(enr.KeyFactors) > 3 {
		enr.KeyFactors = enr.KeyFactors[:3]
	}
	if len(enr.NextSteps) > 3 {
		enr.NextSteps = enr.NextSteps[:3]
	}

	return &enr, nil
}

// stripCodeFence removes a surrounding markdown fence if the model added one.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
