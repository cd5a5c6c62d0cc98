package session

import (
	"github.com/google/uuid"

	"github.com/sells-group/sitecheck/internal/restrict"
	"github.com/sells-group/sitecheck/internal/supply"
	"github.com/sells-group/sitecheck/pkg/advisor"
)

// Selection is one candidate site chosen by the user.
type Selection struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

// Report is the full analysis result for one selection. A report is
// immutable once published; the AI stage replaces the cached report with an
// enriched copy rather than writing to this one.
type Report struct {
	ID              string              `json:"id"`
	Site            Selection           `json:"site"`
	Findings        []restrict.Finding  `json:"findings"`
	Proximities     []supply.Proximity  `json:"proximities"`
	Recommendations []string            `json:"recommendations"`
	CacheKey        string              `json:"cache_key"`
	Enrichment      *advisor.Enrichment `json:"enrichment,omitempty"`
}

func newReport(sel Selection, key string, findings []restrict.Finding, proximities []supply.Proximity, recommendations []string) *Report {
	return &Report{
		ID:              uuid.NewString(),
		Site:            sel,
		Findings:        findings,
		Proximities:     proximities,
		Recommendations: recommendations,
		CacheKey:        key,
	}
}
