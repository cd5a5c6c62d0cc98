// Package advisor produces an optional AI enrichment for a base analysis
// report. The enrichment is additive: callers always get a structurally
// complete result, from the model when possible and from the deterministic
// fallback otherwise.
package advisor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/sitecheck/internal/resilience"
	"github.com/sells-group/sitecheck/internal/restrict"
	"github.com/sells-group/sitecheck/internal/supply"
	"github.com/sells-group/sitecheck/pkg/anthropic"
)

// Risk levels the enrichment may carry.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

const (
	defaultModel     = "claude-haiku-4-5-20251001"
	defaultMaxTokens = 1024
	defaultTimeout   = 20 * time.Second

	// maxProximities bounds how many ranked supply sites go into the prompt.
	maxProximities = 3
)

// AlternativeLocation is an optional model-suggested relocation.
type AlternativeLocation struct {
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	Reason         string  `json:"reason"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// Enrichment is the additive AI layer on top of a base report.
type Enrichment struct {
	Summary             string               `json:"summary"`
	Recommendation      string               `json:"recommendation"`
	AlternativeLocation *AlternativeLocation `json:"alternativeLocation,omitempty"`
	RiskLevel           string               `json:"riskLevel"`
	Confidence          float64              `json:"confidence"`
	KeyFactors          []string             `json:"keyFactors"`
	NextSteps           []string             `json:"nextSteps"`
}

// Request carries everything the advisor needs about one selection.
type Request struct {
	Lat             float64
	Lon             float64
	Findings        []restrict.Finding
	Proximities     []supply.Proximity
	Recommendations []string
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithModel overrides the model ID.
func WithModel(model string) Option {
	return func(a *Advisor) { a.model = model }
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Advisor) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// Advisor calls the model with retry and a circuit breaker, falling back to
// the deterministic enrichment on any failure.
type Advisor struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
}

// New creates an Advisor around an Anthropic client.
func New(client anthropic.Client, opts ...Option) *Advisor {
	a := &Advisor{
		client:  client,
		model:   defaultModel,
		timeout: defaultTimeout,
		breaker: resilience.NewBreaker("advisor", 3, time.Minute),
		retry: resilience.RetryConfig{
			MaxAttempts:    2,
			InitialBackoff: time.Second,
			OnRetry:        resilience.RetryLogger("anthropic", "create_message"),
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Advise returns an enrichment for the request. The second return reports
// whether the enrichment came from the model; false means the deterministic
// fallback was used.
func (a *Advisor) Advise(ctx context.Context, req Request) (*Enrichment, bool) {
	if a.client == nil {
		return Fallback(req.Findings, req.Proximities), false
	}
	if !a.breaker.Allow() {
		zap.L().Debug("advisor: circuit open, using fallback")
		return Fallback(req.Findings, req.Proximities), false
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	enr, err := resilience.DoVal(callCtx, a.retry, func(ctx context.Context) (*Enrichment, error) {
		return a.callModel(ctx, req)
	})
	a.breaker.Record(err)

	if err != nil {
		zap.L().Warn("advisor: enrichment failed, using fallback", zap.Error(err))
		return Fallback(req.Findings, req.Proximities), false
	}
	return enr, true
}

func (a *Advisor) callModel(ctx context.Context, req Request) (*Enrichment, error) {
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: defaultMaxTokens,
		System:    systemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildPrompt(req)},
		},
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.Log(a.model, "site_advice")

	return parseEnrichment(resp.Text())
}
