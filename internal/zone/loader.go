package zone

import (
	"context"

	"go.uber.org/zap"
)

// Attempt records the outcome of trying one dataset source.
type Attempt struct {
	Source   string `json:"source"`
	Features int    `json:"features"`
	Err      string `json:"error,omitempty"`
}

// Loader resolves the zone dataset from an ordered source list: the first
// source that parses with at least one feature wins. When every source
// fails, the built-in fallback list is used instead.
type Loader struct {
	sources  []Source
	ingestor *Ingestor
	log      *zap.Logger

	attempts []Attempt
}

// NewLoader creates a Loader over the given sources in priority order.
func NewLoader(sources []Source, ingestor *Ingestor) *Loader {
	return &Loader{
		sources:  sources,
		ingestor: ingestor,
		log:      zap.L().With(zap.String("component", "zone.loader")),
	}
}

// Load resolves, ingests, and installs the zone dataset into the store.
// Returns ErrNoZoneData only when the fallback itself is unusable.
func (l *Loader) Load(ctx context.Context, store *Store) error {
	l.attempts = l.attempts[:0]

	for _, src := range l.sources {
		fc, err := src.Load(ctx)
		if err != nil {
			l.attempts = append(l.attempts, Attempt{Source: src.Name(), Err: err.Error()})
			l.log.Warn("zone: dataset source failed, trying next",
				zap.String("source", src.Name()),
				zap.Error(err),
			)
			continue
		}
		if len(fc.Features) == 0 {
			l.attempts = append(l.attempts, Attempt{Source: src.Name(), Err: "no features"})
			l.log.Warn("zone: dataset source empty, trying next",
				zap.String("source", src.Name()),
			)
			continue
		}

		zones, err := l.ingestor.Ingest(ctx, fc)
		if err != nil {
			return err
		}
		l.attempts = append(l.attempts, Attempt{Source: src.Name(), Features: len(fc.Features)})

		store.Replace(zones, src.Name())
		l.log.Info("zone dataset loaded",
			zap.String("source", src.Name()),
			zap.Int("zones", len(zones)),
		)
		return nil
	}

	// Every source failed: fall back to the built-in list.
	zones, err := FallbackZones()
	if err != nil {
		l.log.Error("zone: fallback dataset unusable", zap.Error(err))
		return ErrNoZoneData
	}

	store.Replace(zones, SourceFallback)
	l.log.Warn("zone: all dataset sources failed, using built-in fallback",
		zap.Int("zones", len(zones)),
	)
	return nil
}

// Attempts returns the source resolution log of the most recent Load.
func (l *Loader) Attempts() []Attempt {
	return l.attempts
}
