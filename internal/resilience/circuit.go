package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when a call is rejected without being attempted.
var ErrCircuitOpen = eris.New("resilience: circuit open")

// Breaker is a consecutive-failure circuit breaker. After Threshold failures
// in a row the circuit opens and calls fail fast until Cooldown elapses; the
// next call after the cooldown probes the service again.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	failures int
	openedAt time.Time
}

// NewBreaker creates a circuit breaker. threshold defaults to 5 and cooldown
// to 30s when zero.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{name: name, threshold: threshold, cooldown: cooldown}
}

// Allow reports whether a call may proceed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.threshold {
		return true
	}
	if time.Since(b.openedAt) >= b.cooldown {
		// Probe: permit one call, keep the circuit open until it succeeds.
		b.openedAt = time.Now()
		return true
	}
	return false
}

// Record updates the breaker with a call outcome.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.failures >= b.threshold {
			zap.L().Info("circuit closed", zap.String("service", b.name))
		}
		b.failures = 0
		return
	}

	b.failures++
	if b.failures == b.threshold {
		b.openedAt = time.Now()
		zap.L().Warn("circuit opened",
			zap.String("service", b.name),
			zap.Int("failures", b.failures),
		)
	}
}

// Open reports whether the circuit is currently rejecting calls.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures >= b.threshold && time.Since(b.openedAt) < b.cooldown
}
