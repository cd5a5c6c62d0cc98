package resilience

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker("advisor", 3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, b.Allow())
		b.Record(eris.New("down"))
	}

	assert.True(t, b.Open())
	assert.False(t, b.Allow())
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b := NewBreaker("advisor", 3, time.Minute)

	b.Record(eris.New("down"))
	b.Record(eris.New("down"))
	b.Record(nil)
	b.Record(eris.New("down"))

	assert.False(t, b.Open())
	assert.True(t, b.Allow())
}

func TestBreaker_ProbesAfterCooldown(t *testing.T) {
	b := NewBreaker("advisor", 1, 10*time.Millisecond)

	b.Record(eris.New("down"))
	assert.False(t, b.Allow())

	time.Sleep(20 * time.Millisecond)

	// One probe gets through; a failed probe re-opens the circuit.
	assert.True(t, b.Allow())
	b.Record(eris.New("still down"))
	assert.False(t, b.Allow())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, b.Allow())
	b.Record(nil)
	assert.True(t, b.Allow())
}

func TestBreaker_Defaults(t *testing.T) {
	b := NewBreaker("svc", 0, 0)
	assert.Equal(t, 5, b.threshold)
	assert.Equal(t, 30*time.Second, b.cooldown)
}
