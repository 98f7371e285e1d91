package service

import (
	"math/rand"
	"sync"
	"time"
)

// OutcomeSource decides whether one simulated payment attempt succeeds.
type OutcomeSource interface {
	Decide() bool
}

// OutcomeFunc adapts a plain function to OutcomeSource.
type OutcomeFunc func() bool

func (f OutcomeFunc) Decide() bool { return f() }

// RandomOutcome succeeds with a fixed probability, independently per call.
type RandomOutcome struct {
	rate float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomOutcome(rate float64, rng *rand.Rand) *RandomOutcome {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomOutcome{rate: rate, rng: rng}
}

func (r *RandomOutcome) Decide() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64() < r.rate
}
