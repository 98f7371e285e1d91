package service

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// OrderIDSource hands out external order identifiers.
type OrderIDSource interface {
	Next() string
}

// OrderIDGenerator builds ids as <prefix><YYYYMMDD><6 random digits>.
// Uniqueness is left to the order_id unique index.
type OrderIDGenerator struct {
	prefix string
	now    func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func NewOrderIDGenerator(prefix string, rng *rand.Rand, now func() time.Time) *OrderIDGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &OrderIDGenerator{prefix: prefix, rng: rng, now: now}
}

func (g *OrderIDGenerator) Next() string {
	g.mu.Lock()
	suffix := 100000 + g.rng.Intn(900000)
	g.mu.Unlock()
	return fmt.Sprintf("%s%s%06d", g.prefix, g.now().Format("20060102"), suffix)
}
