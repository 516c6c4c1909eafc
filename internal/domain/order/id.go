package order

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
)

const (
	idFilterCapacity = 1_000_000
	idFilterFPR      = 0.0001
)

// IDGenerator hands out order ids that have never been issued by this process
// or seeded from storage. A bloom filter remembers issued ids; a false
// positive only costs one extra draw.
type IDGenerator struct {
	mu    sync.Mutex
	seen  *bloom.BloomFilter
	newID func() string
}

// NewIDGenerator returns a generator producing random UUIDs.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		seen:  bloom.NewWithEstimates(idFilterCapacity, idFilterFPR),
		newID: uuid.NewString,
	}
}

// Seed marks existing ids as issued.
func (g *IDGenerator) Seed(ids ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range ids {
		g.seen.AddString(id)
	}
}

// Next returns a fresh id.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	for {
		id := g.newID()
		if !g.seen.TestAndAddString(id) {
			return id
		}
	}
}
