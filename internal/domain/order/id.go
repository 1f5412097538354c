package order

import (
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
)

const (
	// DefaultIDPrefix starts every order number.
	DefaultIDPrefix = "AUR-"

	idSuffixLen   = 6
	idAlphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	maxIDAttempts = 16

	bloomCapacity = 100_000
	bloomFPR      = 0.001
)

// ErrIDSpaceExhausted is returned when no unused order id was found within
// the retry budget.
var ErrIDSpaceExhausted = errors.New("could not allocate a unique order id")

// IDGenerator issues short human-readable order numbers and retries on
// collision. A bloom filter of every id it has issued or been shown answers
// most uniqueness checks without consulting the stored history.
type IDGenerator struct {
	prefix string
	rand   func(n int) int

	mu   sync.Mutex
	seen *bloom.BloomFilter
}

// NewIDGenerator returns a generator using prefix, or DefaultIDPrefix when
// prefix is empty.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = DefaultIDPrefix
	}
	return &IDGenerator{
		prefix: prefix,
		rand:   rand.IntN,
		seen:   bloom.NewWithEstimates(bloomCapacity, bloomFPR),
	}
}

// Observe records ids that already exist.
func (g *IDGenerator) Observe(ids ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, id := range ids {
		g.seen.AddString(id)
	}
}

// Next returns an id that taken reports as free. taken is only called when
// the bloom filter cannot rule the candidate out.
func (g *IDGenerator) Next(taken func(id string) bool) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for range maxIDAttempts {
		id := g.candidate()
		if g.seen.TestString(id) && taken(id) {
			continue
		}
		g.seen.AddString(id)
		return id, nil
	}
	return "", ErrIDSpaceExhausted
}

func (g *IDGenerator) candidate() string {
	var b strings.Builder
	b.Grow(len(g.prefix) + idSuffixLen)
	b.WriteString(g.prefix)
	for range idSuffixLen {
		b.WriteByte(idAlphabet[g.rand(len(idAlphabet))])
	}
	return b.String()
}
