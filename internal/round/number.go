package round

import (
	crand "crypto/rand" // Seed entropy
	"fmt"               // String formatting
	"math/rand/v2"      // Seeded PRNG
	"sync"              // Mutexes
)

// NumberGenerator produces candidate ticket numbers
type NumberGenerator func() string

// Source is the randomness used for ticket numbers and winner selection
type Source interface {
	IntN(n int) int
}

// lockedRand makes a *rand.Rand safe for concurrent requests
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// NewSource returns a ChaCha8 source seeded from crypto/rand
func NewSource() Source {
	var seed [32]byte
	_, _ = crand.Read(seed[:]) // never fails since Go 1.24
	return &lockedRand{r: rand.New(rand.NewChaCha8(seed))}
}

// NewSeededSource returns a deterministic source, used by tests
func NewSeededSource(seed uint64) Source {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// TicketNumbers returns the LT-nnnnnn generator drawing from src
func TicketNumbers(src Source) NumberGenerator {
	return func() string {
		return fmt.Sprintf("LT-%06d", 100000+src.IntN(900000))
	}
}
