package game

import (
	mathrand "math/rand"
	"sync"
	"time"
)

// RandomSource yields uniform samples in [0,1). Implementations must be safe
// for concurrent use.
type RandomSource interface {
	Float64() float64
}

type lockedRand struct {
	mu   sync.Mutex
	rand *mathrand.Rand
}

// NewRandomSource returns a mutex-guarded source. A zero seed uses the clock.
func NewRandomSource(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{rand: mathrand.New(mathrand.NewSource(seed))}
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// pick maps a sample onto [0,n).
func pick(rng RandomSource, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(rng.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
