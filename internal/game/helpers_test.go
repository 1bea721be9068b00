package game

import (
	"sync"
	"testing"

	"lifesim/internal/catalog"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// seqRand replays vals in order and then keeps returning fallback.
type seqRand struct {
	mu       sync.Mutex
	vals     []float64
	fallback float64
}

func (r *seqRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.vals) > 0 {
		v := r.vals[0]
		r.vals = r.vals[1:]
		return v
	}
	return r.fallback
}

// quietRand never triggers a personal or global event.
func quietRand() *seqRand { return &seqRand{fallback: 0.99} }

func testCatalog(t testing.TB) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return c
}

func newTestEngine(t testing.TB, rng RandomSource, mutate ...func(*Rules)) *Engine {
	t.Helper()
	rules := DefaultRules()
	for _, m := range mutate {
		m(&rules)
	}
	e, err := NewEngine(testCatalog(t), rules, nil, WithRandomSource(rng))
	require.NoError(t, err)
	return e
}

// startedSession creates and starts a session with the given player ids.
func startedSession(t testing.TB, e *Engine, id string, players ...string) {
	t.Helper()
	seeds := make([]PlayerSeed, 0, len(players))
	for _, p := range players {
		seeds = append(seeds, PlayerSeed{ID: p, Username: p})
	}
	_, err := e.CreateSession(id, seeds)
	require.NoError(t, err)
	require.NoError(t, e.StartSession(id))
}

// rawPlayer reaches into live state for arranging scenarios.
func rawPlayer(t testing.TB, e *Engine, sessionID, playerID string) *PlayerState {
	t.Helper()
	s, err := e.registry.Get(sessionID)
	require.NoError(t, err)
	p, ok := s.players[playerID]
	require.True(t, ok)
	return p
}

func rawSession(t testing.TB, e *Engine, sessionID string) *Session {
	t.Helper()
	s, err := e.registry.Get(sessionID)
	require.NoError(t, err)
	return s
}

func testPlayer() *PlayerState {
	return newPlayer(PlayerSeed{ID: "p1", Username: "alice"}, DefaultRules())
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
