package main

import (
	"testing"

	"lifesim/internal/catalog"
	"lifesim/internal/game"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverStats(t *testing.T) {
	p := game.PlayerSnapshot{Stats: game.StatSnapshot{Energy: 10, Health: 100, Happiness: 50, Money: decimal.NewFromInt(850)}}
	kind, ok := recoverStats(p)
	require.True(t, ok)
	assert.Equal(t, game.ActionSleep, kind)

	p.Stats.Energy = 80
	_, ok = recoverStats(p)
	assert.False(t, ok)

	p.Stats.Happiness = 5
	kind, ok = recoverStats(p)
	require.True(t, ok)
	assert.Equal(t, game.ActionTravel, kind)
}

func TestDrifterHandlesNegativeScore(t *testing.T) {
	for _, score := range []int64{-13, -1, 0, 6, 99} {
		kind := drifter{}.Play(nil, "", game.PlayerSnapshot{Score: score})
		assert.Contains(t, game.ActionKinds, kind)
	}
}

func TestPlaySessionRunsToCompletion(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	rules := game.DefaultRules()
	rules.MaxDays = 15
	e, err := game.NewEngine(cat, rules, nil, game.WithRandomSource(game.NewRandomSource(7)))
	require.NoError(t, err)

	r := &sessionRun{id: "sim", bots: map[string]Strategy{}}
	require.NoError(t, playSession(e, r, 4))
	require.True(t, r.finished)
	assert.Len(t, r.result.Rankings, 4)
	assert.Equal(t, 1, r.result.Rankings[0].Rank)
	assert.Len(t, r.bots, 4)

	_, err = e.GetSession("sim")
	assert.ErrorIs(t, err, game.ErrSessionNotFound)
}
