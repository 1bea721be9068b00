package game

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestProcessTurnQuietDay(t *testing.T) {
	e := newTestEngine(t, quietRand())
	startedSession(t, e, "s1", "a")

	res, err := e.ProcessTurn("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Day)
	assert.False(t, res.GameOver)
	assert.Empty(t, res.GlobalEvents)
	require.Len(t, res.Players, 1)

	pt := res.Players[0]
	require.NotNil(t, pt.Action)
	assert.Equal(t, ActionRest, pt.Action.Kind)
	assert.Nil(t, pt.Event)
	assert.True(t, dec("800").Equal(pt.Stats.Money), pt.Stats.Money.String())
	assert.Equal(t, 48, pt.Stats.Happiness)
	assert.Equal(t, 100, pt.Stats.Energy)
	assert.True(t, pt.Alive)

	// Equities drift up on a high sample, so holdings are empty and the score
	// is stats only: 2*800 + 1.5*48 + 1.5*10 + 100.
	assert.Equal(t, int64(1787), pt.Score)

	snap, err := e.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Day)
}

func TestProcessTurnRejectsWrongState(t *testing.T) {
	e := newTestEngine(t, quietRand())
	_, err := e.ProcessTurn("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = e.CreateSession("s1", []PlayerSeed{{ID: "a"}})
	require.NoError(t, err)
	_, err = e.ProcessTurn("s1")
	assert.ErrorIs(t, err, ErrNotPlaying)

	snap, err := e.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Day)
}

func TestActionClearedEachTurn(t *testing.T) {
	e := newTestEngine(t, quietRand())
	startedSession(t, e, "s1", "a")

	_, err := e.SubmitAction("s1", "a", ActionStudy)
	require.NoError(t, err)
	res, err := e.ProcessTurn("s1")
	require.NoError(t, err)
	assert.Equal(t, ActionStudy, res.Players[0].Action.Kind)

	res, err = e.ProcessTurn("s1")
	require.NoError(t, err)
	assert.Equal(t, ActionRest, res.Players[0].Action.Kind)
}

func TestDefeatScenario(t *testing.T) {
	e := newTestEngine(t, quietRand())
	startedSession(t, e, "s1", "a", "b")

	b := rawPlayer(t, e, "s1", "b")
	b.Money = dec("-600")
	b.Health = 50
	b.Stress = 40

	res, err := e.ProcessTurn("s1")
	require.NoError(t, err)
	require.Len(t, res.Players, 2)
	assert.False(t, res.Players[1].Alive)
	assert.True(t, res.Players[1].Defeated)
	assert.Equal(t, int64(0), res.Players[1].Score)
	assert.False(t, res.GameOver)

	frozen := statSnapshot(b)
	res, err = e.ProcessTurn("s1")
	require.NoError(t, err)
	require.Len(t, res.Players, 1)
	assert.Equal(t, "a", res.Players[0].PlayerID)
	assert.Equal(t, frozen, statSnapshot(b))
	assert.False(t, b.Alive)
	assert.Equal(t, int64(0), b.Score)

	_, err = e.SubmitAction("s1", "b", ActionWork)
	assert.ErrorIs(t, err, ErrNotPlaying)
	_, err = e.BuyInstrument("s1", "b", "TECH", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrNotPlaying)
}

func TestDefeatConditions(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		name    string
		arrange func(p *PlayerState)
		want    bool
	}{
		{"healthy", func(p *PlayerState) {}, false},
		{"money at floor", func(p *PlayerState) { p.Money = dec("-500") }, false},
		{"money below floor", func(p *PlayerState) { p.Money = dec("-500.01") }, true},
		{"no health", func(p *PlayerState) { p.Health = 0 }, true},
		{"max stress", func(p *PlayerState) { p.Stress = 100 }, true},
	}
	for _, tc := range tests {
		p := testPlayer()
		tc.arrange(p)
		assert.Equal(t, tc.want, defeated(p, rules), tc.name)
	}
}

func TestGameEndsAfterMaxDays(t *testing.T) {
	e := newTestEngine(t, quietRand(), func(r *Rules) { r.MaxDays = 3 })
	startedSession(t, e, "s1", "a", "b")
	rawPlayer(t, e, "s1", "b").Money = dec("5000")

	for day := 1; day <= 2; day++ {
		res, err := e.ProcessTurn("s1")
		require.NoError(t, err)
		assert.False(t, res.GameOver)
		assert.Nil(t, res.Rankings)
	}
	res, err := e.ProcessTurn("s1")
	require.NoError(t, err)
	assert.True(t, res.GameOver)
	require.Len(t, res.Rankings, 2)
	assert.Equal(t, "b", res.Rankings[0].PlayerID)
	assert.Equal(t, int64(1000), res.Rankings[0].Prize)
	assert.Equal(t, int64(500), res.Rankings[1].Prize)

	snap, err := e.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, snap.Status)

	_, err = e.ProcessTurn("s1")
	assert.ErrorIs(t, err, ErrNotPlaying)
	_, err = e.DepositBank("s1", "a", AccountSavings, dec("1"))
	assert.ErrorIs(t, err, ErrNotPlaying)
}

func TestGameEndsWhenEveryoneIsDefeated(t *testing.T) {
	e := newTestEngine(t, quietRand())
	startedSession(t, e, "s1", "a")
	rawPlayer(t, e, "s1", "a").Health = 0

	res, err := e.ProcessTurn("s1")
	require.NoError(t, err)
	assert.True(t, res.GameOver)
	require.Len(t, res.Rankings, 1)
	assert.Equal(t, int64(0), res.Rankings[0].Score)
}

func TestInterestOnInterval(t *testing.T) {
	e := newTestEngine(t, quietRand())
	startedSession(t, e, "s1", "a")
	p := rawPlayer(t, e, "s1", "a")
	p.Money = dec("100000")
	p.Accounts[AccountSavings].Balance = dec("1000")

	for i := 0; i < 6; i++ {
		_, err := e.ProcessTurn("s1")
		require.NoError(t, err)
	}
	assert.True(t, dec("1000").Equal(p.Accounts[AccountSavings].Balance))

	_, err := e.ProcessTurn("s1")
	require.NoError(t, err)
	assert.True(t, dec("1010").Equal(p.Accounts[AccountSavings].Balance))
	assert.True(t, dec("10").Equal(p.Accounts[AccountSavings].InterestEarned))
}

func TestLivingExpensesUseLifestyle(t *testing.T) {
	e := newTestEngine(t, quietRand())
	startedSession(t, e, "s1", "a")
	require.NoError(t, e.ChooseHousing("s1", "a", "condo"))
	require.NoError(t, e.ChooseVehicle("s1", "a", "CAR"))

	s := rawSession(t, e, "s1")
	p := rawPlayer(t, e, "s1", "a")
	payLivingExpenses(s, p)
	assert.True(t, dec("420").Equal(p.Money), p.Money.String())
	assert.Equal(t, 52, p.Happiness)

	assert.ErrorIs(t, e.ChooseHousing("s1", "a", "castle"), ErrTierNotFound)
	require.NoError(t, e.ChooseVehicle("s1", "a", ""))
	assert.Empty(t, p.Vehicle)
}

func TestWagesPaidDuringTurn(t *testing.T) {
	e := newTestEngine(t, quietRand())
	startedSession(t, e, "s1", "a")
	_, err := e.ChooseCareer("s1", "a", "food")
	require.NoError(t, err)

	res, err := e.ProcessTurn("s1")
	require.NoError(t, err)
	p := rawPlayer(t, e, "s1", "a")
	assert.Equal(t, 1, p.WorkDays)
	// 850 - 50 food + 50 wage
	assert.True(t, dec("850").Equal(res.Players[0].Stats.Money))
	assert.Equal(t, 11, res.Players[0].Stats.Knowledge)
}

func TestAliveIsMonotonic(t *testing.T) {
	c := testCatalog(t)
	rapid.Check(t, func(t *rapid.T) {
		rng := NewRandomSource(rapid.Int64Range(1, 1<<40).Draw(t, "seed"))
		e, err := NewEngine(c, DefaultRules(), nil, WithRandomSource(rng))
		if err != nil {
			t.Fatalf("engine: %v", err)
		}
		n := rapid.IntRange(1, 5).Draw(t, "players")
		seeds := make([]PlayerSeed, n)
		for i := range seeds {
			seeds[i] = PlayerSeed{ID: string(rune('a' + i))}
		}
		if _, err := e.CreateSession("s", seeds); err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := e.StartSession("s"); err != nil {
			t.Fatalf("start: %v", err)
		}
		s, _ := e.registry.Get("s")
		for _, p := range s.players {
			p.Money = decimal.NewFromInt(rapid.Int64Range(-400, 3000).Draw(t, "money"))
			p.Stress = rapid.IntRange(0, 99).Draw(t, "stress")
			p.Health = rapid.IntRange(1, 100).Draw(t, "health")
		}

		dead := map[string]bool{}
		prevAlive := n
		turns := rapid.IntRange(1, 40).Draw(t, "turns")
		for i := 0; i < turns; i++ {
			for _, p := range s.players {
				kind := ActionKinds[rapid.IntRange(0, len(ActionKinds)-1).Draw(t, "action")]
				_, _ = e.SubmitAction("s", p.ID, kind)
			}
			res, err := e.ProcessTurn("s")
			if err != nil {
				break
			}
			alive := s.aliveCount()
			if alive > prevAlive {
				t.Fatalf("alive went from %d to %d", prevAlive, alive)
			}
			prevAlive = alive
			for _, p := range s.players {
				if dead[p.ID] && p.Alive {
					t.Fatalf("player %s revived", p.ID)
				}
				if !p.Alive {
					dead[p.ID] = true
					if p.Score != 0 {
						t.Fatalf("dead player %s scored %d", p.ID, p.Score)
					}
				}
			}
			if res.GameOver {
				break
			}
		}
	})
}
