package game

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPersonalEventBands(t *testing.T) {
	tests := []struct {
		u         float64
		kind      PersonalEventKind
		money     string
		health    int
		noEvent   bool
		startCash string
	}{
		{u: 0.0, kind: EventLottery, money: "1850", health: 100},
		{u: 0.019, kind: EventLottery, money: "1850", health: 100},
		{u: 0.02, kind: EventSick, money: "550", health: 80},
		{u: 0.05, kind: EventBonus, money: "1050", health: 100},
		{u: 0.08, kind: EventScam, money: "595", health: 100},
		{u: 0.09, kind: EventScam, money: "1500", health: 100, startCash: "2000"},
		{u: 0.10, noEvent: true, money: "850", health: 100},
		{u: 0.5, noEvent: true, money: "850", health: 100},
	}
	for _, tc := range tests {
		p := testPlayer()
		if tc.startCash != "" {
			p.Money = dec(tc.startCash)
		}
		ev := personalEvent(p, tc.u)
		if tc.noEvent {
			assert.Nil(t, ev, "u=%v", tc.u)
		} else {
			require.NotNil(t, ev, "u=%v", tc.u)
			assert.Equal(t, tc.kind, ev.Kind, "u=%v", tc.u)
		}
		assert.True(t, dec(tc.money).Equal(p.Money), "u=%v money=%s", tc.u, p.Money)
		assert.Equal(t, tc.health, p.Health, "u=%v", tc.u)
	}
}

func TestScamNeverPaysOut(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := newPlayer(PlayerSeed{ID: "x"}, DefaultRules())
		p.Money = decimal.NewFromInt(rapid.Int64Range(-2000, 5000).Draw(t, "money"))
		before := p.Money
		ev := personalEvent(p, 0.09)
		if ev == nil || ev.Kind != EventScam {
			t.Fatalf("expected scam")
		}
		if p.Money.GreaterThan(before) {
			t.Fatalf("scam raised money from %s to %s", before, p.Money)
		}
		if before.Sub(p.Money).GreaterThan(scamCap) {
			t.Fatalf("scam took more than the cap")
		}
	})
}

func newEventSession(t *testing.T) *Session {
	t.Helper()
	e := newTestEngine(t, quietRand())
	startedSession(t, e, "s1", "a", "b")
	return rawSession(t, e, "s1")
}

func TestGlobalEconomyEvents(t *testing.T) {
	s := newEventSession(t)
	a := s.players["a"]
	b := s.players["b"]
	b.Alive = false
	a.Happiness = 95

	ev := globalEvent(s, GlobalBoom)
	assert.Equal(t, EconomyBoom, s.Economy)
	assert.Equal(t, EconomyBoom, ev.Economy)
	assert.Equal(t, 100, a.Happiness)
	assert.Equal(t, 50, b.Happiness)

	globalEvent(s, GlobalRecession)
	assert.Equal(t, EconomyRecession, s.Economy)
	assert.Equal(t, 15, a.Stress)
	assert.Equal(t, 0, b.Stress)

	globalEvent(s, GlobalRecovery)
	assert.Equal(t, EconomyNormal, s.Economy)
}

func TestGlobalPriceShockEvents(t *testing.T) {
	s := newEventSession(t)
	prices := func() map[string]float64 {
		out := map[string]float64{}
		for _, inst := range s.market.Instruments() {
			out[inst.Symbol] = inst.Price
		}
		return out
	}

	before := prices()
	ev := globalEvent(s, GlobalCryptoMoon)
	after := prices()
	assert.ElementsMatch(t, []string{"BTC", "ETH"}, ev.Shocked)
	for sym, p := range after {
		switch sym {
		case "BTC":
			assert.InDelta(t, before[sym]*1.3, p, 1e-6)
		case "ETH":
			assert.InDelta(t, before[sym]*1.2, p, 1e-6)
		default:
			assert.Equal(t, before[sym], p, sym)
		}
	}

	before = prices()
	ev = globalEvent(s, GlobalCryptoCrash)
	assert.Len(t, ev.Shocked, 15)
	after = prices()
	for _, inst := range s.market.Instruments() {
		if inst.Class == ClassCrypto {
			assert.InDelta(t, before[inst.Symbol]*0.7, after[inst.Symbol], before[inst.Symbol]*1e-9)
		} else {
			assert.Equal(t, before[inst.Symbol], after[inst.Symbol])
		}
	}

	before = prices()
	ev = globalEvent(s, GlobalGoldRally)
	assert.Equal(t, []string{"GOLD"}, ev.Shocked)
	assert.InDelta(t, before["GOLD"]*1.15, prices()["GOLD"], 1e-6)
}
