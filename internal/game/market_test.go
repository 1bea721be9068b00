package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewMarketCopiesCatalog(t *testing.T) {
	c := testCatalog(t)
	m := NewMarket(c, quietRand())

	require.Len(t, m.Instruments(), len(c.Equities)+len(c.Crypto)+1)
	assert.Equal(t, c.Equities[0].Symbol, m.Instruments()[0].Symbol)

	tech, ok := m.Lookup("TECH")
	require.True(t, ok)
	assert.Equal(t, ClassEquity, tech.Class)
	assert.Len(t, tech.History, SeedHistory)
	assert.InDelta(t, 45.0, tech.Floor, 1e-9)
	assert.InDelta(t, 450.0, tech.Ceiling, 1e-9)

	btc, ok := m.Lookup("BTC")
	require.True(t, ok)
	assert.Empty(t, btc.History)
	assert.InDelta(t, 4500.0, btc.Floor, 1e-9)

	gold, ok := m.Lookup("GOLD")
	require.True(t, ok)
	assert.Equal(t, 20000.0, gold.Floor)
	assert.Equal(t, 50000.0, gold.Ceiling)

	// Session state never aliases the template.
	tech.Price = 1
	assert.Equal(t, 150.0, c.Equities[0].Price)
	other := NewMarket(c, quietRand())
	again, _ := other.Lookup("TECH")
	assert.Equal(t, 150.0, again.Price)
}

func TestMarketUpdateStep(t *testing.T) {
	m := NewMarket(testCatalog(t), quietRand())
	tech, _ := m.Lookup("TECH")
	btc, _ := m.Lookup("BTC")
	gold, _ := m.Lookup("GOLD")

	m.Update(EconomyBoom, &seqRand{fallback: 0.6})

	// (0.6-0.48) * 0.08 * 2 * 1.5
	assert.InDelta(t, 150*(1+0.0288), tech.Price, 1e-9)
	assert.InDelta(t, 2.88, tech.History[len(tech.History)-1].PercentChange, 1e-9)
	// (0.6-0.5) * 0.15 * 2 * 1.5
	assert.InDelta(t, 45000*(1+0.045), btc.Price, 1e-6)
	// commodity ignores the economy: (0.6-0.5) * 0.015 * 2
	assert.InDelta(t, 30000*(1+0.003), gold.Price, 1e-6)
}

func TestEconomyMultiplier(t *testing.T) {
	assert.Equal(t, 1.5, economyMultiplier(ClassEquity, EconomyBoom))
	assert.Equal(t, 0.5, economyMultiplier(ClassCrypto, EconomyRecession))
	assert.Equal(t, 1.0, economyMultiplier(ClassEquity, EconomyNormal))
	assert.Equal(t, 1.0, economyMultiplier(ClassCommodity, EconomyBoom))
}

func TestShockMovesOnlyNamedSymbols(t *testing.T) {
	m := NewMarket(testCatalog(t), quietRand())
	before := map[string]float64{}
	for _, inst := range m.Instruments() {
		before[inst.Symbol] = inst.Price
	}

	moved := m.Shock(1.3, "BTC")
	moved = append(moved, m.Shock(1.2, "ETH", "NOPE")...)
	assert.Equal(t, []string{"BTC", "ETH"}, moved)

	for _, inst := range m.Instruments() {
		switch inst.Symbol {
		case "BTC":
			assert.InDelta(t, before["BTC"]*1.3, inst.Price, 1e-6)
		case "ETH":
			assert.InDelta(t, before["ETH"]*1.2, inst.Price, 1e-6)
		default:
			assert.Equal(t, before[inst.Symbol], inst.Price, inst.Symbol)
		}
	}
	btc, _ := m.Lookup("BTC")
	assert.Len(t, btc.History, 0)
}

func TestShockIsClamped(t *testing.T) {
	m := NewMarket(testCatalog(t), quietRand())
	m.Shock(100, "GOLD")
	gold, _ := m.Lookup("GOLD")
	assert.Equal(t, gold.Ceiling, gold.Price)

	m.Shock(0.0001, "DOGE")
	doge, _ := m.Lookup("DOGE")
	assert.Equal(t, doge.Floor, doge.Price)
}

func TestMarketPropertiesHold(t *testing.T) {
	c := testCatalog(t)
	rapid.Check(t, func(t *rapid.T) {
		m := NewMarket(c, quietRand())
		steps := rapid.IntRange(1, 120).Draw(t, "steps")
		economies := []Economy{EconomyNormal, EconomyBoom, EconomyRecession}
		for i := 0; i < steps; i++ {
			econ := economies[rapid.IntRange(0, 2).Draw(t, "economy")]
			u := rapid.Float64Range(0, 0.999999).Draw(t, "u")
			m.Update(econ, &seqRand{fallback: u})
			if rapid.IntRange(0, 9).Draw(t, "shock") == 0 {
				m.Shock(rapid.Float64Range(0.01, 20).Draw(t, "factor"), m.Symbols(ClassCrypto)...)
			}
		}
		for _, inst := range m.Instruments() {
			if inst.Price < inst.Floor || inst.Price > inst.Ceiling {
				t.Fatalf("%s price %v outside [%v, %v]", inst.Symbol, inst.Price, inst.Floor, inst.Ceiling)
			}
			if len(inst.History) > MaxHistory {
				t.Fatalf("%s history len %d > %d", inst.Symbol, len(inst.History), MaxHistory)
			}
		}
	})
}

func TestHistoryDropsOldestFirst(t *testing.T) {
	m := NewMarket(testCatalog(t), quietRand())
	for i := 0; i < MaxHistory; i++ {
		m.Update(EconomyNormal, &seqRand{fallback: 0.5})
	}
	tech, _ := m.Lookup("TECH")
	require.Len(t, tech.History, MaxHistory)
	last := tech.History[len(tech.History)-1]
	m.Update(EconomyNormal, &seqRand{fallback: 0.9})
	require.Len(t, tech.History, MaxHistory)
	assert.Equal(t, last, tech.History[len(tech.History)-2])
	assert.Equal(t, tech.Price, tech.History[len(tech.History)-1].Price)
}
