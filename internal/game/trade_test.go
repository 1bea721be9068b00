package game

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func equityAt(price float64) *Instrument {
	return &Instrument{Symbol: "TECH", Class: ClassEquity, Price: price, BasePrice: price, Floor: price * 0.3, Ceiling: price * 3}
}

func TestBuyThenSellScenario(t *testing.T) {
	p := testPlayer()
	inst := equityAt(150)

	r, err := buy(p, inst, decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.True(t, dec("757.5").Equal(r.Total), r.Total.String())
	assert.True(t, dec("7.5").Equal(r.Fee))
	assert.True(t, dec("92.5").Equal(p.Money), p.Money.String())

	h := p.Portfolio["TECH"]
	require.NotNil(t, h)
	assert.True(t, dec("5").Equal(h.Units))
	assert.True(t, dec("757.5").Equal(h.TotalCost))
	assert.True(t, h.AvgBuyPrice.Mul(h.Units).Equal(h.TotalCost))

	r, err = sell(p, inst, decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.True(t, dec("742.5").Equal(r.Total), r.Total.String())
	assert.True(t, dec("835").Equal(p.Money), p.Money.String())
	_, still := p.Portfolio["TECH"]
	assert.False(t, still)
}

func TestBuyRejections(t *testing.T) {
	p := testPlayer()
	inst := equityAt(150)

	_, err := buy(p, inst, decimal.NewFromInt(6))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	_, err = buy(p, inst, decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.True(t, dec("850").Equal(p.Money))
	assert.Empty(t, p.Portfolio)
}

func TestSellRejections(t *testing.T) {
	p := testPlayer()
	inst := equityAt(100)

	_, err := sell(p, inst, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrNoHolding)

	_, err = buy(p, inst, decimal.NewFromInt(2))
	require.NoError(t, err)
	_, err = sell(p, inst, decimal.NewFromInt(3))
	assert.ErrorIs(t, err, ErrInsufficientUnits)
	_, err = sell(p, inst, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.True(t, dec("2").Equal(p.Portfolio["TECH"].Units))
}

func TestCryptoAndCommodityUseOwnBooks(t *testing.T) {
	p := testPlayer()
	p.Money = decimal.NewFromInt(100000)
	btc := &Instrument{Symbol: "BTC", Class: ClassCrypto, Price: 40000}
	gold := &Instrument{Symbol: "GOLD", Class: ClassCommodity, Price: 30000}

	r, err := buy(p, btc, dec("0.5"))
	require.NoError(t, err)
	assert.True(t, dec("20400").Equal(r.Total), r.Total.String())
	_, err = buy(p, gold, dec("1"))
	require.NoError(t, err)

	assert.Contains(t, p.CryptoWallet, "BTC")
	assert.Contains(t, p.Commodities, "GOLD")
	assert.Empty(t, p.Portfolio)

	r, err = sell(p, gold, dec("1"))
	require.NoError(t, err)
	assert.True(t, dec("29400").Equal(r.Total))
	assert.NotContains(t, p.Commodities, "GOLD")
}

func TestCostBasisStaysConsistent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := newPlayer(PlayerSeed{ID: "x"}, DefaultRules())
		p.Money = decimal.NewFromInt(1_000_000)
		inst := equityAt(100)
		eps := dec("0.000001")

		ops := rapid.IntRange(1, 40).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			inst.Price = rapid.Float64Range(1, 300).Draw(t, "price")
			qty := decimal.NewFromInt(rapid.Int64Range(1, 20).Draw(t, "qty"))
			if rapid.Bool().Draw(t, "buy") {
				_, _ = buy(p, inst, qty)
			} else {
				_, _ = sell(p, inst, qty)
			}
			h, ok := p.Portfolio["TECH"]
			if !ok {
				continue
			}
			if !h.Units.IsPositive() {
				t.Fatalf("zero-unit holding kept: %s", h.Units)
			}
			if h.AvgBuyPrice.Mul(h.Units).Sub(h.TotalCost).Abs().GreaterThan(eps) {
				t.Fatalf("avg %s * units %s != total %s", h.AvgBuyPrice, h.Units, h.TotalCost)
			}
		}
	})
}
