package game

import (
	"lifesim/internal/catalog"
)

const (
	equityFloorFactor   = 0.3
	equityCeilingFactor = 3.0
	cryptoFloorFactor   = 0.1
	cryptoCeilingFactor = 10.0
)

// Market is the per-session instrument table. Iteration follows catalog order.
type Market struct {
	instruments []*Instrument
	bySymbol    map[string]*Instrument
}

// NewMarket copies every catalog instrument into fresh session state and seeds
// equity history so a chart exists before the first turn.
func NewMarket(c *catalog.Catalog, rng RandomSource) *Market {
	m := &Market{bySymbol: make(map[string]*Instrument)}
	for _, d := range c.Equities {
		inst := &Instrument{
			Symbol:     d.Symbol,
			Name:       d.Name,
			Class:      ClassEquity,
			Category:   d.Sector,
			Price:      d.Price,
			BasePrice:  d.Price,
			Volatility: d.Volatility,
			Floor:      d.Price * equityFloorFactor,
			Ceiling:    d.Price * equityCeilingFactor,
		}
		for i := 0; i < SeedHistory; i++ {
			change := (rng.Float64() - 0.5) * inst.Volatility * 2
			inst.History = append(inst.History, PricePoint{Price: inst.Price, PercentChange: change * 100})
		}
		m.add(inst)
	}
	for _, d := range c.Crypto {
		m.add(&Instrument{
			Symbol:     d.Symbol,
			Name:       d.Name,
			Class:      ClassCrypto,
			Category:   d.Sector,
			Price:      d.Price,
			BasePrice:  d.Price,
			Volatility: d.Volatility,
			Floor:      d.Price * cryptoFloorFactor,
			Ceiling:    d.Price * cryptoCeilingFactor,
		})
	}
	cm := c.Commodity
	m.add(&Instrument{
		Symbol:     cm.Symbol,
		Name:       cm.Name,
		Class:      ClassCommodity,
		Price:      cm.Price,
		BasePrice:  cm.Price,
		Volatility: cm.Volatility,
		Floor:      cm.Floor,
		Ceiling:    cm.Ceiling,
	})
	return m
}

func (m *Market) add(inst *Instrument) {
	m.instruments = append(m.instruments, inst)
	m.bySymbol[inst.Symbol] = inst
}

func (m *Market) Lookup(symbol string) (*Instrument, bool) {
	inst, ok := m.bySymbol[symbol]
	return inst, ok
}

func (m *Market) Instruments() []*Instrument { return m.instruments }

// Update advances every instrument by one random-walk step.
func (m *Market) Update(economy Economy, rng RandomSource) {
	for _, inst := range m.instruments {
		u := rng.Float64()
		delta := (u - classBias(inst.Class)) * inst.Volatility * 2 * economyMultiplier(inst.Class, economy)
		inst.Price = evolvePrice(inst.Price, delta, inst.Floor, inst.Ceiling)
		inst.History = append(inst.History, PricePoint{Price: inst.Price, PercentChange: delta * 100})
		if over := len(inst.History) - MaxHistory; over > 0 {
			inst.History = append(inst.History[:0:0], inst.History[over:]...)
		}
	}
}

// Shock multiplies the named instruments' prices at once, clamped to their
// bounds. Unknown symbols are skipped. It returns the symbols it moved.
func (m *Market) Shock(factor float64, symbols ...string) []string {
	moved := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		inst, ok := m.bySymbol[sym]
		if !ok {
			continue
		}
		inst.Price = clampPrice(inst.Price*factor, inst.Floor, inst.Ceiling)
		moved = append(moved, sym)
	}
	return moved
}

func (m *Market) Symbols(class AssetClass) []string {
	var out []string
	for _, inst := range m.instruments {
		if inst.Class == class {
			out = append(out, inst.Symbol)
		}
	}
	return out
}

func (m *Market) views(withHistory bool) []InstrumentView {
	out := make([]InstrumentView, 0, len(m.instruments))
	for _, inst := range m.instruments {
		v := InstrumentView{
			Symbol:     inst.Symbol,
			Name:       inst.Name,
			Class:      inst.Class,
			Category:   inst.Category,
			Price:      inst.Price,
			BasePrice:  inst.BasePrice,
			Volatility: inst.Volatility,
			Floor:      inst.Floor,
			Ceiling:    inst.Ceiling,
		}
		if withHistory && len(inst.History) > 0 {
			v.History = append([]PricePoint(nil), inst.History...)
		}
		out = append(out, v)
	}
	return out
}

// classBias sits below 0.5 for equities so they drift up under a normal
// economy.
func classBias(class AssetClass) float64 {
	if class == ClassEquity {
		return 0.48
	}
	return 0.5
}

func economyMultiplier(class AssetClass, economy Economy) float64 {
	if class == ClassCommodity {
		return 1
	}
	switch economy {
	case EconomyBoom:
		return 1.5
	case EconomyRecession:
		return 0.5
	default:
		return 1
	}
}

func evolvePrice(price, delta, floor, ceiling float64) float64 {
	return clampPrice(price*(1+delta), floor, ceiling)
}

func clampPrice(price, floor, ceiling float64) float64 {
	if price < floor {
		return floor
	}
	if price > ceiling {
		return ceiling
	}
	return price
}
