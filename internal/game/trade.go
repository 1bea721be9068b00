package game

import (
	"github.com/shopspring/decimal"
)

var (
	equityFeeRate = decimal.NewFromFloat(0.01)
	otherFeeRate  = decimal.NewFromFloat(0.02)
)

func feeRate(class AssetClass) decimal.Decimal {
	if class == ClassEquity {
		return equityFeeRate
	}
	return otherFeeRate
}

func buy(p *PlayerState, inst *Instrument, qty decimal.Decimal) (TradeReceipt, error) {
	if !qty.IsPositive() {
		return TradeReceipt{}, ErrInvalidQuantity
	}
	price := decimal.NewFromFloat(inst.Price)
	notional := price.Mul(qty)
	fee := notional.Mul(feeRate(inst.Class))
	cost := notional.Add(fee)
	if cost.GreaterThan(p.Money) {
		return TradeReceipt{}, ErrInsufficientFunds
	}
	p.Money = p.Money.Sub(cost)

	book := p.holdings(inst.Class)
	h, ok := book[inst.Symbol]
	if !ok {
		h = &Holding{}
		book[inst.Symbol] = h
	}
	h.TotalCost = h.TotalCost.Add(cost)
	h.Units = h.Units.Add(qty)
	h.AvgBuyPrice = h.TotalCost.DivRound(h.Units, 16)

	return TradeReceipt{
		Symbol:   inst.Symbol,
		Class:    inst.Class,
		Side:     SideBuy,
		Quantity: qty,
		Price:    price,
		Fee:      fee,
		Total:    cost,
		Money:    p.Money,
	}, nil
}

func sell(p *PlayerState, inst *Instrument, qty decimal.Decimal) (TradeReceipt, error) {
	if !qty.IsPositive() {
		return TradeReceipt{}, ErrInvalidQuantity
	}
	book := p.holdings(inst.Class)
	h, ok := book[inst.Symbol]
	if !ok {
		return TradeReceipt{}, ErrNoHolding
	}
	if qty.GreaterThan(h.Units) {
		return TradeReceipt{}, ErrInsufficientUnits
	}
	price := decimal.NewFromFloat(inst.Price)
	notional := price.Mul(qty)
	fee := notional.Mul(feeRate(inst.Class))
	revenue := notional.Sub(fee)
	p.Money = p.Money.Add(revenue)

	h.Units = h.Units.Sub(qty)
	if h.Units.IsZero() {
		delete(book, inst.Symbol)
	} else {
		h.TotalCost = h.TotalCost.Sub(h.AvgBuyPrice.Mul(qty))
	}

	return TradeReceipt{
		Symbol:   inst.Symbol,
		Class:    inst.Class,
		Side:     SideSell,
		Quantity: qty,
		Price:    price,
		Fee:      fee,
		Total:    revenue,
		Money:    p.Money,
	}, nil
}

// assetValue marks every holding at the live market price.
func assetValue(p *PlayerState, m *Market) decimal.Decimal {
	total := decimal.Zero
	for _, book := range []map[string]*Holding{p.Portfolio, p.CryptoWallet, p.Commodities} {
		for sym, h := range book {
			inst, ok := m.Lookup(sym)
			if !ok {
				continue
			}
			total = total.Add(h.Units.Mul(decimal.NewFromFloat(inst.Price)))
		}
	}
	return total
}
