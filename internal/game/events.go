package game

import (
	"github.com/shopspring/decimal"
)

type PersonalEventKind string

const (
	EventLottery PersonalEventKind = "lottery"
	EventSick    PersonalEventKind = "sick"
	EventBonus   PersonalEventKind = "bonus"
	EventScam    PersonalEventKind = "scam"
)

type GlobalEventKind string

const (
	GlobalBoom        GlobalEventKind = "economic_boom"
	GlobalRecession   GlobalEventKind = "recession"
	GlobalRecovery    GlobalEventKind = "recovery"
	GlobalCryptoMoon  GlobalEventKind = "crypto_moon"
	GlobalCryptoCrash GlobalEventKind = "crypto_crash"
	GlobalGoldRally   GlobalEventKind = "gold_rally"
)

var globalEventKinds = []GlobalEventKind{
	GlobalBoom,
	GlobalRecession,
	GlobalRecovery,
	GlobalCryptoMoon,
	GlobalCryptoCrash,
	GlobalGoldRally,
}

var (
	lotteryPrize = decimal.NewFromInt(1000)
	sickCost     = decimal.NewFromInt(300)
	bonusPay     = decimal.NewFromInt(200)
	scamShare    = decimal.NewFromFloat(0.3)
	scamCap      = decimal.NewFromInt(500)
)

// personalEvent applies the first band the sample falls in. Bands are
// cumulative: lottery 2%, sick 3%, bonus 3%, scam 2%.
func personalEvent(p *PlayerState, u float64) *PersonalEvent {
	switch {
	case u < 0.02:
		p.Money = p.Money.Add(lotteryPrize)
		return &PersonalEvent{Kind: EventLottery, Money: lotteryPrize}
	case u < 0.05:
		p.Health -= 20
		p.Money = p.Money.Sub(sickCost)
		return &PersonalEvent{Kind: EventSick, Money: sickCost.Neg(), Health: -20}
	case u < 0.08:
		p.Money = p.Money.Add(bonusPay)
		return &PersonalEvent{Kind: EventBonus, Money: bonusPay}
	case u < 0.10:
		loss := decimal.Min(p.Money.Mul(scamShare), scamCap)
		if loss.IsNegative() {
			loss = decimal.Zero
		}
		p.Money = p.Money.Sub(loss)
		return &PersonalEvent{Kind: EventScam, Money: loss.Neg()}
	default:
		return nil
	}
}

// globalEvent applies one session-wide effect chosen by kind.
func globalEvent(s *Session, kind GlobalEventKind) GlobalEvent {
	ev := GlobalEvent{Kind: kind}
	switch kind {
	case GlobalBoom:
		s.Economy = EconomyBoom
		for _, p := range s.alivePlayers() {
			p.Happiness += 10
		}
	case GlobalRecession:
		s.Economy = EconomyRecession
		for _, p := range s.alivePlayers() {
			p.Stress += 15
		}
	case GlobalRecovery:
		s.Economy = EconomyNormal
	case GlobalCryptoMoon:
		ev.Shocked = append(ev.Shocked, s.market.Shock(1.3, "BTC")...)
		ev.Shocked = append(ev.Shocked, s.market.Shock(1.2, "ETH")...)
	case GlobalCryptoCrash:
		ev.Shocked = s.market.Shock(0.7, s.market.Symbols(ClassCrypto)...)
	case GlobalGoldRally:
		ev.Shocked = s.market.Shock(1.15, s.market.Symbols(ClassCommodity)...)
	}
	for _, p := range s.alivePlayers() {
		clampStats(p)
	}
	ev.Economy = s.Economy
	return ev
}
