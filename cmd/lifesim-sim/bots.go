package main

import (
	"lifesim/internal/game"

	"github.com/shopspring/decimal"
)

// Strategy decides a bot's trades and queued action for one day.
type Strategy interface {
	Name() string
	Play(e *game.Engine, sessionID string, p game.PlayerSnapshot) game.ActionKind
}

var strategies = []Strategy{worker{track: "TECH"}, investor{symbol: "TECH"}, saver{}, drifter{}}

func strategyFor(i int) Strategy {
	return strategies[i%len(strategies)]
}

// recoverStats picks a restorative action when a stat is close to its floor, or
// returns false when the bot is free to pursue its goal.
func recoverStats(p game.PlayerSnapshot) (game.ActionKind, bool) {
	switch {
	case p.Stats.Energy < 35:
		return game.ActionSleep, true
	case p.Stats.Stress > 70:
		return game.ActionRest, true
	case p.Stats.Health < 40:
		return game.ActionExercise, true
	case p.Stats.Happiness < 20 && p.Stats.Money.GreaterThan(decimal.NewFromInt(400)):
		return game.ActionTravel, true
	}
	return "", false
}

type worker struct{ track string }

func (worker) Name() string { return "worker" }

func (w worker) Play(e *game.Engine, sid string, p game.PlayerSnapshot) game.ActionKind {
	if p.Career == nil {
		_, _ = e.ChooseCareer(sid, p.ID, w.track)
	} else {
		// Promotion fails quietly until the requirements are met.
		_, _ = e.PromoteCareer(sid, p.ID)
	}
	if kind, ok := recoverStats(p); ok {
		return kind
	}
	if p.Stats.Knowledge < 40 && p.WorkDays%3 == 2 {
		return game.ActionStudy
	}
	return game.ActionWork
}

type investor struct{ symbol string }

func (investor) Name() string { return "investor" }

func (v investor) Play(e *game.Engine, sid string, p game.PlayerSnapshot) game.ActionKind {
	var held decimal.Decimal
	for _, h := range p.Holdings {
		if h.Symbol == v.symbol {
			held = h.Units
			if h.MarketValue.GreaterThan(h.TotalCost.Mul(decimal.NewFromFloat(1.15))) {
				_, _ = e.SellInstrument(sid, p.ID, v.symbol, h.Units)
				held = decimal.Zero
			}
		}
	}
	if held.IsZero() && p.Stats.Money.GreaterThan(decimal.NewFromInt(600)) {
		_, _ = e.BuyInstrument(sid, p.ID, v.symbol, decimal.NewFromInt(2))
	}
	if kind, ok := recoverStats(p); ok {
		return kind
	}
	return game.ActionWork
}

type saver struct{}

func (saver) Name() string { return "saver" }

func (saver) Play(e *game.Engine, sid string, p game.PlayerSnapshot) game.ActionKind {
	if p.Stats.Money.GreaterThan(decimal.NewFromInt(700)) {
		_, _ = e.DepositBank(sid, p.ID, game.AccountSavings, decimal.NewFromInt(200))
	}
	if kind, ok := recoverStats(p); ok {
		return kind
	}
	return game.ActionWork
}

// drifter never plans; it cycles through the action list.
type drifter struct{}

func (drifter) Name() string { return "drifter" }

func (drifter) Play(_ *game.Engine, _ string, p game.PlayerSnapshot) game.ActionKind {
	n := int64(len(game.ActionKinds))
	return game.ActionKinds[((p.Score%n)+n)%n]
}
