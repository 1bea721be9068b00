package game

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ActionKind is the closed set of per-turn actions a player may queue.
type ActionKind string

const (
	ActionRest     ActionKind = "rest"
	ActionWork     ActionKind = "work"
	ActionStudy    ActionKind = "study"
	ActionTravel   ActionKind = "travel"
	ActionExercise ActionKind = "exercise"
	ActionSleep    ActionKind = "sleep"
	ActionInvest   ActionKind = "invest"
)

var ActionKinds = []ActionKind{
	ActionRest,
	ActionWork,
	ActionStudy,
	ActionTravel,
	ActionExercise,
	ActionSleep,
	ActionInvest,
}

func ParseActionKind(s string) (ActionKind, error) {
	k := ActionKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ActionKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

var (
	unemployedWage = decimal.NewFromInt(50)
	studyCost      = decimal.NewFromInt(30)
	travelCost     = decimal.NewFromInt(200)
	investStake    = decimal.NewFromInt(500)
	investGain     = decimal.NewFromInt(300)
	investLoss     = decimal.NewFromInt(-200)
)

// resolveAction applies the player's queued action; nothing queued means rest.
func resolveAction(p *PlayerState, tracks map[string]CareerTrack, rng RandomSource) *ActionOutcome {
	kind := ActionRest
	if p.Pending != nil {
		kind = *p.Pending
	}
	out := &ActionOutcome{Kind: kind, Success: true, Money: decimal.Zero}

	switch kind {
	case ActionRest:
		p.Energy += 20
		p.Stress -= 10
	case ActionWork:
		wage := unemployedWage
		if track, ok := tracks[p.Career.TrackID]; ok {
			if lvl, ok := track.level(p.Career.Level); ok {
				wage = lvl.Salary
			}
		}
		p.Money = p.Money.Add(wage)
		p.Energy -= 30
		p.Stress += 15
		out.Money = wage
	case ActionStudy:
		if p.Money.LessThan(studyCost) {
			return fail(out, "insufficient funds")
		}
		p.Money = p.Money.Sub(studyCost)
		p.Knowledge += 10
		p.Energy -= 20
		out.Money = studyCost.Neg()
	case ActionTravel:
		if p.Money.LessThan(travelCost) {
			return fail(out, "insufficient funds")
		}
		p.Money = p.Money.Sub(travelCost)
		p.Happiness += 30
		p.Stress -= 20
		out.Money = travelCost.Neg()
	case ActionExercise:
		p.Health += 15
		p.Energy -= 25
		p.Happiness += 10
	case ActionSleep:
		p.Energy = 100
		p.Stress -= 25
	case ActionInvest:
		if p.Money.LessThan(investStake) {
			return fail(out, "insufficient funds")
		}
		gain := investLoss
		if rng.Float64() > 0.5 {
			gain = investGain
		}
		p.Money = p.Money.Add(gain)
		out.Money = gain
	default:
		return fail(out, "unknown action")
	}
	return out
}

func fail(out *ActionOutcome, reason string) *ActionOutcome {
	out.Success = false
	out.Reason = reason
	return out
}
