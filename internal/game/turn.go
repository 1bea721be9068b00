package game

// processTurn runs one simulated day. Callers hold the session write lock and
// have already checked the session is playing.
func processTurn(s *Session, rules Rules, rng RandomSource) *TurnResult {
	res := &TurnResult{
		SessionID:    s.ID,
		Day:          s.Day,
		Players:      make([]PlayerTurn, 0, len(s.order)),
		GlobalEvents: []GlobalEvent{},
	}

	s.market.Update(s.Economy, rng)

	interestDue := s.Day%rules.InterestInterval == 0
	for _, id := range s.order {
		p := s.players[id]
		if !p.Alive {
			p.Pending = nil
			continue
		}
		turn := PlayerTurn{PlayerID: p.ID, Username: p.Username}

		turn.Action = resolveAction(p, s.careers, rng)

		p.Energy -= 10
		p.Happiness = max(0, p.Happiness-2)

		payLivingExpenses(s, p)
		if interestDue {
			accrueInterest(p, rules)
		}
		if p.Career.Employed() {
			payWages(p, s.careers)
		}
		turn.Event = personalEvent(p, rng.Float64())

		clampStats(p)
		if defeated(p, rules) {
			p.Alive = false
			turn.Defeated = true
		}
		p.Score = score(p, s.market)
		p.Pending = nil

		turn.Stats = statSnapshot(p)
		turn.Alive = p.Alive
		turn.Score = p.Score
		res.Players = append(res.Players, turn)
	}

	if rng.Float64() < rules.GlobalEventChance {
		kind := globalEventKinds[pick(rng, len(globalEventKinds))]
		res.GlobalEvents = append(res.GlobalEvents, globalEvent(s, kind))
	}

	s.Day++
	res.Economy = s.Economy

	if s.Day > rules.MaxDays || s.aliveCount() <= rules.EndAliveThreshold {
		s.Status = StatusFinished
		res.GameOver = true
		res.Rankings = rank(s)
	}
	return res
}

// payLivingExpenses charges housing, vehicle and food, and credits the
// lifestyle happiness bonus of the chosen tiers.
func payLivingExpenses(s *Session, p *PlayerState) {
	cost := s.foodCost
	if tier, ok := s.housing[p.Housing]; ok {
		cost = cost.Add(tier.DailyCost)
		p.Happiness += tier.Happiness
	}
	if tier, ok := s.vehicles[p.Vehicle]; ok {
		cost = cost.Add(tier.DailyCost)
		p.Happiness += tier.Happiness
	}
	p.Money = p.Money.Sub(cost)
}

// clampStats pins the bounded stats to [0,100]. Money is unbounded and
// knowledge only has a floor.
func clampStats(p *PlayerState) {
	p.Happiness = clampStat(p.Happiness)
	p.Energy = clampStat(p.Energy)
	p.Health = clampStat(p.Health)
	p.Stress = clampStat(p.Stress)
	p.Knowledge = max(0, p.Knowledge)
}

func clampStat(v int) int {
	return min(100, max(0, v))
}

func defeated(p *PlayerState, rules Rules) bool {
	return p.Money.LessThan(rules.DefeatFloor) || p.Health <= 0 || p.Stress >= 100
}

func statSnapshot(p *PlayerState) StatSnapshot {
	return StatSnapshot{
		Money:     p.Money,
		Happiness: p.Happiness,
		Energy:    p.Energy,
		Knowledge: p.Knowledge,
		Health:    p.Health,
		Stress:    p.Stress,
	}
}
