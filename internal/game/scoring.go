package game

import (
	"sort"

	"github.com/shopspring/decimal"
)

var (
	moneyWeight     = decimal.NewFromFloat(2.0)
	happinessWeight = decimal.NewFromFloat(1.5)
	knowledgeWeight = decimal.NewFromFloat(1.5)
	healthWeight    = decimal.NewFromFloat(1.0)
)

// Prizes by finishing position; positions past the table win nothing.
var Prizes = []int64{1000, 500, 250}

// score is zero for a defeated player. Otherwise it weighs money highest,
// then happiness and knowledge, then health, and adds live asset value and
// every bank balance at face value.
func score(p *PlayerState, m *Market) int64 {
	if !p.Alive {
		return 0
	}
	total := p.Money.Mul(moneyWeight).
		Add(decimal.NewFromInt(int64(p.Happiness)).Mul(happinessWeight)).
		Add(decimal.NewFromInt(int64(p.Knowledge)).Mul(knowledgeWeight)).
		Add(decimal.NewFromInt(int64(p.Health)).Mul(healthWeight)).
		Add(assetValue(p, m)).
		Add(bankTotal(p))
	return total.Floor().IntPart()
}

// rank orders every player by score, highest first. Equal scores keep
// registration order.
func rank(s *Session) []Ranking {
	out := make([]Ranking, 0, len(s.order))
	for _, id := range s.order {
		p := s.players[id]
		out = append(out, Ranking{
			PlayerID: p.ID,
			Username: p.Username,
			Score:    p.Score,
			Alive:    p.Alive,
			Stats:    statSnapshot(p),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := range out {
		out[i].Rank = i + 1
		if i < len(Prizes) {
			out[i].Prize = Prizes[i]
		}
	}
	return out
}
