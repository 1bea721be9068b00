package game

import (
	"lifesim/internal/catalog"

	"github.com/shopspring/decimal"
)

type CareerLevel struct {
	Level        int
	Title        string
	Salary       decimal.Decimal
	Requirements catalog.Requirements
}

type CareerTrack struct {
	ID     string
	Name   string
	Levels []CareerLevel
}

func newCareerTracks(c *catalog.Catalog) map[string]CareerTrack {
	out := make(map[string]CareerTrack, len(c.Careers))
	for _, t := range c.Careers {
		track := CareerTrack{ID: t.ID, Name: t.Name, Levels: make([]CareerLevel, 0, len(t.Levels))}
		for i, l := range t.Levels {
			track.Levels = append(track.Levels, CareerLevel{
				Level:        i + 1,
				Title:        l.Title,
				Salary:       decimal.NewFromFloat(l.Salary),
				Requirements: l.Requires,
			})
		}
		out[t.ID] = track
	}
	return out
}

// level returns the 1-based level n, if the track has it.
func (t CareerTrack) level(n int) (CareerLevel, bool) {
	if n < 1 || n > len(t.Levels) {
		return CareerLevel{}, false
	}
	return t.Levels[n-1], true
}

func chooseCareer(p *PlayerState, tracks map[string]CareerTrack, trackID string) (string, error) {
	if p.Career.Employed() {
		return "", ErrAlreadyEmployed
	}
	track, ok := tracks[trackID]
	if !ok {
		return "", ErrCareerNotFound
	}
	p.Career = Career{TrackID: track.ID, Level: 1}
	first, _ := track.level(1)
	return first.Title, nil
}

func promoteCareer(p *PlayerState, tracks map[string]CareerTrack) (string, error) {
	if !p.Career.Employed() {
		return "", ErrNoCareer
	}
	track, ok := tracks[p.Career.TrackID]
	if !ok {
		return "", ErrCareerNotFound
	}
	next, ok := track.level(p.Career.Level + 1)
	if !ok {
		return "", ErrMaxLevelReached
	}
	if short := shortfalls(p, next.Requirements); len(short) > 0 {
		return "", &RequirementsError{Title: next.Title, Shortfalls: short}
	}
	p.Career.Level++
	return next.Title, nil
}

// shortfalls lists every required attribute the player is below. A zero
// requirement is not checked.
func shortfalls(p *PlayerState, req catalog.Requirements) []Shortfall {
	var out []Shortfall
	check := func(attr string, have, need float64) {
		if need > 0 && have < need {
			out = append(out, Shortfall{Attribute: attr, Have: have, Need: need})
		}
	}
	check("work_days", float64(p.WorkDays), float64(req.WorkDays))
	check("knowledge", float64(p.Knowledge), req.Knowledge)
	check("money", p.Money.InexactFloat64(), req.Money)
	check("health", float64(p.Health), req.Health)
	check("happiness", float64(p.Happiness), req.Happiness)
	return out
}

// payWages credits one workday of the player's current level.
func payWages(p *PlayerState, tracks map[string]CareerTrack) decimal.Decimal {
	track, ok := tracks[p.Career.TrackID]
	if !ok {
		return decimal.Zero
	}
	lvl, ok := track.level(p.Career.Level)
	if !ok {
		return decimal.Zero
	}
	p.Money = p.Money.Add(lvl.Salary)
	p.WorkDays++
	p.Energy -= 25
	p.Stress += 10
	p.Knowledge++
	return lvl.Salary
}

func careerView(p *PlayerState, tracks map[string]CareerTrack) *CareerView {
	if !p.Career.Employed() {
		return nil
	}
	v := &CareerView{TrackID: p.Career.TrackID, Level: p.Career.Level}
	if track, ok := tracks[p.Career.TrackID]; ok {
		if lvl, ok := track.level(p.Career.Level); ok {
			v.Title = lvl.Title
			v.Salary = lvl.Salary.InexactFloat64()
		}
	}
	return v
}
