package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionKind(t *testing.T) {
	for _, k := range ActionKinds {
		got, err := ParseActionKind(" " + string(k) + " ")
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseActionKind("hackOpponent")
	assert.ErrorIs(t, err, ErrInvalidAction)
	_, err = ParseActionKind("")
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestResolveAction(t *testing.T) {
	tracks := newCareerTracks(testCatalog(t))

	tests := []struct {
		name    string
		kind    *ActionKind
		arrange func(p *PlayerState)
		rand    float64
		success bool
		check   func(t *testing.T, p *PlayerState)
	}{
		{
			name: "nothing queued rests", success: true,
			arrange: func(p *PlayerState) { p.Energy = 50; p.Stress = 30 },
			check: func(t *testing.T, p *PlayerState) {
				assert.Equal(t, 70, p.Energy)
				assert.Equal(t, 20, p.Stress)
			},
		},
		{
			name: "work unemployed", kind: kindPtr(ActionWork), success: true,
			check: func(t *testing.T, p *PlayerState) {
				assert.True(t, dec("900").Equal(p.Money))
				assert.Equal(t, 70, p.Energy)
				assert.Equal(t, 15, p.Stress)
			},
		},
		{
			name: "work employed earns salary", kind: kindPtr(ActionWork), success: true,
			arrange: func(p *PlayerState) { p.Career = Career{TrackID: "BUSINESS", Level: 2} },
			check: func(t *testing.T, p *PlayerState) {
				assert.True(t, dec("970").Equal(p.Money))
			},
		},
		{
			name: "study", kind: kindPtr(ActionStudy), success: true,
			check: func(t *testing.T, p *PlayerState) {
				assert.Equal(t, 20, p.Knowledge)
				assert.Equal(t, 80, p.Energy)
				assert.True(t, dec("820").Equal(p.Money))
			},
		},
		{
			name: "travel without funds", kind: kindPtr(ActionTravel), success: false,
			arrange: func(p *PlayerState) { p.Money = dec("150") },
			check: func(t *testing.T, p *PlayerState) {
				assert.True(t, dec("150").Equal(p.Money))
				assert.Equal(t, 50, p.Happiness)
			},
		},
		{
			name: "travel", kind: kindPtr(ActionTravel), success: true,
			arrange: func(p *PlayerState) { p.Stress = 40 },
			check: func(t *testing.T, p *PlayerState) {
				assert.True(t, dec("650").Equal(p.Money))
				assert.Equal(t, 80, p.Happiness)
				assert.Equal(t, 20, p.Stress)
			},
		},
		{
			name: "exercise", kind: kindPtr(ActionExercise), success: true,
			arrange: func(p *PlayerState) { p.Health = 60 },
			check: func(t *testing.T, p *PlayerState) {
				assert.Equal(t, 75, p.Health)
				assert.Equal(t, 75, p.Energy)
				assert.Equal(t, 60, p.Happiness)
			},
		},
		{
			name: "sleep", kind: kindPtr(ActionSleep), success: true,
			arrange: func(p *PlayerState) { p.Energy = 5; p.Stress = 50 },
			check: func(t *testing.T, p *PlayerState) {
				assert.Equal(t, 100, p.Energy)
				assert.Equal(t, 25, p.Stress)
			},
		},
		{
			name: "invest wins", kind: kindPtr(ActionInvest), rand: 0.9, success: true,
			arrange: func(p *PlayerState) { p.Money = dec("500") },
			check: func(t *testing.T, p *PlayerState) {
				assert.True(t, dec("800").Equal(p.Money))
			},
		},
		{
			name: "invest loses", kind: kindPtr(ActionInvest), rand: 0.2, success: true,
			arrange: func(p *PlayerState) { p.Money = dec("600") },
			check: func(t *testing.T, p *PlayerState) {
				assert.True(t, dec("400").Equal(p.Money))
			},
		},
		{
			name: "invest below stake", kind: kindPtr(ActionInvest), success: false,
			arrange: func(p *PlayerState) { p.Money = dec("499") },
			check: func(t *testing.T, p *PlayerState) {
				assert.True(t, dec("499").Equal(p.Money))
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := testPlayer()
			if tc.arrange != nil {
				tc.arrange(p)
			}
			p.Pending = tc.kind
			out := resolveAction(p, tracks, &seqRand{fallback: tc.rand})
			assert.Equal(t, tc.success, out.Success)
			if tc.kind != nil {
				assert.Equal(t, *tc.kind, out.Kind)
			} else {
				assert.Equal(t, ActionRest, out.Kind)
			}
			tc.check(t, p)
		})
	}
}

func kindPtr(k ActionKind) *ActionKind { return &k }
