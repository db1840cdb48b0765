package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyze_Degenerate(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t", "ok"} {
		t.Run(input, func(t *testing.T) {
			assert.True(t, Analyze(input).IsZero(), "expected zero analysis for %q", input)
		})
	}
}

func TestAnalyze_Signals(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, a InteractionAnalysis)
	}{
		{
			name:  "affection",
			input: "I love you, you are amazing!",
			check: func(t *testing.T, a InteractionAnalysis) {
				assert.InDelta(t, 0.4, a.Positivity, 1e-9)
				assert.InDelta(t, 0.6, a.BondingSignal, 1e-9)
				assert.Zero(t, a.Negativity)
				assert.Greater(t, a.EmotionalIntensity, 0.2)
			},
		},
		{
			name:  "insult",
			input: "shut up, you are stupid",
			check: func(t *testing.T, a InteractionAnalysis) {
				assert.InDelta(t, 0.6, a.Negativity, 1e-9)
				assert.Zero(t, a.Positivity)
				assert.Zero(t, a.BondingSignal)
			},
		},
		{
			name:  "playful",
			input: "haha that joke was so silly lol",
			check: func(t *testing.T, a InteractionAnalysis) {
				assert.Equal(t, 1.0, a.Playfulness)
			},
		},
		{
			name:  "shouting",
			input: "WOW!!!!",
			check: func(t *testing.T, a InteractionAnalysis) {
				assert.Equal(t, 1.0, a.EmotionalIntensity)
			},
		},
		{
			name:  "identity question",
			input: "who are you? tell me about yourself",
			check: func(t *testing.T, a InteractionAnalysis) {
				assert.InDelta(t, 0.6, a.BondingSignal, 1e-9)
			},
		},
		{
			name:  "case insensitive",
			input: "THANK YOU, GREAT",
			check: func(t *testing.T, a InteractionAnalysis) {
				assert.InDelta(t, 0.4, a.Positivity, 1e-9)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Analyze(tt.input))
		})
	}
}

func TestAnalyze_Capped(t *testing.T) {
	a := Analyze("stupid stupid stupid stupid dumb idiot hate hate")
	assert.Equal(t, 1.0, a.Negativity)

	a = Analyze("love love love love love love love")
	assert.Equal(t, 1.0, a.Positivity)
}
