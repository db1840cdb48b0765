package persona

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTick_RelaxesTowardNeutral(t *testing.T) {
	drifter := NewDrifter(rand.New(rand.NewSource(1)), DefaultEnergyJitter)

	state := DefaultState()
	state.Traits = NewTraitVector(0)

	prev := state
	for i := 0; i < 5; i++ {
		next := drifter.Tick(prev, 24)
		for _, trait := range AllTraits {
			assert.Greater(t, next.Traits[trait], prev.Traits[trait], "tick %d trait %s", i, trait)
			assert.LessOrEqual(t, next.Traits[trait], NeutralTrait)
		}
		prev = next
	}
}

func TestTick_FromAboveNeverOvershoots(t *testing.T) {
	drifter := NewDrifter(nil, 0)

	state := DefaultState()
	state.Traits = NewTraitVector(1)

	state = drifter.Tick(state, 1e6)
	for _, trait := range AllTraits {
		assert.Equal(t, NeutralTrait, state.Traits[trait])
	}
}

func TestTick_EnergyCycle(t *testing.T) {
	drifter := NewDrifter(nil, 0)

	tests := []struct {
		hours float64
		want  float64
	}{
		{24, 1.0},
		{12, 0.8},
		{6, 0.9},
		{36, 0.8},
	}
	for _, tt := range tests {
		got := drifter.Tick(DefaultState(), tt.hours)
		assert.InDelta(t, tt.want, got.EnergyLevel, 1e-9, "hours=%v", tt.hours)
	}
}

func TestTick_EnergyJitterIsBoundedAndUnclamped(t *testing.T) {
	drifter := NewDrifter(rand.New(rand.NewSource(99)), DefaultEnergyJitter)

	sawAboveOne := false
	for i := 0; i < 500; i++ {
		got := drifter.Tick(DefaultState(), 24)
		require.GreaterOrEqual(t, got.EnergyLevel, 0.9)
		require.LessOrEqual(t, got.EnergyLevel, 1.1)
		if got.EnergyLevel > 1 {
			sawAboveOne = true
		}
	}
	assert.True(t, sawAboveOne, "energy is expected to exceed 1.0 at the top of the cycle")
}

func TestTick_Reproducible(t *testing.T) {
	a := NewDrifter(rand.New(rand.NewSource(5)), DefaultEnergyJitter)
	b := NewDrifter(rand.New(rand.NewSource(5)), DefaultEnergyJitter)

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Tick(DefaultState(), 3), b.Tick(DefaultState(), 3))
	}
}

func TestTick_MoodStability(t *testing.T) {
	drifter := NewDrifter(nil, 0)

	got := drifter.Tick(DefaultState(), 10)
	assert.InDelta(t, 0.8, got.MoodStability, 1e-9)

	got = drifter.Tick(DefaultState(), 100)
	assert.Equal(t, 1.0, got.MoodStability)
}

func TestTick_InvalidHoursIsNoop(t *testing.T) {
	drifter := NewDrifter(nil, DefaultEnergyJitter)
	state := DefaultState()
	state.Traits[Humor] = 0.9

	assert.Equal(t, state, drifter.Tick(state, -5))
	assert.Equal(t, state, drifter.Tick(state, math.NaN()))
	assert.Equal(t, state, drifter.Tick(state, math.Inf(1)))
}

func TestTick_ZeroHoursResamplesEnergyOnly(t *testing.T) {
	drifter := NewDrifter(rand.New(rand.NewSource(7)), DefaultEnergyJitter)
	state := DefaultState()
	state.Traits[Humor] = 0.9
	state.EnergyLevel = 0.2
	state.MoodStability = 0.3

	got := drifter.Tick(state, 0)
	assert.Equal(t, state.Traits, got.Traits)
	assert.Equal(t, 0.3, got.MoodStability)
	// phase 0 puts the day cycle at its 1.0 peak
	assert.InDelta(t, 1.0, got.EnergyLevel, DefaultEnergyJitter)
	assert.NotEqual(t, 0.2, got.EnergyLevel)
}
