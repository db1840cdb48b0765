package persona

import (
	"math"
	"math/rand"
	"sync"
)

// DefaultEnergyJitter bounds the random energy offset applied per tick.
const DefaultEnergyJitter = 0.1

const (
	traitRelaxPerHour    = 0.001
	moodRecoveryPerHour  = 0.01
	energyBase           = 0.8
	energyCycleAmplitude = 0.2
	hoursPerDay          = 24.0
)

// Drifter applies time-based relaxation to companion state.
// It is safe for concurrent use.
type Drifter struct {
	mu     sync.Mutex
	rng    *rand.Rand
	jitter float64
}

// NewDrifter returns a drifter drawing energy jitter from rng within
// [-jitter, jitter]. A nil rng gets a fixed-seed source.
func NewDrifter(rng *rand.Rand, jitter float64) *Drifter {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Drifter{rng: rng, jitter: math.Abs(jitter)}
}

// Tick returns the state after hoursElapsed of background drift.
// Negative or non-finite durations leave the state unchanged. A zero duration
// only resamples energy.
//
// Traits relax toward NeutralTrait and never cross it. EnergyLevel is set to a
// day-cycle value plus jitter and is intentionally not clamped.
func (d *Drifter) Tick(state CompanionState, hoursElapsed float64) CompanionState {
	next := state.Clone()
	if hoursElapsed < 0 || math.IsNaN(hoursElapsed) || math.IsInf(hoursElapsed, 0) {
		return next
	}

	factor := min(hoursElapsed*traitRelaxPerHour, 1.0)
	next.Traits = next.Traits.normalized()
	for _, t := range AllTraits {
		v := next.Traits[t]
		next.Traits[t] = clamp(v+(NeutralTrait-v)*factor, 0, 1)
	}

	phase := math.Mod(hoursElapsed, hoursPerDay) / hoursPerDay
	base := energyBase + energyCycleAmplitude*math.Abs(0.5-phase)*2
	next.EnergyLevel = base + d.nextJitter()

	next.MoodStability = min(1.0, state.MoodStability+hoursElapsed*moodRecoveryPerHour)
	return next
}

func (d *Drifter) nextJitter() float64 {
	if d.jitter == 0 {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return (d.rng.Float64()*2 - 1) * d.jitter
}
