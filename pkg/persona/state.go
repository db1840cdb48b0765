package persona

// Defaults for a companion that has never been persisted.
const (
	DefaultBonding       = 0.0
	DefaultEnergy        = 1.0
	DefaultMoodStability = 0.7
)

// CompanionState is the aggregate owned by one companion identity.
// The JSON shape is the persisted record.
type CompanionState struct {
	Traits        TraitVector `json:"traits"`
	Emotion       Emotion     `json:"emotional_state"`
	BondingLevel  float64     `json:"bonding_level"`
	EnergyLevel   float64     `json:"energy_level"`
	MoodStability float64     `json:"mood_stability"`
}

// DefaultState returns the state used when nothing is persisted for an identity.
func DefaultState() CompanionState {
	return CompanionState{
		Traits:        NewTraitVector(NeutralTrait),
		Emotion:       DefaultEmotion,
		BondingLevel:  DefaultBonding,
		EnergyLevel:   DefaultEnergy,
		MoodStability: DefaultMoodStability,
	}
}

// Clone returns a deep copy.
func (s CompanionState) Clone() CompanionState {
	out := s
	out.Traits = s.Traits.Clone()
	return out
}

// Normalize returns a copy with the trait set restored to exactly AllTraits,
// bounded fields clamped and the emotion validated.
//
// EnergyLevel is left untouched: drift can push it slightly outside [0, 1]
// and that value is kept as produced.
func (s CompanionState) Normalize() CompanionState {
	out := s
	out.Traits = s.Traits.normalized()
	if !out.Emotion.IsValid() {
		out.Emotion = DefaultEmotion
	}
	out.BondingLevel = clamp(s.BondingLevel, 0, MaxBonding)
	out.MoodStability = clamp(s.MoodStability, 0, 1)
	return out
}

// Stage returns the relationship stage for the current bonding level.
func (s CompanionState) Stage() Stage {
	return RelationshipStage(s.BondingLevel)
}

// InteractionAnalysis holds the heuristic signal scores of one utterance.
// Every field is in [0, 1].
type InteractionAnalysis struct {
	Positivity         float64 `json:"positivity"`
	Negativity         float64 `json:"negativity"`
	Playfulness        float64 `json:"playfulness"`
	EmotionalIntensity float64 `json:"emotional_intensity"`
	BondingSignal      float64 `json:"bonding_signal"`
}

// IsZero reports whether every signal is zero.
func (a InteractionAnalysis) IsZero() bool {
	return a == InteractionAnalysis{}
}

// Significance is the strongest single signal, used as memory importance.
func (a InteractionAnalysis) Significance() float64 {
	best := a.Positivity
	for _, v := range []float64{a.Negativity, a.Playfulness, a.EmotionalIntensity, a.BondingSignal} {
		if v > best {
			best = v
		}
	}
	return clamp(best, 0, 1)
}

// InteractionMemory is an append-only record of a significant interaction.
type InteractionMemory struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Content    string  `json:"content"`
	Importance float64 `json:"importance"`
	Context    string  `json:"context"`
	CreatedAt  int64   `json:"created_at"`
}

// Memory type tags.
const (
	MemoryInteraction = "interaction"
	MemoryMilestone   = "milestone"
)
