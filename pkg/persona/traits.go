package persona

// Trait names one bounded personality dimension.
type Trait string

const (
	Friendliness   Trait = "friendliness"
	Playfulness    Trait = "playfulness"
	Curiosity      Trait = "curiosity"
	Empathy        Trait = "empathy"
	Intelligence   Trait = "intelligence"
	Humor          Trait = "humor"
	Shyness        Trait = "shyness"
	Protectiveness Trait = "protectiveness"
	Independence   Trait = "independence"
	Loyalty        Trait = "loyalty"
)

// AllTraits is the closed trait set, in presentation order.
var AllTraits = []Trait{
	Friendliness,
	Playfulness,
	Curiosity,
	Empathy,
	Intelligence,
	Humor,
	Shyness,
	Protectiveness,
	Independence,
	Loyalty,
}

// NeutralTrait is the baseline every trait starts at and drifts back to.
const NeutralTrait = 0.5

// IsKnownTrait reports whether name belongs to the closed trait set.
func IsKnownTrait(name Trait) bool {
	for _, t := range AllTraits {
		if t == name {
			return true
		}
	}
	return false
}

// TraitVector maps every trait in AllTraits to a value in [0, 1].
type TraitVector map[Trait]float64

// NewTraitVector returns a vector with every trait set to value.
func NewTraitVector(value float64) TraitVector {
	tv := make(TraitVector, len(AllTraits))
	for _, t := range AllTraits {
		tv[t] = clamp(value, 0, 1)
	}
	return tv
}

// Get returns the trait value, or the neutral baseline if missing.
func (tv TraitVector) Get(name Trait) float64 {
	if v, ok := tv[name]; ok {
		return v
	}
	return NeutralTrait
}

// Adjust adds delta to a trait and clamps the result. Unknown traits are ignored
// so the set can never grow at runtime.
func (tv TraitVector) Adjust(name Trait, delta float64) {
	if !IsKnownTrait(name) {
		return
	}
	tv[name] = clamp(tv.Get(name)+delta, 0, 1)
}

// Clone returns an independent copy.
func (tv TraitVector) Clone() TraitVector {
	out := make(TraitVector, len(tv))
	for k, v := range tv {
		out[k] = v
	}
	return out
}

// normalized returns a copy holding exactly the known traits, clamped.
// Missing traits get the neutral baseline.
func (tv TraitVector) normalized() TraitVector {
	out := make(TraitVector, len(AllTraits))
	for _, t := range AllTraits {
		out[t] = clamp(tv.Get(t), 0, 1)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
