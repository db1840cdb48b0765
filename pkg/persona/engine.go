package persona

// DefaultLearningRate scales every trait update.
const DefaultLearningRate = 0.05

// DefaultInteractionQuality is used when the caller has no quality estimate.
const DefaultInteractionQuality = 0.5

// Emotion selection thresholds, evaluated in priority order.
const (
	sadThreshold     = 0.5
	happyThreshold   = 0.6
	playfulThreshold = 0.5
	excitedThreshold = 0.7
	lovingThreshold  = 0.4
)

// Engine applies interaction analyses to companion state.
type Engine struct {
	LearningRate float64
}

// NewEngine returns an engine with the given learning rate; non-positive
// rates fall back to DefaultLearningRate.
func NewEngine(learningRate float64) *Engine {
	if learningRate <= 0 {
		learningRate = DefaultLearningRate
	}
	return &Engine{LearningRate: learningRate}
}

// Apply returns the state that results from one analyzed interaction.
// The input state is not modified. Apply is deterministic.
func (e *Engine) Apply(state CompanionState, a InteractionAnalysis, quality float64) CompanionState {
	quality = clamp(quality, 0, 1)
	rate := e.LearningRate

	next := state.Clone()
	next.Traits = next.Traits.normalized()

	next.Traits.Adjust(Friendliness, (a.Positivity*0.1-a.Negativity*0.15)*rate)
	next.Traits.Adjust(Playfulness, (a.Playfulness*0.1+a.EmotionalIntensity*0.05)*rate)
	next.Traits.Adjust(Empathy, (a.BondingSignal*0.1+quality*0.05)*rate)
	next.Traits.Adjust(Shyness, (-a.BondingSignal*0.05-a.Positivity*0.03)*rate)
	next.Traits.Adjust(Loyalty, (a.BondingSignal*0.08+quality*0.07)*rate)

	next.Emotion = SelectEmotion(a)

	bonding := state.BondingLevel + 2.0*a.BondingSignal + 1.5*a.Positivity + 1.0*quality - 2.0*a.Negativity
	next.BondingLevel = clamp(bonding, 0, MaxBonding)

	return next
}

// SelectEmotion picks the emotion for an analysis. The first matching rule wins.
func SelectEmotion(a InteractionAnalysis) Emotion {
	switch {
	case a.Negativity > sadThreshold:
		return Sad
	case a.Positivity > happyThreshold:
		return Happy
	case a.Playfulness > playfulThreshold:
		return Playful
	case a.EmotionalIntensity > excitedThreshold:
		return Excited
	case a.BondingSignal > lovingThreshold:
		return Loving
	default:
		return Calm
	}
}
