package persona

// Animation identifiers understood by the avatar renderer.
const (
	AnimationHappyBounce   = "happy_bounce"
	AnimationHappyIdle     = "happy_idle"
	AnimationSadDroop      = "sad_droop"
	AnimationExcitedJump   = "excited_jump"
	AnimationCalmIdle      = "calm_idle"
	AnimationAngryShake    = "angry_shake"
	AnimationConfusedTilt  = "confused_tilt"
	AnimationLovingHearts  = "loving_hearts"
	AnimationCuriousLean   = "curious_lean"
	AnimationPlayfulWiggle = "playful_wiggle"
	AnimationTiredYawn     = "tired_yawn"
	AnimationDefault       = "idle"
)

// HighEnergyThreshold splits the happy animation in two.
const HighEnergyThreshold = 0.7

var emotionAnimations = map[Emotion]string{
	Sad:      AnimationSadDroop,
	Excited:  AnimationExcitedJump,
	Calm:     AnimationCalmIdle,
	Angry:    AnimationAngryShake,
	Confused: AnimationConfusedTilt,
	Loving:   AnimationLovingHearts,
	Curious:  AnimationCuriousLean,
	Playful:  AnimationPlayfulWiggle,
	Tired:    AnimationTiredYawn,
}

// AnimationFor maps the state to an animation identifier. It is total.
func AnimationFor(s CompanionState) string {
	if s.Emotion == Happy {
		if s.EnergyLevel > HighEnergyThreshold {
			return AnimationHappyBounce
		}
		return AnimationHappyIdle
	}
	if id, ok := emotionAnimations[s.Emotion]; ok {
		return id
	}
	return AnimationDefault
}
