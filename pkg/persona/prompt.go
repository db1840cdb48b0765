package persona

import (
	"fmt"
	"sort"
	"strings"
)

// dominantTraitThreshold is the value a trait must exceed to be described.
const dominantTraitThreshold = 0.6

var traitPhrases = map[Trait]string{
	Friendliness:   "warm and friendly",
	Playfulness:    "playful and fun-loving",
	Curiosity:      "curious and eager to learn",
	Empathy:        "empathetic and caring",
	Intelligence:   "thoughtful and intelligent",
	Humor:          "witty with a good sense of humor",
	Shyness:        "a little shy and reserved",
	Protectiveness: "protective of the people you care about",
	Independence:   "independent and self-assured",
	Loyalty:        "deeply loyal",
}

const balancedPhrase = "balanced and adaptable"

// DominantTraits returns the traits above the dominance threshold, strongest first.
// Ties keep AllTraits order.
func DominantTraits(tv TraitVector) []Trait {
	var out []Trait
	for _, t := range AllTraits {
		if tv.Get(t) > dominantTraitThreshold {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return tv.Get(out[i]) > tv.Get(out[j])
	})
	return out
}

// PersonalityDescription describes the dominant traits in words.
func PersonalityDescription(tv TraitVector) string {
	dominant := DominantTraits(tv)
	if len(dominant) == 0 {
		return balancedPhrase
	}
	phrases := make([]string, len(dominant))
	for i, t := range dominant {
		phrases[i] = traitPhrases[t]
	}
	return strings.Join(phrases, ", ")
}

// RenderPrompt builds the conditioning block for an external text generator.
func RenderPrompt(s CompanionState) string {
	return fmt.Sprintf(`[Companion Personality]
You are %s.
Current emotional state: %s
Relationship: you and the user are %s (bonding level: %.0f/100)
Let your personality, your current mood and how close you are to the user shape every reply.`,
		PersonalityDescription(s.Traits),
		s.Emotion,
		relationshipPhrase(s.BondingLevel),
		s.BondingLevel)
}

// Style modifier names.
const (
	StyleEnthusiasm          = "enthusiasm"
	StyleFormality           = "formality"
	StyleVerbosity           = "verbosity"
	StyleEmotionalExpression = "emotional_expression"
	StyleHumorFrequency      = "humor_frequency"
	StyleShynessFactor       = "shyness_factor"
	StyleProtectiveInstinct  = "protective_instinct"
)

// StyleModifiers projects single trait values onto named response-style knobs.
func StyleModifiers(s CompanionState) map[string]float64 {
	tv := s.Traits
	return map[string]float64{
		StyleEnthusiasm:          tv.Get(Playfulness),
		StyleFormality:           1 - tv.Get(Friendliness),
		StyleVerbosity:           tv.Get(Curiosity),
		StyleEmotionalExpression: tv.Get(Empathy),
		StyleHumorFrequency:      tv.Get(Humor),
		StyleShynessFactor:       tv.Get(Shyness),
		StyleProtectiveInstinct:  tv.Get(Protectiveness),
	}
}
