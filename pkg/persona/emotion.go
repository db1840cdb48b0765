package persona

import (
	"encoding/json"
	"strings"
)

// Emotion is the single active mood label of a companion.
type Emotion string

const (
	Happy    Emotion = "happy"
	Sad      Emotion = "sad"
	Excited  Emotion = "excited"
	Calm     Emotion = "calm"
	Angry    Emotion = "angry"
	Confused Emotion = "confused"
	Loving   Emotion = "loving"
	Curious  Emotion = "curious"
	Playful  Emotion = "playful"
	Tired    Emotion = "tired"
)

// DefaultEmotion is used for fresh companions and for unrecognized labels.
const DefaultEmotion = Calm

// AllEmotions is the closed emotion set.
var AllEmotions = []Emotion{Happy, Sad, Excited, Calm, Angry, Confused, Loving, Curious, Playful, Tired}

// IsValid reports whether e is one of AllEmotions.
func (e Emotion) IsValid() bool {
	for _, known := range AllEmotions {
		if e == known {
			return true
		}
	}
	return false
}

// ParseEmotion maps a stored label to an Emotion. Unknown or malformed
// labels become DefaultEmotion.
func ParseEmotion(label string) Emotion {
	e := Emotion(strings.ToLower(strings.TrimSpace(label)))
	if e.IsValid() {
		return e
	}
	return DefaultEmotion
}

func (e Emotion) String() string {
	return string(e)
}

// UnmarshalText routes every decoded label through ParseEmotion.
func (e *Emotion) UnmarshalText(text []byte) error {
	*e = ParseEmotion(string(text))
	return nil
}

// UnmarshalJSON accepts any JSON value. Non-string values decode to
// DefaultEmotion so one bad field never discards the rest of a state.
func (e *Emotion) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		*e = DefaultEmotion
		return nil
	}
	*e = ParseEmotion(label)
	return nil
}

// MarshalText writes the label, substituting the default for invalid values.
func (e Emotion) MarshalText() ([]byte, error) {
	if !e.IsValid() {
		return []byte(DefaultEmotion), nil
	}
	return []byte(e), nil
}
