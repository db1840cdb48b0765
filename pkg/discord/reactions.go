package discord

import (
	"math/rand"

	"kokoro/pkg/persona"
)

// EmotionReactions maps each non-calm emotion to the emojis the companion
// reacts with. Multiple emojis per emotion add variety.
var EmotionReactions = map[persona.Emotion][]string{
	persona.Happy:    {"😊", "✨", "🙌"},
	persona.Sad:      {"🥺", "😢", "💔"},
	persona.Excited:  {"🎉", "🥳", "💫"},
	persona.Angry:    {"😤", "💢"},
	persona.Confused: {"❓", "🤔"},
	persona.Loving:   {"💕", "💗", "🥰"},
	persona.Curious:  {"👀", "🧐"},
	persona.Playful:  {"😜", "😂", "🎮"},
	persona.Tired:    {"😴", "🥱"},
}

// reactionFor picks an emoji for the emotion, or "" when the companion
// should not react.
func reactionFor(emotion persona.Emotion) string {
	emojis := EmotionReactions[emotion]
	if len(emojis) == 0 {
		return ""
	}
	return emojis[rand.Intn(len(emojis))]
}
