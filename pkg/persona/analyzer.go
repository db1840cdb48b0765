package persona

import (
	"regexp"
	"strings"
	"unicode"
)

var positiveKeywords = []string{
	"love", "like", "great", "amazing", "awesome", "wonderful", "happy", "good",
	"nice", "beautiful", "thank", "thanks", "cute", "best", "fantastic", "sweet",
	"glad", "excellent", "perfect", "brilliant",
}

var negativeKeywords = []string{
	"hate", "stupid", "bad", "terrible", "awful", "angry", "annoying", "shut up",
	"dumb", "idiot", "useless", "worst", "boring", "ugly", "go away",
}

var playfulKeywords = []string{
	"haha", "hehe", "lol", "lmao", "joke", "fun", "play", "game", "silly",
	"tease", "funny", "prank", "giggle", "xd",
}

// bondingPatterns each count once per match.
var bondingPatterns = []*regexp.Regexp{
	// who are you / how do you feel / what do you think
	regexp.MustCompile(`\b(?:who|what|how)\s+(?:are|do|did|were)\s+you\b`),
	regexp.MustCompile(`\b(?:are|do)\s+you\s+(?:feel|feeling|happy|sad|okay|ok|lonely|like|love|think)\b`),
	regexp.MustCompile(`\btell\s+me\s+(?:about|more\s+about)\s+(?:yourself|you)\b`),
	// first-person affection or trust
	regexp.MustCompile(`\bi\s+(?:really\s+)?(?:love|like|trust|miss|adore|care\s+about|appreciate)\b`),
	// affection directed at the companion
	regexp.MustCompile(`\b(?:love|trust|miss|adore|need)\s+you\b`),
	regexp.MustCompile(`\byou(?:'re|\s+are)\s+my\s+(?:friend|best\s+friend|favorite)\b`),
}

var keywordPatterns = struct {
	positive, negative, playful []*regexp.Regexp
}{
	positive: compileKeywords(positiveKeywords),
	negative: compileKeywords(negativeKeywords),
	playful:  compileKeywords(playfulKeywords),
}

func compileKeywords(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		out = append(out, regexp.MustCompile(`\b`+regexp.QuoteMeta(w)+`\b`))
	}
	return out
}

func countMatches(text string, patterns []*regexp.Regexp) int {
	n := 0
	for _, p := range patterns {
		n += len(p.FindAllStringIndex(text, -1))
	}
	return n
}

// Analyze scores an utterance. It never fails: empty or whitespace input
// yields the zero analysis.
func Analyze(text string) InteractionAnalysis {
	if strings.TrimSpace(text) == "" {
		return InteractionAnalysis{}
	}
	lower := strings.ToLower(text)

	var total, upper int
	for _, r := range text {
		total++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	exclamations := strings.Count(text, "!")

	return InteractionAnalysis{
		Positivity:         min(0.2*float64(countMatches(lower, keywordPatterns.positive)), 1.0),
		Negativity:         min(0.3*float64(countMatches(lower, keywordPatterns.negative)), 1.0),
		Playfulness:        min(0.25*float64(countMatches(lower, keywordPatterns.playful)), 1.0),
		EmotionalIntensity: min(0.2*float64(exclamations)+0.5*float64(upper)/float64(max(1, total)), 1.0),
		BondingSignal:      min(0.3*float64(countMatches(lower, bondingPatterns)), 1.0),
	}
}
