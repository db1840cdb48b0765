package persona

// MaxBonding is the upper bound of BondingLevel.
const MaxBonding = 100.0

// Stage is a presentation banding of the bonding level.
type Stage string

const (
	StageStranger     Stage = "stranger"
	StageAcquaintance Stage = "acquaintance"
	StageFriend       Stage = "friend"
	StageCloseFriend  Stage = "close_friend"
	StageCompanion    Stage = "companion"
	StageSoulmate     Stage = "soulmate"
)

// RelationshipStage returns the named band for a bonding level.
func RelationshipStage(bonding float64) Stage {
	switch {
	case bonding < 25:
		return StageStranger
	case bonding < 50:
		return StageAcquaintance
	case bonding < 75:
		return StageFriend
	case bonding < 90:
		return StageCloseFriend
	case bonding < MaxBonding:
		return StageCompanion
	default:
		return StageSoulmate
	}
}

// relationshipPhrase collapses the stages into the four phrases used in prompts.
func relationshipPhrase(bonding float64) string {
	switch {
	case bonding < 25:
		return "getting to know each other"
	case bonding < 50:
		return "becoming friends"
	case bonding < 75:
		return "close friends"
	default:
		return "very close companions"
	}
}
