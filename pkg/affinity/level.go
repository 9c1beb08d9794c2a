package affinity

// Affinity level thresholds as displayed in game: level 2 at 10 points,
// level 3 at 60, level 4 at 110.
const (
	Level2Threshold = 10
	Level3Threshold = 60
	Level4Threshold = 110
)

// Level converts a total affinity score to the in-game level 1-4.
func Level(score int) int {
	switch {
	case score >= Level4Threshold:
		return 4
	case score >= Level3Threshold:
		return 3
	case score >= Level2Threshold:
		return 2
	default:
		return 1
	}
}

// LevelSymbol returns the in-game marker for an affinity level.
func LevelSymbol(level int) string {
	switch level {
	case 1:
		return "◯"
	case 2:
		return "△"
	case 3:
		return "◎"
	case 4:
		return "◎◎"
	default:
		return "?"
	}
}

// NextThreshold returns the points needed to reach the next level and
// true, or 0 and false when the score is already at the maximum level.
func NextThreshold(score int) (int, bool) {
	switch {
	case score < Level2Threshold:
		return Level2Threshold - score, true
	case score < Level3Threshold:
		return Level3Threshold - score, true
	case score < Level4Threshold:
		return Level4Threshold - score, true
	default:
		return 0, false
	}
}
