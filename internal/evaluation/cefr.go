package evaluation

// LevelTagFor maps an averaged pronunciation score to a CEFR tag
func LevelTagFor(score float64) string {
	switch {
	case score >= 80:
		return "C1"
	case score >= 70:
		return "B2"
	case score >= 60:
		return "B1"
	case score >= 50:
		return "A2"
	default:
		return "A1"
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
