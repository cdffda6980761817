package engine

import "github.com/gokaycavdar/go-urlguard/pkg/models"

// Classify maps a bounded score to the phishing probability and verdict.
//
// Probability is floor(score * 0.93) clamped to [0, 100]; integer
// arithmetic keeps it exact.
func Classify(score int) (int, models.Verdict) {
	score = clamp(score)
	probability := min(score*93/100, 100)
	return probability, models.VerdictFromScore(score)
}
