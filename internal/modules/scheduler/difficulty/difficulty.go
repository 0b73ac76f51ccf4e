// Package difficulty turns in-session performance into difficulty changes.
package difficulty

import (
	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

// Window is the number of most recent answers the per-answer rule looks at.
const Window = 5

const (
	raiseAccuracy = 0.8
	lowerAccuracy = 0.5
	slowFactor    = 2.0
	lowerFactor   = 1.5

	closeStep       = 0.2
	closeHighBand   = 0.8
	closeMiddleBand = 0.6
)

// Performance summarises the trailing window of answers.
type Performance struct {
	Count            int
	Accuracy         float64
	AvgSeconds       float64
	AvgEstimatedSecs float64
}

// Trailing computes Performance over the last Window answers.
func Trailing(answers []learning.Answer) Performance {
	if len(answers) > Window {
		answers = answers[len(answers)-Window:]
	}
	var p Performance
	if len(answers) == 0 {
		return p
	}
	correct := 0
	var secs, est float64
	for _, a := range answers {
		if a.Correct {
			correct++
		}
		secs += a.TimeSpentSeconds
		est += float64(a.EstimatedSeconds)
	}
	n := float64(len(answers))
	p.Count = len(answers)
	p.Accuracy = float64(correct) / n
	p.AvgSeconds = secs / n
	p.AvgEstimatedSecs = est / n
	return p
}

// AfterAnswer returns the session's current difficulty once the latest answer
// has been appended to answers.
func AfterAnswer(current, rate float64, answers []learning.Answer) float64 {
	p := Trailing(answers)
	if p.Count == 0 {
		return Clamp(current)
	}
	switch {
	case p.Accuracy >= raiseAccuracy && p.AvgSeconds < p.AvgEstimatedSecs:
		return Clamp(current + rate)
	case p.Accuracy <= lowerAccuracy || p.AvgSeconds > slowFactor*p.AvgEstimatedSecs:
		return Clamp(current - lowerFactor*rate)
	default:
		return Clamp(current)
	}
}

// Final derives the closing difficulty from whole-session accuracy.
func Final(target, accuracy float64) float64 {
	switch {
	case accuracy >= closeHighBand:
		return Clamp(target + closeStep)
	case accuracy >= closeMiddleBand:
		return Clamp(target)
	default:
		return Clamp(target - closeStep)
	}
}

// Blend is the exponential moving average used for profile writeback:
// weight applies to the new observation, 1-weight to the prior.
func Blend(prior, observed, weight float64) float64 {
	return weight*observed + (1-weight)*prior
}

// Clamp bounds a difficulty to [1, 5].
func Clamp(d float64) float64 {
	if d < learning.MinComplexity {
		return learning.MinComplexity
	}
	if d > learning.MaxComplexity {
		return learning.MaxComplexity
	}
	return d
}
