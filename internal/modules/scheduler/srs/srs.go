// Package srs implements the SM-2 style review schedule for a single item.
package srs

import (
	"math"
	"time"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

// PassScore is the lowest score that counts as a successful recall.
const PassScore = 60.0

const (
	firstInterval   = 1
	secondInterval  = 6
	failEasePenalty = 0.2
)

// Passed reports whether score counts as a pass.
func Passed(score float64) bool { return score >= PassScore }

// Update applies one answer outcome to prev and returns the new state.
// It is pure: the same inputs always produce the same output.
func Update(prev learning.ReviewState, score float64, now time.Time) learning.ReviewState {
	score = clampScore(score)
	next := prev
	next.Attempts = prev.Attempts + 1
	next.LastScore = score
	next.LastReviewedAt = now
	next.Completed = true

	prevEase := prev.Ease
	if prevEase == 0 {
		prevEase = learning.DefaultEase
	}

	if !Passed(score) {
		next.IntervalDays = firstInterval
		next.Ease = clampEase(prevEase - failEasePenalty)
		next.NextDue = now.AddDate(0, 0, firstInterval)
		return next
	}

	switch next.Attempts {
	case 1:
		next.IntervalDays = firstInterval
	case 2:
		next.IntervalDays = secondInterval
	default:
		next.IntervalDays = int(math.Round(float64(prev.IntervalDays) * prevEase))
		if next.IntervalDays < firstInterval {
			next.IntervalDays = firstInterval
		}
	}

	q := 5 - score/20
	next.Ease = clampEase(prevEase + (0.1 - q*(0.08+q*0.02)))

	// A pass never pulls the due date earlier. The interval stretches to the
	// whole days that cover the old due date so next-due stays now + interval.
	if floor := now.AddDate(0, 0, next.IntervalDays); floor.Before(prev.NextDue) {
		next.IntervalDays = int(math.Ceil(prev.NextDue.Sub(now).Hours() / 24))
	}
	next.NextDue = now.AddDate(0, 0, next.IntervalDays)
	return next
}

func clampEase(e float64) float64 {
	if e < learning.MinEase {
		return learning.MinEase
	}
	if e > learning.MaxEase {
		return learning.MaxEase
	}
	return e
}

func clampScore(s float64) float64 {
	switch {
	case math.IsNaN(s), s < 0:
		return 0
	case s > 100:
		return 100
	default:
		return s
	}
}
