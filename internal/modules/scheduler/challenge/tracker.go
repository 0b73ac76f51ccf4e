// Package challenge advances daily-challenge progress from session events.
package challenge

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/clock"
)

// ItemAnswered is emitted once per answer of a closing session.
type ItemAnswered struct {
	LearnerID uuid.UUID
	ItemID    uuid.UUID
	SubjectID string
	Correct   bool
	Seconds   float64
	At        time.Time
}

// SessionCompleted is emitted once per closing session.
type SessionCompleted struct {
	LearnerID uuid.UUID
	Kind      learning.SessionKind
	// Score is whole-session accuracy in percent.
	Score  float64
	Streak int
	// StreakExtended is true when this close moved the streak up.
	StreakExtended bool
	At             time.Time
}

// Completion is a challenge completed by the events just tracked.
type Completion struct {
	Challenge learning.DailyChallenge
	Progress  learning.ChallengeProgress
}

// Result is the outcome of tracking one batch of events.
type Result struct {
	// Updated holds every progress record that changed.
	Updated     []learning.ChallengeProgress
	Completions []Completion
}

// Rewards sums the rewards of all completions.
func (r Result) Rewards() learning.ChallengeRewards {
	var out learning.ChallengeRewards
	for _, c := range r.Completions {
		out.XP += c.Challenge.RewardXP
		out.Gems += c.Challenge.RewardGems
	}
	return out
}

// Track applies answered and completed events to the learner's progress on
// the given challenges. existing holds the learner's stored progress keyed by
// challenge kind; challenges dated other than an event's day ignore it.
// A challenge already completed is never credited again.
func Track(
	learnerID uuid.UUID,
	challenges []learning.DailyChallenge,
	existing map[learning.ChallengeKind]learning.ChallengeProgress,
	answered []ItemAnswered,
	completed *SessionCompleted,
	now time.Time,
) Result {
	var res Result
	for _, ch := range challenges {
		prog, ok := existing[ch.Kind]
		if !ok || !clock.Date(prog.Date).Equal(clock.Date(ch.Date)) {
			prog = learning.ChallengeProgress{
				LearnerID:   learnerID,
				ChallengeID: ch.ID,
				Date:        clock.Date(ch.Date),
				Kind:        ch.Kind,
			}
		}
		if prog.Completed {
			continue
		}
		before := prog.Progress
		prog.Progress = advance(ch, prog.Progress, answered, completed)
		if prog.Progress == before {
			continue
		}
		if prog.Progress >= ch.TargetValue {
			at := now
			prog.Completed = true
			prog.CompletedAt = &at
			res.Completions = append(res.Completions, Completion{Challenge: ch, Progress: prog})
		}
		res.Updated = append(res.Updated, prog)
	}
	return res
}

func advance(ch learning.DailyChallenge, progress float64, answered []ItemAnswered, completed *SessionCompleted) float64 {
	day := clock.Date(ch.Date)
	sameDay := func(t time.Time) bool { return clock.Date(t).Equal(day) }

	switch ch.Kind {
	case learning.ChallengeQuestionsAnswered:
		for _, a := range answered {
			if sameDay(a.At) {
				progress++
			}
		}
	case learning.ChallengeStudyTimeSeconds:
		for _, a := range answered {
			if sameDay(a.At) {
				progress += nonNegative(a.Seconds)
			}
		}
	case learning.ChallengeSubjectFocusSeconds:
		for _, a := range answered {
			if sameDay(a.At) && a.SubjectID == ch.SubjectID {
				progress += nonNegative(a.Seconds)
			}
		}
	case learning.ChallengeAccuracyThreshold:
		if completed != nil && sameDay(completed.At) {
			progress = math.Max(progress, completed.Score)
		}
	case learning.ChallengeStreakExtended:
		if completed != nil && completed.StreakExtended && sameDay(completed.At) {
			progress = math.Max(progress, float64(completed.Streak))
		}
	}
	return progress
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// Events expands a session's answers into ItemAnswered events.
func Events(learnerID uuid.UUID, answers []learning.Answer) []ItemAnswered {
	out := make([]ItemAnswered, 0, len(answers))
	for _, a := range answers {
		out = append(out, ItemAnswered{
			LearnerID: learnerID,
			ItemID:    a.ItemID,
			SubjectID: a.SubjectID,
			Correct:   a.Correct,
			Seconds:   a.TimeSpentSeconds,
			At:        a.AnsweredAt,
		})
	}
	return out
}
