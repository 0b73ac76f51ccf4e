package learning

import (
	"time"

	"github.com/google/uuid"
)

type ChallengeKind string

const (
	ChallengeQuestionsAnswered   ChallengeKind = "questions_answered"
	ChallengeAccuracyThreshold   ChallengeKind = "accuracy_threshold_reached"
	ChallengeStreakExtended      ChallengeKind = "streak_extended"
	ChallengeStudyTimeSeconds    ChallengeKind = "study_time_seconds"
	ChallengeSubjectFocusSeconds ChallengeKind = "subject_focus_seconds"
)

// DailyChallenge is identified by (Date, Kind) and is shared by all learners.
type DailyChallenge struct {
	ID          uuid.UUID     `json:"id"`
	Date        time.Time     `json:"date"`
	Kind        ChallengeKind `json:"kind"`
	TargetValue float64       `json:"target_value"`
	// SubjectID scopes subject_focus_seconds challenges.
	SubjectID  string `json:"subject_id,omitempty"`
	RewardXP   int64  `json:"reward_xp"`
	RewardGems int64  `json:"reward_gems"`
}

// ChallengeProgress is a learner's progress on one challenge, keyed by
// (LearnerID, Date, Kind).
type ChallengeProgress struct {
	LearnerID   uuid.UUID     `json:"learner_id"`
	ChallengeID uuid.UUID     `json:"challenge_id"`
	Date        time.Time     `json:"date"`
	Kind        ChallengeKind `json:"kind"`
	Progress    float64       `json:"progress"`
	Completed   bool          `json:"completed"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

type BoostKind string

const BoostDoubleXP BoostKind = "double_xp"

// Boost is an externally granted, time-limited reward multiplier.
type Boost struct {
	ID        uuid.UUID `json:"id"`
	LearnerID uuid.UUID `json:"learner_id"`
	Kind      BoostKind `json:"kind"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
}

// Covers reports whether the boost is active at t (start inclusive, end exclusive).
func (b Boost) Covers(t time.Time) bool {
	return !t.Before(b.StartsAt) && t.Before(b.EndsAt)
}
