package learning

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultEase = 2.5
	MinEase     = 1.3
	MaxEase     = 3.0
)

// ReviewState is the spaced-repetition record for one (learner, item) pair.
type ReviewState struct {
	LearnerID      uuid.UUID `json:"learner_id"`
	ItemID         uuid.UUID `json:"item_id"`
	Attempts       int       `json:"attempts"`
	LastScore      float64   `json:"last_score"`
	Ease           float64   `json:"ease"`
	IntervalDays   int       `json:"interval_days"`
	NextDue        time.Time `json:"next_due"`
	LastReviewedAt time.Time `json:"last_reviewed_at"`
	Completed      bool      `json:"completed"`
}

// NewReviewState returns the state of an item the learner has never attempted.
func NewReviewState(learnerID, itemID uuid.UUID) ReviewState {
	return ReviewState{
		LearnerID: learnerID,
		ItemID:    itemID,
		Ease:      DefaultEase,
	}
}

func (r ReviewState) Key() string {
	return fmt.Sprintf("review_state/%s/%s", r.LearnerID, r.ItemID)
}

// Validate checks the invariants a persisted record must satisfy.
func (r ReviewState) Validate() error {
	const op = "review_state.load"
	switch {
	case r.LearnerID == uuid.Nil || r.ItemID == uuid.Nil:
		return Fatal(op, r.Key(), "missing identity")
	case r.Attempts < 0:
		return Fatal(op, r.Key(), "negative attempts")
	case r.Ease < MinEase || r.Ease > MaxEase:
		return Fatal(op, r.Key(), fmt.Sprintf("ease %.3f out of bounds", r.Ease))
	case r.IntervalDays < 0:
		return Fatal(op, r.Key(), "negative interval")
	case r.LastScore < 0 || r.LastScore > 100:
		return Fatal(op, r.Key(), "last score out of range")
	case r.Attempts == 0 && (r.Completed || r.IntervalDays != 0):
		return Fatal(op, r.Key(), "unattempted item marked completed or scheduled")
	}
	return nil
}
