package learning

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventSessionClosed      = "session_closed"
	EventItemReviewed       = "item_reviewed"
	EventLevelUp            = "level_up"
	EventStreakChanged      = "streak_changed"
	EventChallengeCompleted = "challenge_completed"
)

// Event is emitted by the scheduler after a commit.
type Event interface {
	EventType() string
	Learner() uuid.UUID
}

// SessionClosedEvent carries the summary of a committed close.
type SessionClosedEvent struct {
	LearnerID uuid.UUID `json:"learner_id"`
	SessionID uuid.UUID `json:"session_id"`
	Summary   Summary   `json:"summary"`
}

func (SessionClosedEvent) EventType() string    { return EventSessionClosed }
func (e SessionClosedEvent) Learner() uuid.UUID { return e.LearnerID }

type ItemReviewed struct {
	LearnerID uuid.UUID `json:"learner_id"`
	ItemID    uuid.UUID `json:"item_id"`
	Pass      bool      `json:"pass"`
	NewDueAt  time.Time `json:"new_due_at"`
}

func (ItemReviewed) EventType() string    { return EventItemReviewed }
func (e ItemReviewed) Learner() uuid.UUID { return e.LearnerID }

type LevelUp struct {
	LearnerID    uuid.UUID `json:"learner_id"`
	NewLevel     int       `json:"new_level"`
	CoinsAwarded int64     `json:"coins_awarded"`
	GemsAwarded  int64     `json:"gems_awarded"`
}

func (LevelUp) EventType() string    { return EventLevelUp }
func (e LevelUp) Learner() uuid.UUID { return e.LearnerID }

type StreakChanged struct {
	LearnerID uuid.UUID `json:"learner_id"`
	OldStreak int       `json:"old_streak"`
	NewStreak int       `json:"new_streak"`
}

func (StreakChanged) EventType() string    { return EventStreakChanged }
func (e StreakChanged) Learner() uuid.UUID { return e.LearnerID }

type ChallengeRewards struct {
	XP   int64 `json:"xp"`
	Gems int64 `json:"gems"`
}

type ChallengeCompleted struct {
	LearnerID   uuid.UUID        `json:"learner_id"`
	ChallengeID uuid.UUID        `json:"challenge_id"`
	Rewards     ChallengeRewards `json:"rewards"`
}

func (ChallengeCompleted) EventType() string    { return EventChallengeCompleted }
func (e ChallengeCompleted) Learner() uuid.UUID { return e.LearnerID }
