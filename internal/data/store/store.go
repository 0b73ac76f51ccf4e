// Package store declares the persistence contracts of the scheduler.
//
// Items are read-only and shared. Everything owned by a learner (profile,
// review states, challenge progress, session logs) is read and written
// through a LearnerTx so that a session close commits as one unit.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

var ErrItemNotFound = errors.New("item not found")

// ItemQuery selects session candidates.
type ItemQuery struct {
	SubjectID    string
	TopicID      string
	AllowPremium bool
	Exclude      []uuid.UUID
}

// ItemStore is the read-only content catalog.
type ItemStore interface {
	// Get returns ErrItemNotFound when no item has the id.
	Get(ctx context.Context, id uuid.UUID) (learning.Item, error)
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]learning.Item, error)
	Candidates(ctx context.Context, q ItemQuery) ([]learning.Item, error)
}

// LearnerTx is a unit of work scoped to one learner.
type LearnerTx interface {
	// Profile returns the stored profile, or the default profile and false
	// when the learner has none yet.
	Profile() (learning.Profile, bool, error)
	SaveProfile(p learning.Profile) error

	// ReviewStates returns every review state of the learner keyed by item.
	ReviewStates() (map[uuid.UUID]learning.ReviewState, error)
	// DueReviews returns completed review states due at or before t, ordered
	// by due time then item id.
	DueReviews(t time.Time) ([]learning.ReviewState, error)
	SaveReviewState(rs learning.ReviewState) error

	// ChallengeProgress returns progress records for the given day keyed by kind.
	ChallengeProgress(date time.Time) (map[learning.ChallengeKind]learning.ChallengeProgress, error)
	SaveChallengeProgress(p learning.ChallengeProgress) error

	AppendSessionLog(l learning.SessionLog) error
}

// LearnerStore opens learner-scoped transactions. fn's writes commit only if
// fn returns nil; otherwise none of them are visible.
type LearnerStore interface {
	InTx(ctx context.Context, learnerID uuid.UUID, fn func(tx LearnerTx) error) error
}

// ChallengeCatalog lists the daily challenges active on a calendar day.
type ChallengeCatalog interface {
	ActiveFor(ctx context.Context, date time.Time) ([]learning.DailyChallenge, error)
}

// BoostSource exposes externally granted boosts. The scheduler only reads it.
type BoostSource interface {
	ActiveBoosts(ctx context.Context, learnerID uuid.UUID, at time.Time) ([]learning.Boost, error)
}
