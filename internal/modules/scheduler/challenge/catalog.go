package challenge

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/clock"
)

var challengeNamespace = uuid.MustParse("6b0f4a0e-4a8e-4f8e-9c55-0c1d8f3b2a71")

// ID returns the stable identifier of the (date, kind) challenge.
func ID(date time.Time, kind learning.ChallengeKind) uuid.UUID {
	return uuid.NewSHA1(challengeNamespace, []byte(clock.Date(date).Format("2006-01-02")+"/"+string(kind)))
}

// DefaultSet is the challenge set used when no catalog entries exist for a day.
func DefaultSet(date time.Time) []learning.DailyChallenge {
	d := clock.Date(date)
	mk := func(kind learning.ChallengeKind, target float64, xp, gems int64) learning.DailyChallenge {
		return learning.DailyChallenge{ID: ID(d, kind), Date: d, Kind: kind, TargetValue: target, RewardXP: xp, RewardGems: gems}
	}
	return []learning.DailyChallenge{
		mk(learning.ChallengeQuestionsAnswered, 20, 30, 1),
		mk(learning.ChallengeAccuracyThreshold, 80, 25, 1),
		mk(learning.ChallengeStreakExtended, 1, 10, 0),
		mk(learning.ChallengeStudyTimeSeconds, 900, 20, 1),
	}
}
