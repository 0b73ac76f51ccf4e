// Package reward applies XP, coin, gem, streak and level transitions.
//
// All functions here are total on validated input; persistence happens in the
// caller's transaction.
package reward

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/clock"
)

// Engine computes session rewards from a base table.
type Engine struct {
	table Table
}

func New(table Table) *Engine {
	if len(table) == 0 {
		table = DefaultTable()
	}
	return &Engine{table: table}
}

func (e *Engine) Base(kind learning.SessionKind) Base {
	return e.table[kind]
}

// Multiplier is the accuracy band multiplier applied to the base reward.
func Multiplier(accuracy float64) float64 {
	switch {
	case accuracy >= 0.9:
		return 1.5
	case accuracy >= 0.8:
		return 1.2
	case accuracy >= 0.7:
		return 1.0
	default:
		return 0.8
	}
}

// SessionReward is what closing a session is worth before challenge rewards
// and level-up awards. A session without answers earns nothing.
type SessionReward struct {
	XP      int64
	Coins   int64
	Boosted bool
}

func (e *Engine) SessionReward(learnerID uuid.UUID, kind learning.SessionKind, answered int, accuracy float64, boosts []learning.Boost, now time.Time) SessionReward {
	if answered <= 0 {
		return SessionReward{}
	}
	base := e.Base(kind)
	m := Multiplier(accuracy)
	out := SessionReward{
		XP:    int64(math.Round(float64(base.XP) * m)),
		Coins: int64(math.Round(float64(base.Coins) * m)),
	}
	if DoubleXPActive(learnerID, boosts, now) {
		out.XP *= 2
		out.Boosted = true
	}
	return out
}

// DoubleXPActive reports whether any double_xp boost of the learner covers now.
func DoubleXPActive(learnerID uuid.UUID, boosts []learning.Boost, now time.Time) bool {
	for _, b := range boosts {
		if b.Kind == learning.BoostDoubleXP && b.LearnerID == learnerID && b.Covers(now) {
			return true
		}
	}
	return false
}

// StreakChange describes one streak transition.
type StreakChange struct {
	Old int
	New int
}

func (c StreakChange) Changed() bool  { return c.Old != c.New }
func (c StreakChange) Extended() bool { return c.New > c.Old }

// ApplyStreak moves the streak for a study session closed at now.
func ApplyStreak(p *learning.Profile, now time.Time) StreakChange {
	today := clock.Date(now)
	change := StreakChange{Old: p.CurrentStreak, New: p.CurrentStreak}
	if p.LastStudyDate != nil {
		last := clock.Date(*p.LastStudyDate)
		switch {
		case last.Equal(today), last.After(today):
			return change
		case last.AddDate(0, 0, 1).Equal(today):
			change.New = p.CurrentStreak + 1
		default:
			change.New = 1
		}
	} else {
		change.New = 1
	}
	p.CurrentStreak = change.New
	p.LastStudyDate = &today
	if p.CurrentStreak > p.LongestStreak {
		p.LongestStreak = p.CurrentStreak
	}
	return change
}

// Grant is a balance increment.
type Grant struct {
	XP    int64
	Coins int64
	Gems  int64
}

// LevelChange reports levels crossed by a grant and what they awarded.
type LevelChange struct {
	Old          int
	New          int
	CoinsAwarded int64
	GemsAwarded  int64
}

func (c LevelChange) LeveledUp() bool { return c.New > c.Old }

// Apply adds g to the profile's balances and pays the level-up award for
// every level crossed: level*10 coins and level/5 gems.
func Apply(p *learning.Profile, g Grant) LevelChange {
	old := learning.LevelForXP(p.XP)
	p.XP = nonNegative(p.XP + g.XP)
	p.Coins = nonNegative(p.Coins + g.Coins)
	p.Gems = nonNegative(p.Gems + g.Gems)

	change := LevelChange{Old: old, New: learning.LevelForXP(p.XP)}
	for lvl := old + 1; lvl <= change.New; lvl++ {
		change.CoinsAwarded += int64(lvl) * 10
		change.GemsAwarded += int64(lvl) / 5
	}
	p.Coins += change.CoinsAwarded
	p.Gems += change.GemsAwarded
	p.Level = change.New
	return change
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
