package learning

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/lexdrill-backend/internal/data/store"
	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/clock"
	"github.com/yungbote/lexdrill-backend/internal/platform/dbctx"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

type DailyChallengeRepo interface {
	store.ChallengeCatalog
	Upsert(dbc dbctx.Context, chs []learning.DailyChallenge) error
}

type dailyChallengeRepo struct {
	db       *gorm.DB
	log      *logger.Logger
	fallback func(time.Time) []learning.DailyChallenge
}

// NewDailyChallengeRepo returns the catalog. Days with no stored challenges
// fall back to fallback(date) when it is non-nil.
func NewDailyChallengeRepo(db *gorm.DB, baseLog *logger.Logger, fallback func(time.Time) []learning.DailyChallenge) DailyChallengeRepo {
	return &dailyChallengeRepo{db: db, log: baseLog.With("repo", "DailyChallengeRepo"), fallback: fallback}
}

func (r *dailyChallengeRepo) ActiveFor(ctx context.Context, date time.Time) ([]learning.DailyChallenge, error) {
	day := clock.Date(date)
	var rows []learning.DailyChallengeRecord
	if err := r.db.WithContext(ctx).
		Where("date = ?", day).
		Order("kind ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 && r.fallback != nil {
		return r.fallback(day), nil
	}
	out := make([]learning.DailyChallenge, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDailyChallenge())
	}
	return out, nil
}

func (r *dailyChallengeRepo) Upsert(dbc dbctx.Context, chs []learning.DailyChallenge) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(chs) == 0 {
		return nil
	}
	rows := make([]learning.DailyChallengeRecord, 0, len(chs))
	for _, c := range chs {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.Date = clock.Date(c.Date)
		rows = append(rows, learning.DailyChallengeToRecord(c))
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"target_value", "subject_id", "reward_xp", "reward_gems"}),
		}).
		Create(&rows).Error
}

type ChallengeProgressRepo interface {
	ListForDay(dbc dbctx.Context, learnerID uuid.UUID, date time.Time) ([]learning.ChallengeProgress, error)
	Upsert(dbc dbctx.Context, p learning.ChallengeProgress) error
}

type challengeProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChallengeProgressRepo(db *gorm.DB, baseLog *logger.Logger) ChallengeProgressRepo {
	return &challengeProgressRepo{db: db, log: baseLog.With("repo", "ChallengeProgressRepo")}
}

func (r *challengeProgressRepo) ListForDay(dbc dbctx.Context, learnerID uuid.UUID, date time.Time) ([]learning.ChallengeProgress, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []learning.ChallengeProgressRecord
	if err := t.WithContext(dbc.Ctx).
		Where("learner_id = ? AND date = ?", learnerID, clock.Date(date)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]learning.ChallengeProgress, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToChallengeProgress())
	}
	return out, nil
}

func (r *challengeProgressRepo) Upsert(dbc dbctx.Context, p learning.ChallengeProgress) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	p.Date = clock.Date(p.Date)
	row := learning.ChallengeProgressToRecord(p)
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "learner_id"}, {Name: "date"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"challenge_id", "progress", "completed", "completed_at", "updated_at"}),
		}).
		Create(&row).Error
}
