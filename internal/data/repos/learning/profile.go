package learning

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/dbctx"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

type ProfileRepo interface {
	// Get returns the stored profile and false when the learner has none.
	Get(dbc dbctx.Context, learnerID uuid.UUID) (learning.Profile, bool, error)
	Upsert(dbc dbctx.Context, p learning.Profile) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: baseLog.With("repo", "ProfileRepo")}
}

func (r *profileRepo) Get(dbc dbctx.Context, learnerID uuid.UUID) (learning.Profile, bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var row learning.ProfileRecord
	err := t.WithContext(dbc.Ctx).Where("learner_id = ?", learnerID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return learning.NewProfile(learnerID), false, nil
	}
	if err != nil {
		return learning.Profile{}, false, err
	}
	p, err := row.ToProfile()
	if err != nil {
		return learning.Profile{}, false, err
	}
	return p, true, nil
}

func (r *profileRepo) Upsert(dbc dbctx.Context, p learning.Profile) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := p.Validate(); err != nil {
		return err
	}
	row := learning.ProfileToRecord(p)
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "learner_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"strength", "weak_subjects", "subject_stats", "complexity_level", "learning_style",
				"xp", "coins", "gems", "level", "current_streak", "longest_streak",
				"last_study_date", "daily_goal", "last_write_at", "updated_at",
			}),
		}).
		Create(&row).Error
}
