package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/dbctx"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

type ReviewStateRepo interface {
	ListByLearner(dbc dbctx.Context, learnerID uuid.UUID) ([]learning.ReviewState, error)
	ListDue(dbc dbctx.Context, learnerID uuid.UUID, at time.Time) ([]learning.ReviewState, error)
	Upsert(dbc dbctx.Context, rs learning.ReviewState) error
}

type reviewStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewStateRepo(db *gorm.DB, baseLog *logger.Logger) ReviewStateRepo {
	return &reviewStateRepo{db: db, log: baseLog.With("repo", "ReviewStateRepo")}
}

func (r *reviewStateRepo) ListByLearner(dbc dbctx.Context, learnerID uuid.UUID) ([]learning.ReviewState, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []learning.ReviewStateRecord
	if err := t.WithContext(dbc.Ctx).
		Where("learner_id = ?", learnerID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toReviewStates(rows)
}

func (r *reviewStateRepo) ListDue(dbc dbctx.Context, learnerID uuid.UUID, at time.Time) ([]learning.ReviewState, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []learning.ReviewStateRecord
	if err := t.WithContext(dbc.Ctx).
		Where("learner_id = ? AND completed = ? AND next_due <= ?", learnerID, true, at.UTC()).
		Order("next_due ASC").
		Order("item_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toReviewStates(rows)
}

func (r *reviewStateRepo) Upsert(dbc dbctx.Context, rs learning.ReviewState) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := rs.Validate(); err != nil {
		return err
	}
	row := learning.ReviewStateToRecord(rs)
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "learner_id"}, {Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"attempts", "last_score", "ease", "interval_days", "next_due",
				"last_reviewed_at", "completed", "updated_at",
			}),
		}).
		Create(&row).Error
}

func toReviewStates(rows []learning.ReviewStateRecord) ([]learning.ReviewState, error) {
	out := make([]learning.ReviewState, 0, len(rows))
	for _, row := range rows {
		rs, err := row.ToReviewState()
		if err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, nil
}
