package learning

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lexdrill-backend/internal/data/store"
	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/dbctx"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

// BoostRepo is written by the surrounding application and only read by the
// scheduler.
type BoostRepo interface {
	store.BoostSource
	Create(dbc dbctx.Context, b learning.Boost) error
}

type boostRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBoostRepo(db *gorm.DB, baseLog *logger.Logger) BoostRepo {
	return &boostRepo{db: db, log: baseLog.With("repo", "BoostRepo")}
}

func (r *boostRepo) ActiveBoosts(ctx context.Context, learnerID uuid.UUID, at time.Time) ([]learning.Boost, error) {
	var rows []learning.BoostRecord
	at = at.UTC()
	if err := r.db.WithContext(ctx).
		Where("learner_id = ? AND starts_at <= ? AND ends_at > ?", learnerID, at, at).
		Order("starts_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]learning.Boost, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToBoost())
	}
	return out, nil
}

func (r *boostRepo) Create(dbc dbctx.Context, b learning.Boost) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	row := learning.BoostToRecord(b)
	return t.WithContext(dbc.Ctx).Create(&row).Error
}
