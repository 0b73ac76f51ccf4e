package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/dbctx"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

// SessionLogRepo is append-only.
type SessionLogRepo interface {
	Append(dbc dbctx.Context, l learning.SessionLog) error
	CountByLearner(dbc dbctx.Context, learnerID uuid.UUID) (int64, error)
}

type sessionLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionLogRepo(db *gorm.DB, baseLog *logger.Logger) SessionLogRepo {
	return &sessionLogRepo{db: db, log: baseLog.With("repo", "SessionLogRepo")}
}

func (r *sessionLogRepo) Append(dbc dbctx.Context, l learning.SessionLog) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	row := learning.SessionLogToRecord(l)
	return t.WithContext(dbc.Ctx).Create(&row).Error
}

func (r *sessionLogRepo) CountByLearner(dbc dbctx.Context, learnerID uuid.UUID) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	err := t.WithContext(dbc.Ctx).
		Model(&learning.SessionLogRecord{}).
		Where("learner_id = ?", learnerID).
		Count(&n).Error
	return n, err
}
