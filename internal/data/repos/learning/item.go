package learning

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/lexdrill-backend/internal/data/store"
	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/dbctx"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

type ItemRepo interface {
	store.ItemStore
	Upsert(dbc dbctx.Context, items []learning.Item) error
}

type itemRepo struct {
	db    *gorm.DB
	log   *logger.Logger
	loads singleflight.Group
}

func NewItemRepo(db *gorm.DB, baseLog *logger.Logger) ItemRepo {
	return &itemRepo{db: db, log: baseLog.With("repo", "ItemRepo")}
}

func (r *itemRepo) Upsert(dbc dbctx.Context, items []learning.Item) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(items) == 0 {
		return nil
	}
	rows := make([]learning.ItemRecord, 0, len(items))
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
		rows = append(rows, learning.ItemToRecord(it))
	}
	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"subject_id", "topic_id", "kind", "difficulty", "estimated_seconds",
				"prerequisites", "premium", "explanation_id", "answer_key", "updated_at",
			}),
		}).
		Create(&rows).Error
}

func (r *itemRepo) Get(ctx context.Context, id uuid.UUID) (learning.Item, error) {
	var row learning.ItemRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return learning.Item{}, fmt.Errorf("%w: %s", store.ErrItemNotFound, id)
	}
	if err != nil {
		return learning.Item{}, err
	}
	return row.ToItem()
}

func (r *itemRepo) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]learning.Item, error) {
	out := make(map[uuid.UUID]learning.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []learning.ItemRecord
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		it, err := row.ToItem()
		if err != nil {
			return nil, err
		}
		out[it.ID] = it
	}
	return out, nil
}

// Candidates coalesces concurrent loads of the same subject/topic slice; the
// per-session exclusions are applied to the shared result.
func (r *itemRepo) Candidates(ctx context.Context, q store.ItemQuery) ([]learning.Item, error) {
	key := q.SubjectID + "\x00" + q.TopicID + "\x00" + strconv.FormatBool(q.AllowPremium)
	v, err, _ := r.loads.Do(key, func() (any, error) {
		return r.loadSlice(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	all := v.([]learning.Item)
	exclude := make(map[uuid.UUID]struct{}, len(q.Exclude))
	for _, id := range q.Exclude {
		exclude[id] = struct{}{}
	}
	out := make([]learning.Item, 0, len(all))
	for _, it := range all {
		if _, skip := exclude[it.ID]; skip {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (r *itemRepo) loadSlice(ctx context.Context, q store.ItemQuery) ([]learning.Item, error) {
	var rows []learning.ItemRecord
	tx := r.db.WithContext(ctx).Where("subject_id = ?", q.SubjectID)
	if q.TopicID != "" {
		tx = tx.Where("topic_id = ?", q.TopicID)
	}
	if !q.AllowPremium {
		tx = tx.Where("premium = ?", false)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]learning.Item, 0, len(rows))
	for _, row := range rows {
		it, err := row.ToItem()
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	r.log.Debug("loaded candidate slice", "subject_id", q.SubjectID, "topic_id", q.TopicID, "count", len(out))
	return out, nil
}
