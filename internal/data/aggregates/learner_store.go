package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	repolearning "github.com/yungbote/lexdrill-backend/internal/data/repos/learning"
	"github.com/yungbote/lexdrill-backend/internal/data/store"
	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/dbctx"
)

type LearnerStoreDeps struct {
	BaseDeps
	Profiles ProfileRepo
	Reviews  ReviewStateRepo
	Progress ChallengeProgressRepo
	Logs     SessionLogRepo
}

type (
	ProfileRepo           = repolearning.ProfileRepo
	ReviewStateRepo       = repolearning.ReviewStateRepo
	ChallengeProgressRepo = repolearning.ChallengeProgressRepo
	SessionLogRepo        = repolearning.SessionLogRepo
)

// LearnerStore is the GORM-backed store.LearnerStore. Each InTx is one
// database transaction; on Postgres it also takes a transaction-scoped
// advisory lock on the learner so that writers on other instances queue.
type LearnerStore struct {
	deps LearnerStoreDeps
}

var _ store.LearnerStore = (*LearnerStore)(nil)

func NewLearnerStore(deps LearnerStoreDeps) *LearnerStore {
	if deps.DB != nil && deps.Log != nil {
		if deps.Profiles == nil {
			deps.Profiles = repolearning.NewProfileRepo(deps.DB, deps.Log)
		}
		if deps.Reviews == nil {
			deps.Reviews = repolearning.NewReviewStateRepo(deps.DB, deps.Log)
		}
		if deps.Progress == nil {
			deps.Progress = repolearning.NewChallengeProgressRepo(deps.DB, deps.Log)
		}
		if deps.Logs == nil {
			deps.Logs = repolearning.NewSessionLogRepo(deps.DB, deps.Log)
		}
	}
	deps.BaseDeps = deps.BaseDeps.withDefaults()
	return &LearnerStore{deps: deps}
}

func (s *LearnerStore) InTx(ctx context.Context, learnerID uuid.UUID, fn func(tx store.LearnerTx) error) error {
	if fn == nil {
		return nil
	}
	return executeWrite(ctx, s.deps.BaseDeps, "learner.tx", func(dbc dbctx.Context) error {
		if err := lockLearner(dbc, learnerID); err != nil {
			return err
		}
		return fn(&learnerTx{dbc: dbc, learnerID: learnerID, deps: s.deps})
	})
}

func lockLearner(dbc dbctx.Context, learnerID uuid.UUID) error {
	if dbc.Tx == nil || dbc.Tx.Dialector == nil || dbc.Tx.Dialector.Name() != "postgres" {
		return nil
	}
	return dbc.Tx.WithContext(dbc.Ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", learnerID.String()).Error
}

type learnerTx struct {
	dbc       dbctx.Context
	learnerID uuid.UUID
	deps      LearnerStoreDeps
}

func (t *learnerTx) checkOwner(op string, id uuid.UUID) error {
	if id != t.learnerID {
		return learning.Invalid(op, "record for learner %s written in transaction of %s", id, t.learnerID)
	}
	return nil
}

func (t *learnerTx) Profile() (learning.Profile, bool, error) {
	return t.deps.Profiles.Get(t.dbc, t.learnerID)
}

func (t *learnerTx) SaveProfile(p learning.Profile) error {
	if err := t.checkOwner("learner_tx.save_profile", p.LearnerID); err != nil {
		return err
	}
	return t.deps.Profiles.Upsert(t.dbc, p)
}

func (t *learnerTx) ReviewStates() (map[uuid.UUID]learning.ReviewState, error) {
	rows, err := t.deps.Reviews.ListByLearner(t.dbc, t.learnerID)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]learning.ReviewState, len(rows))
	for _, rs := range rows {
		out[rs.ItemID] = rs
	}
	return out, nil
}

func (t *learnerTx) DueReviews(at time.Time) ([]learning.ReviewState, error) {
	return t.deps.Reviews.ListDue(t.dbc, t.learnerID, at)
}

func (t *learnerTx) SaveReviewState(rs learning.ReviewState) error {
	if err := t.checkOwner("learner_tx.save_review_state", rs.LearnerID); err != nil {
		return err
	}
	return t.deps.Reviews.Upsert(t.dbc, rs)
}

func (t *learnerTx) ChallengeProgress(date time.Time) (map[learning.ChallengeKind]learning.ChallengeProgress, error) {
	rows, err := t.deps.Progress.ListForDay(t.dbc, t.learnerID, date)
	if err != nil {
		return nil, err
	}
	out := make(map[learning.ChallengeKind]learning.ChallengeProgress, len(rows))
	for _, p := range rows {
		out[p.Kind] = p
	}
	return out, nil
}

func (t *learnerTx) SaveChallengeProgress(p learning.ChallengeProgress) error {
	if err := t.checkOwner("learner_tx.save_challenge_progress", p.LearnerID); err != nil {
		return err
	}
	return t.deps.Progress.Upsert(t.dbc, p)
}

func (t *learnerTx) AppendSessionLog(l learning.SessionLog) error {
	if err := t.checkOwner("learner_tx.append_session_log", l.LearnerID); err != nil {
		return err
	}
	return t.deps.Logs.Append(t.dbc, l)
}
