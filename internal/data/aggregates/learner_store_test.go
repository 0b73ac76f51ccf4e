package aggregates_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/data/aggregates"
	"github.com/yungbote/lexdrill-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/lexdrill-backend/internal/data/store"
	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/dbctx"
)

type fakeProfiles struct{ saved []learning.Profile }

func (f *fakeProfiles) Get(_ dbctx.Context, id uuid.UUID) (learning.Profile, bool, error) {
	return learning.NewProfile(id), false, nil
}

func (f *fakeProfiles) Upsert(_ dbctx.Context, p learning.Profile) error {
	f.saved = append(f.saved, p)
	return nil
}

type fakeReviews struct{ saved []learning.ReviewState }

func (f *fakeReviews) ListByLearner(dbctx.Context, uuid.UUID) ([]learning.ReviewState, error) {
	return f.saved, nil
}

func (f *fakeReviews) ListDue(dbctx.Context, uuid.UUID, time.Time) ([]learning.ReviewState, error) {
	return nil, nil
}

func (f *fakeReviews) Upsert(_ dbctx.Context, rs learning.ReviewState) error {
	f.saved = append(f.saved, rs)
	return nil
}

type fakeProgress struct{}

func (fakeProgress) ListForDay(dbctx.Context, uuid.UUID, time.Time) ([]learning.ChallengeProgress, error) {
	return nil, nil
}

func (fakeProgress) Upsert(dbctx.Context, learning.ChallengeProgress) error { return nil }

type fakeLogs struct{}

func (fakeLogs) Append(dbctx.Context, learning.SessionLog) error { return nil }

func (fakeLogs) CountByLearner(dbctx.Context, uuid.UUID) (int64, error) { return 0, nil }

func newStore(runner aggregates.TxRunner, hooks aggregates.Hooks) (*aggregates.LearnerStore, *fakeProfiles, *fakeReviews) {
	profiles := &fakeProfiles{}
	reviews := &fakeReviews{}
	s := aggregates.NewLearnerStore(aggregates.LearnerStoreDeps{
		BaseDeps: aggregates.BaseDeps{Runner: runner, Hooks: hooks},
		Profiles: profiles,
		Reviews:  reviews,
		Progress: fakeProgress{},
		Logs:     fakeLogs{},
	})
	return s, profiles, reviews
}

func TestLearnerStoreCommitsThroughRunner(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	hooks := testutil.NewHookLog()
	s, profiles, _ := newStore(runner, hooks)
	learner := uuid.New()

	err := s.InTx(context.Background(), learner, func(tx store.LearnerTx) error {
		p, found, err := tx.Profile()
		if err != nil || found {
			t.Fatalf("Profile: found=%v err=%v", found, err)
		}
		p.XP = 10
		return tx.SaveProfile(p)
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if runner.Commits != 1 || len(profiles.saved) != 1 {
		t.Fatalf("commit=%d saved=%d", runner.Commits, len(profiles.saved))
	}
	if got := hooks.Statuses("learner.tx"); len(got) != 1 || got[0] != "success" {
		t.Fatalf("unexpected hook statuses: %v", got)
	}
}

func TestLearnerStoreMapsCommitFailure(t *testing.T) {
	runner := &testutil.ScriptedRunner{Script: []testutil.Fault{
		{Stage: testutil.StageCommit, Err: errors.New("connection reset: timeout")},
	}}
	hooks := testutil.NewHookLog()
	s, _, _ := newStore(runner, hooks)

	err := s.InTx(context.Background(), uuid.New(), func(tx store.LearnerTx) error { return nil })
	if !learning.IsCode(err, learning.CodeStoreTransient) {
		t.Fatalf("expected store_transient, got %v", err)
	}
	if runner.Rollbacks != 1 {
		t.Fatalf("rollbacks = %d", runner.Rollbacks)
	}
	if hooks.Retries("learner.tx") != 1 {
		t.Fatalf("retries = %d", hooks.Retries("learner.tx"))
	}
}

func TestLearnerStoreRejectsForeignRecords(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	s, _, reviews := newStore(runner, nil)
	learner := uuid.New()

	err := s.InTx(context.Background(), learner, func(tx store.LearnerTx) error {
		return tx.SaveReviewState(learning.NewReviewState(uuid.New(), uuid.New()))
	})
	if !learning.IsCode(err, learning.CodeInvalidParams) {
		t.Fatalf("expected invalid_params, got %v", err)
	}
	if runner.Rollbacks != 1 || len(reviews.saved) != 0 {
		t.Fatalf("foreign write not rolled back: rollback=%d saved=%d", runner.Rollbacks, len(reviews.saved))
	}
}

func TestLearnerStorePassesThroughDomainErrors(t *testing.T) {
	runner := &testutil.ScriptedRunner{}
	s, _, _ := newStore(runner, nil)
	skew := learning.NewError(learning.CodeClockSkew, "close", "behind", nil)

	err := s.InTx(context.Background(), uuid.New(), func(store.LearnerTx) error { return skew })
	if !learning.IsCode(err, learning.CodeClockSkew) {
		t.Fatalf("expected clock_skew, got %v", err)
	}
}
