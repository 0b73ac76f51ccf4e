package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/data/store"
	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

func TestLearnersRollbackOnError(t *testing.T) {
	s := NewLearners()
	ctx := context.Background()
	learner := uuid.New()

	err := s.InTx(ctx, learner, func(tx store.LearnerTx) error {
		p, found, err := tx.Profile()
		if err != nil || found {
			t.Fatalf("fresh profile: found=%v err=%v", found, err)
		}
		p.XP = 100
		p.Level = 2
		if err := tx.SaveProfile(p); err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected body error")
	}
	_ = s.InTx(ctx, learner, func(tx store.LearnerTx) error {
		p, found, _ := tx.Profile()
		if found || p.XP != 0 {
			t.Fatalf("rolled back write is visible: %+v", p)
		}
		return nil
	})
}

func TestLearnersCommitFault(t *testing.T) {
	s := NewLearners()
	ctx := context.Background()
	learner := uuid.New()
	s.InjectFault(FaultCommit, errors.New("disk full"))
	err := s.InTx(ctx, learner, func(tx store.LearnerTx) error {
		return tx.SaveReviewState(learning.ReviewState{LearnerID: learner, ItemID: uuid.New(), Attempts: 1, Ease: 2.5, IntervalDays: 1, Completed: true})
	})
	if err == nil || s.Commits() != 0 {
		t.Fatalf("commit fault not honoured: err=%v commits=%d", err, s.Commits())
	}
	s.ClearFaults()
	_ = s.InTx(ctx, learner, func(tx store.LearnerTx) error {
		states, _ := tx.ReviewStates()
		if len(states) != 0 {
			t.Fatalf("write survived failed commit")
		}
		return nil
	})
}

func TestDueReviewsOrdering(t *testing.T) {
	s := NewLearners()
	ctx := context.Background()
	learner := uuid.New()
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	_ = s.InTx(ctx, learner, func(tx store.LearnerTx) error {
		for id, due := range map[uuid.UUID]time.Time{a: now.Add(2 * time.Hour), b: now.Add(-time.Hour), c: now.Add(48 * time.Hour)} {
			if err := tx.SaveReviewState(learning.ReviewState{LearnerID: learner, ItemID: id, Attempts: 1, Ease: 2.5, IntervalDays: 1, NextDue: due, Completed: true}); err != nil {
				return err
			}
		}
		return nil
	})
	_ = s.InTx(ctx, learner, func(tx store.LearnerTx) error {
		due, err := tx.DueReviews(now.Add(3 * time.Hour))
		if err != nil {
			t.Fatalf("DueReviews: %v", err)
		}
		if len(due) != 2 || due[0].ItemID != b || due[1].ItemID != a {
			t.Fatalf("unexpected due list %+v", due)
		}
		return nil
	})
}

func TestCorruptReviewStateIsFatal(t *testing.T) {
	s := NewLearners()
	ctx := context.Background()
	learner := uuid.New()
	_ = s.InTx(ctx, learner, func(tx store.LearnerTx) error {
		return tx.SaveReviewState(learning.ReviewState{LearnerID: learner, ItemID: uuid.New(), Attempts: 1, Ease: 0.9})
	})
	_ = s.InTx(ctx, learner, func(tx store.LearnerTx) error {
		_, err := tx.ReviewStates()
		if !learning.IsCode(err, learning.CodeStoreFatal) {
			t.Fatalf("expected store_fatal, got %v", err)
		}
		return nil
	})
}

func TestItemsCandidates(t *testing.T) {
	free := learning.Item{ID: uuid.New(), SubjectID: "torts", TopicID: "negligence", Kind: learning.ItemQuestion, Difficulty: 2, EstimatedSeconds: 30}
	premium := learning.Item{ID: uuid.New(), SubjectID: "torts", Kind: learning.ItemQuestion, Difficulty: 2, EstimatedSeconds: 30, Premium: true}
	other := learning.Item{ID: uuid.New(), SubjectID: "evidence", Kind: learning.ItemLesson, Difficulty: 1, EstimatedSeconds: 30}
	s := NewItems(free, premium, other)
	ctx := context.Background()

	got, _ := s.Candidates(ctx, store.ItemQuery{SubjectID: "torts"})
	if len(got) != 1 || got[0].ID != free.ID {
		t.Fatalf("premium leaked: %+v", got)
	}
	got, _ = s.Candidates(ctx, store.ItemQuery{SubjectID: "torts", AllowPremium: true, Exclude: []uuid.UUID{free.ID}})
	if len(got) != 1 || got[0].ID != premium.ID {
		t.Fatalf("exclude ignored: %+v", got)
	}
	got, _ = s.Candidates(ctx, store.ItemQuery{SubjectID: "torts", TopicID: "negligence", AllowPremium: true})
	if len(got) != 1 || got[0].ID != free.ID {
		t.Fatalf("topic filter ignored: %+v", got)
	}
	if _, err := s.Get(ctx, uuid.New()); !errors.Is(err, store.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}
