package learning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/data/repos/testutil"
	"github.com/yungbote/lexdrill-backend/internal/data/store"
	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/dbctx"
)

var t0 = time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)

func TestItemRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewItemRepo(db, testutil.Logger(t))

	a := testutil.SeedItem(t, ctx, db, "torts", 2, false)
	b := testutil.SeedItem(t, ctx, db, "torts", 4, false)
	testutil.SeedItem(t, ctx, db, "torts", 3, true)
	testutil.SeedItem(t, ctx, db, "contracts", 3, false)

	got, err := repo.Candidates(ctx, store.ItemQuery{SubjectID: "torts"})
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Candidates: want 2 free torts items, got %d", len(got))
	}
	got, err = repo.Candidates(ctx, store.ItemQuery{SubjectID: "torts", AllowPremium: true, Exclude: []uuid.UUID{a.ID}})
	if err != nil || len(got) != 2 {
		t.Fatalf("Candidates premium/exclude: err=%v len=%d", err, len(got))
	}
	for _, it := range got {
		if it.ID == a.ID {
			t.Fatalf("excluded item returned")
		}
	}

	it, err := repo.Get(ctx, b.ID)
	if err != nil || it.Difficulty != 4 || it.AnswerKey.CorrectOption != "A" {
		t.Fatalf("Get: err=%v item=%+v", err, it)
	}
	if _, err := repo.Get(ctx, uuid.New()); !errors.Is(err, store.ErrItemNotFound) {
		t.Fatalf("Get missing: want ErrItemNotFound, got %v", err)
	}
	many, err := repo.GetMany(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
	if err != nil || len(many) != 2 {
		t.Fatalf("GetMany: err=%v len=%d", err, len(many))
	}
}

func TestReviewStateRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewReviewStateRepo(db, testutil.Logger(t))
	learner := uuid.New()

	due := learning.ReviewState{
		LearnerID: learner, ItemID: uuid.New(), Attempts: 1, LastScore: 100,
		Ease: 2.6, IntervalDays: 1, NextDue: t0.AddDate(0, 0, 1), LastReviewedAt: t0, Completed: true,
	}
	later := due
	later.ItemID = uuid.New()
	later.NextDue = t0.AddDate(0, 0, 6)
	for _, rs := range []learning.ReviewState{due, later} {
		if err := repo.Upsert(dbc, rs); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	due.Attempts = 2
	due.IntervalDays = 6
	if err := repo.Upsert(dbc, due); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	all, err := repo.ListByLearner(dbc, learner)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListByLearner: err=%v len=%d", err, len(all))
	}
	got, err := repo.ListDue(dbc, learner, t0.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}
	if len(got) != 1 || got[0].ItemID != due.ItemID || got[0].Attempts != 2 {
		t.Fatalf("ListDue: %+v", got)
	}

	bad := due
	bad.Ease = 1.0
	if err := repo.Upsert(dbc, bad); !learning.IsCode(err, learning.CodeStoreFatal) {
		t.Fatalf("invalid state: want store_fatal, got %v", err)
	}
}

func TestProfileRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewProfileRepo(db, testutil.Logger(t))
	learner := uuid.New()

	p, found, err := repo.Get(dbc, learner)
	if err != nil || found || p.Level != 1 {
		t.Fatalf("Get missing: found=%v err=%v p=%+v", found, err, p)
	}

	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	p.Strength["torts"] = 0.65
	p.SetWeak("contracts", true)
	p.SubjectStats["torts"] = learning.SubjectStat{Answered: 12, Correct: 9}
	p.XP = 150
	p.Level = learning.LevelForXP(150)
	p.CurrentStreak = 2
	p.LongestStreak = 4
	p.LastStudyDate = &day
	p.UpdatedAt = t0
	if err := repo.Upsert(dbc, p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	p.Coins = 40
	if err := repo.Upsert(dbc, p); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	got, found, err := repo.Get(dbc, learner)
	if err != nil || !found {
		t.Fatalf("Get: found=%v err=%v", found, err)
	}
	if got.Strength["torts"] != 0.65 || !got.IsWeak("contracts") || got.SubjectStats["torts"].Correct != 9 {
		t.Fatalf("skill model not round-tripped: %+v", got)
	}
	if got.Coins != 40 || got.Level != 2 || got.LongestStreak != 4 {
		t.Fatalf("balances not round-tripped: %+v", got)
	}
	if got.LastStudyDate == nil || !got.LastStudyDate.Equal(day) || !got.UpdatedAt.Equal(t0) {
		t.Fatalf("timestamps not round-tripped: %+v", got)
	}
}

func TestChallengeRepos(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	log := testutil.Logger(t)
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	fallbackCalls := 0
	catalog := NewDailyChallengeRepo(db, log, func(d time.Time) []learning.DailyChallenge {
		fallbackCalls++
		return []learning.DailyChallenge{{Date: d, Kind: learning.ChallengeQuestionsAnswered, TargetValue: 5}}
	})
	if got, err := catalog.ActiveFor(ctx, day.AddDate(0, 0, 1)); err != nil || len(got) != 1 || fallbackCalls != 1 {
		t.Fatalf("fallback: err=%v len=%d calls=%d", err, len(got), fallbackCalls)
	}
	ch := learning.DailyChallenge{ID: uuid.New(), Date: day, Kind: learning.ChallengeStudyTimeSeconds, TargetValue: 600, RewardXP: 30, RewardGems: 1}
	if err := catalog.Upsert(dbc, []learning.DailyChallenge{ch}); err != nil {
		t.Fatalf("Upsert challenge: %v", err)
	}
	got, err := catalog.ActiveFor(ctx, day.Add(15*time.Hour))
	if err != nil || len(got) != 1 || got[0].ID != ch.ID || got[0].RewardXP != 30 {
		t.Fatalf("ActiveFor: err=%v got=%+v", err, got)
	}

	progress := NewChallengeProgressRepo(db, log)
	learner := uuid.New()
	row := learning.ChallengeProgress{LearnerID: learner, ChallengeID: ch.ID, Date: day, Kind: ch.Kind, Progress: 120}
	if err := progress.Upsert(dbc, row); err != nil {
		t.Fatalf("Upsert progress: %v", err)
	}
	row.Progress = 600
	row.Completed = true
	if err := progress.Upsert(dbc, row); err != nil {
		t.Fatalf("Upsert progress update: %v", err)
	}
	rows, err := progress.ListForDay(dbc, learner, day)
	if err != nil || len(rows) != 1 || !rows[0].Completed || rows[0].Progress != 600 {
		t.Fatalf("ListForDay: err=%v rows=%+v", err, rows)
	}
	if rows, _ := progress.ListForDay(dbc, learner, day.AddDate(0, 0, 1)); len(rows) != 0 {
		t.Fatalf("progress leaked into next day: %+v", rows)
	}
}

func TestBoostRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewBoostRepo(db, testutil.Logger(t))
	learner := uuid.New()

	b := learning.Boost{LearnerID: learner, Kind: learning.BoostDoubleXP, StartsAt: t0, EndsAt: t0.Add(time.Hour)}
	if err := repo.Create(dbctx.Context{Ctx: ctx}, b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got, err := repo.ActiveBoosts(ctx, learner, t0.Add(30*time.Minute)); err != nil || len(got) != 1 {
		t.Fatalf("ActiveBoosts inside window: err=%v len=%d", err, len(got))
	}
	if got, _ := repo.ActiveBoosts(ctx, learner, t0.Add(time.Hour)); len(got) != 0 {
		t.Fatalf("boost end must be exclusive")
	}
	if got, _ := repo.ActiveBoosts(ctx, uuid.New(), t0.Add(30*time.Minute)); len(got) != 0 {
		t.Fatalf("boost leaked to another learner")
	}
}

func TestSessionLogRepo(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	repo := NewSessionLogRepo(db, testutil.Logger(t))
	learner := uuid.New()

	for i := 0; i < 2; i++ {
		l := learning.SessionLog{
			SessionID: uuid.New(), LearnerID: learner, SubjectID: "torts",
			Kind: learning.KindPractice, Reason: learning.CloseCompleted,
			StartedAt: t0, ClosedAt: t0.Add(time.Minute),
		}
		if err := repo.Append(dbc, l); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if n, err := repo.CountByLearner(dbc, learner); err != nil || n != 2 {
		t.Fatalf("CountByLearner: n=%d err=%v", n, err)
	}
}
