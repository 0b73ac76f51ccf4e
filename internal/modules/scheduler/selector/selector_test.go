package selector

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

var learner = uuid.MustParse("00000000-0000-0000-0000-0000000000aa")

func itemID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func item(n int, subject string, difficulty int) learning.Item {
	return learning.Item{
		ID:               itemID(n),
		SubjectID:        subject,
		Kind:             learning.ItemQuestion,
		Difficulty:       difficulty,
		EstimatedSeconds: 60,
	}
}

func ids(items []learning.Item) []uuid.UUID {
	out := make([]uuid.UUID, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func assertOrder(t *testing.T, got []learning.Item, want ...int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d items %v want %d", len(got), ids(got), len(want))
	}
	for i, n := range want {
		if got[i].ID != itemID(n) {
			t.Fatalf("position %d: got %s want %s (order %v)", i, got[i].ID, itemID(n), ids(got))
		}
	}
}

func TestPolicyFor(t *testing.T) {
	tests := map[learning.SessionKind]Policy{
		learning.KindReview:       DueFirst,
		learning.KindRemedial:     WeakArea,
		learning.KindPractice:     TargetMatch,
		learning.KindAssessment:   TargetMatch,
		learning.KindAdaptiveQuiz: AdaptiveMix,
		learning.KindChallenge:    AdaptiveMix,
	}
	for kind, want := range tests {
		if got := PolicyFor(kind); got != want {
			t.Fatalf("PolicyFor(%s) = %s want %s", kind, got, want)
		}
	}
}

func TestDueFirst(t *testing.T) {
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	states := map[uuid.UUID]learning.ReviewState{
		itemID(1): {Attempts: 2, Ease: 2.5, NextDue: base.Add(48 * time.Hour), Completed: true},
		itemID(2): {Attempts: 1, Ease: 2.5, NextDue: base, Completed: true},
		itemID(3): {Attempts: 3, Ease: 1.9, NextDue: base, Completed: true},
	}
	in := Input{
		Profile:           learning.NewProfile(learner),
		CurrentDifficulty: 3,
		Candidates:        []learning.Item{item(4, "torts", 3), item(1, "torts", 3), item(2, "torts", 3), item(3, "torts", 3)},
		States:            states,
	}
	assertOrder(t, Order(DueFirst, in), 3, 2, 1, 4)
}

func TestWeakAreaFiltersAndOrders(t *testing.T) {
	p := learning.NewProfile(learner)
	p.SetWeak("evidence", true)
	p.Strength["evidence"] = 0.2
	p.Strength["torts"] = 0.7
	in := Input{
		Profile:           p,
		CurrentDifficulty: 2.6,
		Candidates: []learning.Item{
			item(1, "torts", 3),
			item(2, "torts", 1),
			item(3, "evidence", 5),
			item(4, "evidence", 2),
			item(5, "contracts", 3),
		},
	}
	// item 2 matches neither the weak set nor the difficulty band.
	assertOrder(t, Order(WeakArea, in), 4, 3, 5, 1)
}

func TestTargetMatch(t *testing.T) {
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	states := map[uuid.UUID]learning.ReviewState{
		itemID(1): {Attempts: 1, LastReviewedAt: base.Add(time.Hour), Completed: true},
		itemID(2): {Attempts: 1, LastReviewedAt: base, Completed: true},
	}
	in := Input{
		Profile:           learning.NewProfile(learner),
		CurrentDifficulty: 3.2,
		Candidates:        []learning.Item{item(1, "torts", 3), item(2, "torts", 3), item(3, "torts", 3), item(4, "torts", 4), item(5, "torts", 1)},
		States:            states,
	}
	// Never attempted first, then oldest attempt.
	assertOrder(t, Order(TargetMatch, in), 3, 2, 1, 4, 5)
}

func TestPrerequisitesGateSelection(t *testing.T) {
	gated := item(2, "torts", 3)
	gated.Prerequisites = []uuid.UUID{itemID(1)}
	in := Input{
		Profile:           learning.NewProfile(learner),
		CurrentDifficulty: 3,
		Candidates:        []learning.Item{item(1, "torts", 3), gated},
		States:            map[uuid.UUID]learning.ReviewState{},
	}
	for _, p := range []Policy{DueFirst, WeakArea, TargetMatch, AdaptiveMix} {
		got := Order(p, in)
		for _, it := range got {
			if it.ID == gated.ID {
				t.Fatalf("%s served item with unmet prerequisite", p)
			}
		}
	}
	in.States[itemID(1)] = learning.ReviewState{Attempts: 1, Completed: true}
	if got := Order(TargetMatch, in); len(got) != 2 {
		t.Fatalf("expected prerequisite to unlock item, got %v", ids(got))
	}
}

func TestServedItemsNeverRepeat(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	subjects := []string{"torts", "contracts", "evidence"}
	for run := 0; run < 50; run++ {
		p := learning.NewProfile(learner)
		p.SetWeak(subjects[rng.IntN(3)], true)
		var candidates []learning.Item
		for n := 1; n <= 30; n++ {
			candidates = append(candidates, item(n, subjects[rng.IntN(3)], 1+rng.IntN(5)))
		}
		in := Input{Profile: p, CurrentDifficulty: 1 + 4*rng.Float64(), Candidates: candidates, Seed: rng.Uint64()}
		for _, policy := range []Policy{DueFirst, TargetMatch, AdaptiveMix} {
			in.Served = nil
			seen := map[uuid.UUID]bool{}
			for {
				next, ok := Next(policy, in)
				if !ok {
					break
				}
				if seen[next.ID] {
					t.Fatalf("run %d %s: item %s served twice", run, policy, next.ID)
				}
				seen[next.ID] = true
				in.Served = append(in.Served, next.ID)
			}
			if len(seen) != len(candidates) {
				t.Fatalf("run %d %s: served %d of %d", run, policy, len(seen), len(candidates))
			}
		}
	}
}

func TestOrderIsDeterministic(t *testing.T) {
	p := learning.NewProfile(learner)
	p.SetWeak("torts", true)
	var candidates []learning.Item
	for n := 1; n <= 20; n++ {
		candidates = append(candidates, item(n, []string{"torts", "evidence"}[n%2], 1+n%5))
	}
	in := Input{Profile: p, CurrentDifficulty: 3, Candidates: candidates, Seed: 42}
	for _, policy := range []Policy{DueFirst, WeakArea, TargetMatch, AdaptiveMix} {
		first := ids(Order(policy, in))
		shuffled := append([]learning.Item(nil), candidates...)
		rand.New(rand.NewPCG(9, 9)).Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		again := in
		again.Candidates = shuffled
		second := ids(Order(policy, again))
		if fmt.Sprint(first) != fmt.Sprint(second) {
			t.Fatalf("%s: ordering depends on candidate order\n%v\n%v", policy, first, second)
		}
	}
}

func TestSeedBreaksWeakAreaTies(t *testing.T) {
	var candidates []learning.Item
	for n := 1; n <= 12; n++ {
		candidates = append(candidates, item(n, "torts", 3))
	}
	in := Input{Profile: learning.NewProfile(learner), CurrentDifficulty: 3, Candidates: candidates}
	orders := map[string]bool{}
	for seed := uint64(0); seed < 8; seed++ {
		in.Seed = seed
		orders[fmt.Sprint(ids(Order(WeakArea, in)))] = true
	}
	if len(orders) < 2 {
		t.Fatalf("expected different seeds to produce different tie orders")
	}
}

func TestAdaptiveMixShares(t *testing.T) {
	rr := newRoundRobin(mixWeights)
	counts := [3]int{}
	for i := 0; i < 100; i++ {
		counts[rr.next(nil)]++
	}
	if counts != [3]int{60, 30, 10} {
		t.Fatalf("bucket shares = %v want [60 30 10]", counts)
	}
}
