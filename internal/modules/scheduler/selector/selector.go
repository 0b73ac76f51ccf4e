// Package selector orders candidate items for the next slot of a session.
//
// Every policy is a pure function of its Input: the same profile snapshot,
// candidates, review states, served list and seed always produce the same
// ordering. The seeded RNG only breaks ties the policy leaves open.
package selector

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

type Policy string

const (
	DueFirst    Policy = "due_first"
	WeakArea    Policy = "weak_area"
	TargetMatch Policy = "target_match"
	AdaptiveMix Policy = "adaptive_mix"
)

// PolicyFor maps a session kind to its selection policy.
func PolicyFor(kind learning.SessionKind) Policy {
	switch kind {
	case learning.KindReview:
		return DueFirst
	case learning.KindRemedial:
		return WeakArea
	case learning.KindPractice, learning.KindAssessment:
		return TargetMatch
	default:
		return AdaptiveMix
	}
}

// Input is everything a policy may look at.
type Input struct {
	Profile learning.Profile
	// CurrentDifficulty is the session's live difficulty.
	CurrentDifficulty float64
	Candidates        []learning.Item
	// States holds the learner's review states keyed by item id. Missing
	// entries mean the item was never attempted.
	States map[uuid.UUID]learning.ReviewState
	Served []uuid.UUID
	Seed   uint64
}

// Order returns the eligible candidates in the order policy would serve them.
func Order(policy Policy, in Input) []learning.Item {
	items := eligible(in)
	switch policy {
	case DueFirst:
		return dueFirst(items, in)
	case WeakArea:
		return weakArea(items, in)
	case TargetMatch:
		return targetMatch(items, in)
	default:
		return adaptiveMix(items, in)
	}
}

// Next returns the first item Order would produce.
func Next(policy Policy, in Input) (learning.Item, bool) {
	ordered := Order(policy, in)
	if len(ordered) == 0 {
		return learning.Item{}, false
	}
	return ordered[0], true
}

// eligible drops served items, duplicates and items with unmet prerequisites.
func eligible(in Input) []learning.Item {
	served := make(map[uuid.UUID]struct{}, len(in.Served))
	for _, id := range in.Served {
		served[id] = struct{}{}
	}
	out := make([]learning.Item, 0, len(in.Candidates))
	for _, it := range in.Candidates {
		if _, ok := served[it.ID]; ok {
			continue
		}
		if !PrerequisitesMet(it, in.States) {
			continue
		}
		served[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

// PrerequisitesMet reports whether every prerequisite of it has a completed
// review state.
func PrerequisitesMet(it learning.Item, states map[uuid.UUID]learning.ReviewState) bool {
	for _, pre := range it.Prerequisites {
		st, ok := states[pre]
		if !ok || !st.Completed {
			return false
		}
	}
	return true
}

func dueFirst(items []learning.Item, in Input) []learning.Item {
	sort.SliceStable(items, func(i, j int) bool {
		a, aok := attempted(in.States, items[i].ID)
		b, bok := attempted(in.States, items[j].ID)
		if aok != bok {
			return aok
		}
		if aok {
			if !a.NextDue.Equal(b.NextDue) {
				return a.NextDue.Before(b.NextDue)
			}
			if a.Ease != b.Ease {
				return a.Ease < b.Ease
			}
		}
		return lessID(items[i].ID, items[j].ID)
	})
	return items
}

func weakArea(items []learning.Item, in Input) []learning.Item {
	band := int(math.Round(in.CurrentDifficulty))
	out := items[:0:0]
	for _, it := range items {
		if in.Profile.IsWeak(it.SubjectID) || it.Difficulty == band {
			out = append(out, it)
		}
	}
	keys := tieKeys(out, in.Seed)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := in.Profile.StrengthOf(out[i].SubjectID), in.Profile.StrengthOf(out[j].SubjectID)
		if si != sj {
			return si < sj
		}
		if out[i].Difficulty != out[j].Difficulty {
			return out[i].Difficulty < out[j].Difficulty
		}
		ki, kj := keys[out[i].ID], keys[out[j].ID]
		if ki != kj {
			return ki < kj
		}
		return lessID(out[i].ID, out[j].ID)
	})
	return out
}

func targetMatch(items []learning.Item, in Input) []learning.Item {
	sort.SliceStable(items, func(i, j int) bool {
		di := math.Abs(float64(items[i].Difficulty) - in.CurrentDifficulty)
		dj := math.Abs(float64(items[j].Difficulty) - in.CurrentDifficulty)
		if di != dj {
			return di < dj
		}
		li, lj := lastAttempt(in.States, items[i].ID), lastAttempt(in.States, items[j].ID)
		if !li.Equal(lj) {
			return li.Before(lj)
		}
		return lessID(items[i].ID, items[j].ID)
	})
	return items
}

// mixWeights are the bucket shares of adaptive-mix, in tenths.
var mixWeights = [3]int{6, 3, 1}

// adaptiveMix interleaves the weak-area, target-match and due-first orderings
// with smooth weighted round-robin. The round-robin is advanced once per item
// already served so that recomputing after each answer continues the same
// bucket pattern.
func adaptiveMix(items []learning.Item, in Input) []learning.Item {
	buckets := [3][]learning.Item{
		weakArea(append([]learning.Item(nil), items...), in),
		targetMatch(append([]learning.Item(nil), items...), in),
		dueFirst(append([]learning.Item(nil), items...), in),
	}
	rr := newRoundRobin(mixWeights)
	for range in.Served {
		rr.next(nil)
	}

	used := make(map[uuid.UUID]struct{}, len(items))
	pos := [3]int{}
	out := make([]learning.Item, 0, len(items))
	for len(out) < len(items) {
		b := rr.next(func(b int) bool { return advance(buckets[b], &pos[b], used) })
		if b < 0 {
			break
		}
		it := buckets[b][pos[b]]
		pos[b]++
		used[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

// advance moves *pos past items already used and reports whether the bucket
// still has something to offer.
func advance(bucket []learning.Item, pos *int, used map[uuid.UUID]struct{}) bool {
	for *pos < len(bucket) {
		if _, ok := used[bucket[*pos].ID]; !ok {
			return true
		}
		*pos++
	}
	return false
}

type roundRobin struct {
	weights [3]int
	current [3]int
	total   int
}

func newRoundRobin(w [3]int) *roundRobin {
	return &roundRobin{weights: w, total: w[0] + w[1] + w[2]}
}

// next picks the bucket with the highest running weight among those for
// which ok returns true (all buckets when ok is nil). It returns -1 when no
// bucket is available.
func (r *roundRobin) next(ok func(int) bool) int {
	best := -1
	total := 0
	for i, w := range r.weights {
		if ok != nil && !ok(i) {
			continue
		}
		r.current[i] += w
		total += w
		if best < 0 || r.current[i] > r.current[best] {
			best = i
		}
	}
	if best >= 0 {
		r.current[best] -= total
	}
	return best
}

func attempted(states map[uuid.UUID]learning.ReviewState, id uuid.UUID) (learning.ReviewState, bool) {
	st, ok := states[id]
	if !ok || st.Attempts == 0 {
		return learning.ReviewState{}, false
	}
	return st, true
}

// lastAttempt returns the zero time for items never attempted, which sorts
// them as the longest since last attempt.
func lastAttempt(states map[uuid.UUID]learning.ReviewState, id uuid.UUID) time.Time {
	st, ok := attempted(states, id)
	if !ok {
		return time.Time{}
	}
	return st.LastReviewedAt
}

func lessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

// tieKeys draws one pseudo-random key per item from a generator seeded by the
// session seed and the item id, so keys do not depend on candidate order.
func tieKeys(items []learning.Item, seed uint64) map[uuid.UUID]uint64 {
	keys := make(map[uuid.UUID]uint64, len(items))
	for _, it := range items {
		hi := binary.BigEndian.Uint64(it.ID[:8])
		lo := binary.BigEndian.Uint64(it.ID[8:])
		keys[it.ID] = rand.New(rand.NewPCG(seed^hi, lo)).Uint64()
	}
	return keys
}
