package memstore

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/data/store"
	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/platform/clock"
)

// Fault points accepted by InjectFault.
const (
	FaultBegin                 = "begin"
	FaultCommit                = "commit"
	FaultSaveProfile           = "save_profile"
	FaultSaveReviewState       = "save_review_state"
	FaultSaveChallengeProgress = "save_challenge_progress"
	FaultAppendSessionLog      = "append_session_log"
)

type progressKey struct {
	date time.Time
	kind learning.ChallengeKind
}

type learnerData struct {
	profile  *learning.Profile
	reviews  map[uuid.UUID]learning.ReviewState
	progress map[progressKey]learning.ChallengeProgress
	logs     []learning.SessionLog
}

func (d *learnerData) clone() *learnerData {
	out := &learnerData{
		reviews:  make(map[uuid.UUID]learning.ReviewState, len(d.reviews)),
		progress: make(map[progressKey]learning.ChallengeProgress, len(d.progress)),
		logs:     append([]learning.SessionLog(nil), d.logs...),
	}
	if d.profile != nil {
		p := d.profile.Clone()
		out.profile = &p
	}
	for k, v := range d.reviews {
		out.reviews[k] = v
	}
	for k, v := range d.progress {
		out.progress[k] = v
	}
	return out
}

// Learners is a copy-on-write LearnerStore: a transaction works on a private
// copy of the learner's data that replaces the original only on commit.
type Learners struct {
	mu      sync.Mutex
	data    map[uuid.UUID]*learnerData
	faults  map[string]error
	commits int
}

var _ store.LearnerStore = (*Learners)(nil)

func NewLearners() *Learners {
	return &Learners{data: map[uuid.UUID]*learnerData{}, faults: map[string]error{}}
}

// InjectFault makes every later operation at point fail with err until
// ClearFaults is called.
func (s *Learners) InjectFault(point string, err error) {
	s.mu.Lock()
	s.faults[point] = err
	s.mu.Unlock()
}

func (s *Learners) ClearFaults() {
	s.mu.Lock()
	s.faults = map[string]error{}
	s.mu.Unlock()
}

// Commits returns the number of committed transactions.
func (s *Learners) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

func (s *Learners) InTx(ctx context.Context, learnerID uuid.UUID, fn func(tx store.LearnerTx) error) error {
	if fn == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faults[FaultBegin]; err != nil {
		return err
	}
	cur, ok := s.data[learnerID]
	if !ok {
		cur = &learnerData{
			reviews:  map[uuid.UUID]learning.ReviewState{},
			progress: map[progressKey]learning.ChallengeProgress{},
		}
	}
	tx := &learnerTx{learnerID: learnerID, data: cur.clone(), faults: s.faults}
	if err := fn(tx); err != nil {
		return err
	}
	if err := s.faults[FaultCommit]; err != nil {
		return err
	}
	if tx.dirty {
		s.data[learnerID] = tx.data
		s.commits++
	}
	return nil
}

// SessionLogs returns the committed session logs of a learner.
func (s *Learners) SessionLogs(learnerID uuid.UUID) []learning.SessionLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.data[learnerID]
	if !ok {
		return nil
	}
	return append([]learning.SessionLog(nil), d.logs...)
}

type learnerTx struct {
	learnerID uuid.UUID
	data      *learnerData
	faults    map[string]error
	dirty     bool
}

var errLearnerMismatch = errors.New("record belongs to another learner")

func (t *learnerTx) fault(point string) error {
	return t.faults[point]
}

func (t *learnerTx) Profile() (learning.Profile, bool, error) {
	if t.data.profile == nil {
		return learning.NewProfile(t.learnerID), false, nil
	}
	p := t.data.profile.Clone()
	if err := p.Validate(); err != nil {
		return learning.Profile{}, false, err
	}
	return p, true, nil
}

func (t *learnerTx) SaveProfile(p learning.Profile) error {
	if err := t.fault(FaultSaveProfile); err != nil {
		return err
	}
	if p.LearnerID != t.learnerID {
		return errLearnerMismatch
	}
	c := p.Clone()
	t.data.profile = &c
	t.dirty = true
	return nil
}

func (t *learnerTx) ReviewStates() (map[uuid.UUID]learning.ReviewState, error) {
	out := make(map[uuid.UUID]learning.ReviewState, len(t.data.reviews))
	for id, rs := range t.data.reviews {
		if err := rs.Validate(); err != nil {
			return nil, err
		}
		out[id] = rs
	}
	return out, nil
}

func (t *learnerTx) DueReviews(at time.Time) ([]learning.ReviewState, error) {
	var out []learning.ReviewState
	for _, rs := range t.data.reviews {
		if err := rs.Validate(); err != nil {
			return nil, err
		}
		if rs.Completed && !rs.NextDue.After(at) {
			out = append(out, rs)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextDue.Equal(out[j].NextDue) {
			return out[i].NextDue.Before(out[j].NextDue)
		}
		return bytes.Compare(out[i].ItemID[:], out[j].ItemID[:]) < 0
	})
	return out, nil
}

func (t *learnerTx) SaveReviewState(rs learning.ReviewState) error {
	if err := t.fault(FaultSaveReviewState); err != nil {
		return err
	}
	if rs.LearnerID != t.learnerID {
		return errLearnerMismatch
	}
	t.data.reviews[rs.ItemID] = rs
	t.dirty = true
	return nil
}

func (t *learnerTx) ChallengeProgress(date time.Time) (map[learning.ChallengeKind]learning.ChallengeProgress, error) {
	day := clock.Date(date)
	out := map[learning.ChallengeKind]learning.ChallengeProgress{}
	for k, p := range t.data.progress {
		if k.date.Equal(day) {
			out[k.kind] = p
		}
	}
	return out, nil
}

func (t *learnerTx) SaveChallengeProgress(p learning.ChallengeProgress) error {
	if err := t.fault(FaultSaveChallengeProgress); err != nil {
		return err
	}
	if p.LearnerID != t.learnerID {
		return errLearnerMismatch
	}
	t.data.progress[progressKey{date: clock.Date(p.Date), kind: p.Kind}] = p
	t.dirty = true
	return nil
}

func (t *learnerTx) AppendSessionLog(l learning.SessionLog) error {
	if err := t.fault(FaultAppendSessionLog); err != nil {
		return err
	}
	if l.LearnerID != t.learnerID {
		return errLearnerMismatch
	}
	t.data.logs = append(t.data.logs, l)
	t.dirty = true
	return nil
}
