// Package session runs the adaptive session state machine.
//
//	open --Start--> running --Submit*--> running --Close--> closed
//
// The engine never touches storage. Callers load the learner's data, hand it
// in, and persist what Close returns inside one transaction before calling
// Finish.
package session

import (
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler/difficulty"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler/reward"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler/selector"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler/srs"
)

// Config holds the tunables of session analysis and profile writeback.
type Config struct {
	DefaultMaxItems      int
	MaxItemsLimit        int
	AdjustmentRate       float64
	PerformanceThreshold float64
	// ComplexityEMAWeight is the weight of the session's final difficulty
	// against the prior complexity level.
	ComplexityEMAWeight float64
	// StrengthEMAWeight is the weight of a session's subject accuracy against
	// the prior subject strength.
	StrengthEMAWeight float64
	// A subject is eligible for the weak set once it has WeakMinSamples
	// answers; it is weak while its accuracy is below WeakAccuracy.
	WeakMinSamples int
	WeakAccuracy   float64
}

func DefaultConfig() Config {
	return Config{
		DefaultMaxItems:      10,
		MaxItemsLimit:        200,
		AdjustmentRate:       learning.DefaultAdjustmentRate,
		PerformanceThreshold: learning.DefaultPerformanceThreshold,
		ComplexityEMAWeight:  0.7,
		StrengthEMAWeight:    0.3,
		WeakMinSamples:       10,
		WeakAccuracy:         0.6,
	}
}

type Engine struct {
	cfg     Config
	rewards *reward.Engine
}

func NewEngine(cfg Config, rewards *reward.Engine) *Engine {
	def := DefaultConfig()
	if cfg.DefaultMaxItems <= 0 {
		cfg.DefaultMaxItems = def.DefaultMaxItems
	}
	if cfg.MaxItemsLimit <= 0 {
		cfg.MaxItemsLimit = def.MaxItemsLimit
	}
	if cfg.AdjustmentRate <= 0 || cfg.AdjustmentRate > 1 {
		cfg.AdjustmentRate = def.AdjustmentRate
	}
	if cfg.PerformanceThreshold <= 0 || cfg.PerformanceThreshold > 1 {
		cfg.PerformanceThreshold = def.PerformanceThreshold
	}
	if cfg.ComplexityEMAWeight <= 0 || cfg.ComplexityEMAWeight > 1 {
		cfg.ComplexityEMAWeight = def.ComplexityEMAWeight
	}
	if cfg.StrengthEMAWeight <= 0 || cfg.StrengthEMAWeight > 1 {
		cfg.StrengthEMAWeight = def.StrengthEMAWeight
	}
	if cfg.WeakMinSamples <= 0 {
		cfg.WeakMinSamples = def.WeakMinSamples
	}
	if cfg.WeakAccuracy <= 0 || cfg.WeakAccuracy > 1 {
		cfg.WeakAccuracy = def.WeakAccuracy
	}
	if rewards == nil {
		rewards = reward.New(nil)
	}
	return &Engine{cfg: cfg, rewards: rewards}
}

func (e *Engine) Config() Config { return e.cfg }

// Run is a live session together with the items it has served.
type Run struct {
	Session learning.Session
	items   map[uuid.UUID]learning.Item
	summary *learning.Summary
}

// Summary returns the close summary once the run is closed.
func (r *Run) Summary() (learning.Summary, bool) {
	if r.summary == nil {
		return learning.Summary{}, false
	}
	return *r.summary, true
}

// Item returns a served item.
func (r *Run) Item(id uuid.UUID) (learning.Item, bool) {
	it, ok := r.items[id]
	return it, ok
}

// Open validates params and builds a session in state open. The target
// difficulty is the profile's complexity level unless params override it.
func (e *Engine) Open(id, learnerID uuid.UUID, profile learning.Profile, p learning.SessionParams, now time.Time) (*Run, error) {
	const op = "session.open"
	if learnerID == uuid.Nil {
		return nil, learning.Invalid(op, "missing learner id")
	}
	kind, ok := learning.ParseSessionKind(strings.TrimSpace(string(p.Kind)))
	if !ok {
		return nil, learning.Invalid(op, "unknown session kind %q", p.Kind)
	}
	subject := strings.TrimSpace(p.SubjectID)
	if subject == "" {
		return nil, learning.Invalid(op, "missing subject")
	}
	maxItems := p.MaxItems
	if maxItems == 0 {
		maxItems = e.cfg.DefaultMaxItems
	}
	if maxItems < 1 || maxItems > e.cfg.MaxItemsLimit {
		return nil, learning.Invalid(op, "max items %d out of range [1,%d]", p.MaxItems, e.cfg.MaxItemsLimit)
	}
	if p.TimeLimitSeconds < 0 {
		return nil, learning.Invalid(op, "negative time limit")
	}
	if p.TimeLimitSeconds > learning.MaxTimeLimitSeconds {
		return nil, learning.Invalid(op, "time limit %ds exceeds %ds", p.TimeLimitSeconds, learning.MaxTimeLimitSeconds)
	}
	rate := p.AdjustmentRate
	if rate == 0 {
		rate = e.cfg.AdjustmentRate
	}
	if !(rate > 0 && rate <= 1) {
		return nil, learning.Invalid(op, "adjustment rate %v out of range (0,1]", p.AdjustmentRate)
	}
	threshold := p.PerformanceThreshold
	if threshold == 0 {
		threshold = e.cfg.PerformanceThreshold
	}
	if !(threshold > 0 && threshold <= 1) {
		return nil, learning.Invalid(op, "performance threshold %v out of range (0,1]", p.PerformanceThreshold)
	}
	target := difficulty.Clamp(profile.ComplexityLevel)
	if p.TargetDifficulty != nil {
		t := *p.TargetDifficulty
		if math.IsNaN(t) || t < learning.MinComplexity || t > learning.MaxComplexity {
			return nil, learning.Invalid(op, "target difficulty %v out of range [1,5]", t)
		}
		target = t
	}

	return &Run{
		Session: learning.Session{
			ID:                   id,
			LearnerID:            learnerID,
			SubjectID:            subject,
			TopicID:              strings.TrimSpace(p.TopicID),
			Kind:                 kind,
			TargetDifficulty:     target,
			InitialDifficulty:    target,
			CurrentDifficulty:    target,
			AdjustmentRate:       rate,
			PerformanceThreshold: threshold,
			MaxItems:             maxItems,
			TimeLimit:            time.Duration(p.TimeLimitSeconds) * time.Second,
			AllowPremium:         p.AllowPremium,
			Seed:                 Seed(id),
			State:                learning.SessionOpen,
			StartedAt:            now,
		},
		items: map[uuid.UUID]learning.Item{},
	}, nil
}

// Seed derives the session's RNG seed from its id.
func Seed(id uuid.UUID) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(id[:])
	return h.Sum64()
}

func (e *Engine) Start(r *Run) error {
	if r.Session.State != learning.SessionOpen {
		return learning.NewError(learning.CodeSessionClosed, "session.start", "session is not open", nil)
	}
	r.Session.State = learning.SessionRunning
	return nil
}

func requireRunning(op string, r *Run) error {
	if r.Session.State != learning.SessionRunning {
		return learning.NewError(learning.CodeSessionClosed, op, "session is "+string(r.Session.State), nil)
	}
	return nil
}

// Next returns the item to present, or false when the session has nothing
// left to serve. While an item is awaiting its answer, Next returns it again.
func (e *Engine) Next(r *Run, profile learning.Profile, states map[uuid.UUID]learning.ReviewState, candidates []learning.Item) (learning.Item, bool, error) {
	if err := requireRunning("session.next", r); err != nil {
		return learning.Item{}, false, err
	}
	if pending, ok := r.Session.Pending(); ok {
		return r.items[pending], true, nil
	}
	if len(r.Session.Served) >= r.Session.MaxItems {
		return learning.Item{}, false, nil
	}
	it, ok := selector.Next(selector.PolicyFor(r.Session.Kind), selector.Input{
		Profile:           profile,
		CurrentDifficulty: r.Session.CurrentDifficulty,
		Candidates:        candidates,
		States:            states,
		Served:            r.Session.Served,
		Seed:              r.Session.Seed,
	})
	if !ok {
		return learning.Item{}, false, nil
	}
	r.Session.Served = append(r.Session.Served, it.ID)
	r.items[it.ID] = it
	return it, true, nil
}

// Submit grades the answer to the pending item and adapts the session's
// difficulty. prior is the item's stored review state; it is only used to
// preview the next due date, the real update is applied at close.
func (e *Engine) Submit(r *Run, in learning.AnswerInput, prior learning.ReviewState, now time.Time) (learning.Feedback, error) {
	const op = "session.submit"
	if err := requireRunning(op, r); err != nil {
		return learning.Feedback{}, err
	}
	if math.IsNaN(in.TimeSpentSeconds) || math.IsInf(in.TimeSpentSeconds, 0) || in.TimeSpentSeconds < 0 {
		return learning.Feedback{}, learning.Invalid(op, "time spent must be a non-negative number")
	}
	pending, ok := r.Session.Pending()
	if !ok {
		return learning.Feedback{}, learning.NewError(learning.CodeAnswerMismatch, op, "no item is awaiting an answer", nil)
	}
	if in.ItemID != pending {
		return learning.Feedback{}, learning.NewError(learning.CodeAnswerMismatch, op, "answer is for "+in.ItemID.String()+", expected "+pending.String(), nil)
	}
	it := r.items[pending]
	correct := it.Grade(in.SelectedOption, in.Text)
	score := 0.0
	if correct {
		score = 100
	}
	r.Session.Answers = append(r.Session.Answers, learning.Answer{
		ItemID:           it.ID,
		SubjectID:        it.SubjectID,
		SelectedOption:   in.SelectedOption,
		Text:             in.Text,
		Correct:          correct,
		Score:            score,
		TimeSpentSeconds: in.TimeSpentSeconds,
		EstimatedSeconds: it.EstimatedSeconds,
		AnsweredAt:       now,
	})
	r.Session.CurrentDifficulty = difficulty.AfterAnswer(r.Session.CurrentDifficulty, r.Session.AdjustmentRate, r.Session.Answers)

	if prior.LearnerID == uuid.Nil {
		prior = learning.NewReviewState(r.Session.LearnerID, it.ID)
	}
	preview := srs.Update(prior, score, now)
	return learning.Feedback{
		ItemID:            it.ID,
		Correct:           correct,
		Score:             score,
		ExplanationID:     it.ExplanationID,
		CurrentDifficulty: r.Session.CurrentDifficulty,
		ReviewDueAt:       preview.NextDue,
		ItemsRemaining:    r.Session.MaxItems - len(r.Session.Answers),
	}, nil
}
