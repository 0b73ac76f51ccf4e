// Package scheduler is the public surface of the adaptive learning core.
//
// Every operation that reads or writes a learner's profile, review states or
// challenge progress runs under that learner's lock. Live sessions are kept in
// memory; only their close is persisted, as one learner transaction.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/lexdrill-backend/internal/data/store"
	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler/events"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler/reward"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler/session"
	"github.com/yungbote/lexdrill-backend/internal/observability"
	"github.com/yungbote/lexdrill-backend/internal/platform/clock"
	"github.com/yungbote/lexdrill-backend/internal/platform/logger"
)

type Config struct {
	Session session.Config
	// ClosedRetention is how long a closed session's summary stays available
	// for repeated closes before the sweeper forgets it.
	ClosedRetention time.Duration
}

func DefaultConfig() Config {
	return Config{Session: session.DefaultConfig(), ClosedRetention: 24 * time.Hour}
}

type Deps struct {
	Items      store.ItemStore
	Learners   store.LearnerStore
	Challenges store.ChallengeCatalog
	Boosts     store.BoostSource
	Rewards    *reward.Engine
	Clock      clock.Clock
	Bus        *events.Bus
	Metrics    *observability.Metrics
	Log        *logger.Logger
	// NewID generates session ids; uuid.New when nil.
	NewID func() uuid.UUID
}

type Facade struct {
	cfg    Config
	deps   Deps
	engine *session.Engine
	log    *logger.Logger
	tracer trace.Tracer
	locks  *learnerLocks

	mu       sync.Mutex
	sessions map[uuid.UUID]*entry
	running  map[uuid.UUID]uuid.UUID
}

type entry struct {
	// busy rejects overlapping calls on one session instead of queueing them.
	busy sync.Mutex
	run  *session.Run

	learnerID uuid.UUID
	closedAt  time.Time
}

func New(cfg Config, deps Deps) (*Facade, error) {
	if deps.Items == nil || deps.Learners == nil {
		return nil, errors.New("scheduler: item and learner stores are required")
	}
	if deps.Clock == nil {
		deps.Clock = clock.System()
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.NewID == nil {
		deps.NewID = uuid.New
	}
	if deps.Rewards == nil {
		deps.Rewards = reward.New(nil)
	}
	if cfg.ClosedRetention <= 0 {
		cfg.ClosedRetention = DefaultConfig().ClosedRetention
	}
	engine := session.NewEngine(cfg.Session, deps.Rewards)
	cfg.Session = engine.Config()
	return &Facade{
		cfg:      cfg,
		deps:     deps,
		engine:   engine,
		log:      deps.Log.With("service", "SchedulerFacade"),
		tracer:   observability.Tracer("github.com/yungbote/lexdrill-backend/scheduler"),
		locks:    newLearnerLocks(),
		sessions: map[uuid.UUID]*entry{},
		running:  map[uuid.UUID]uuid.UUID{},
	}, nil
}

func (f *Facade) Config() Config { return f.cfg }

type OpenResult struct {
	SessionID         uuid.UUID            `json:"session_id"`
	Kind              learning.SessionKind `json:"kind"`
	InitialDifficulty float64              `json:"initial_difficulty"`
	MaxItems          int                  `json:"max_items"`
	StartedAt         time.Time            `json:"started_at"`
}

// OpenSession starts a session for the learner. A learner has at most one
// running session; an expired one is closed with reason timeout first.
func (f *Facade) OpenSession(ctx context.Context, learnerID uuid.UUID, params learning.SessionParams) (res OpenResult, err error) {
	const op = "open_session"
	ctx, end := f.span(ctx, op, attribute.String("learner_id", learnerID.String()))
	defer func() { end(err) }()

	if learnerID == uuid.Nil {
		return OpenResult{}, f.fail(op, learning.Invalid("scheduler.open", "missing learner id"))
	}
	unlock, err := f.locks.Lock(ctx, learnerID)
	if err != nil {
		return OpenResult{}, f.fail(op, err)
	}
	defer unlock()

	if err := f.retireExpired(ctx, learnerID); err != nil {
		return OpenResult{}, f.fail(op, err)
	}

	var profile learning.Profile
	if err := f.read(ctx, learnerID, func(tx store.LearnerTx) error {
		p, _, err := tx.Profile()
		profile = p
		return err
	}); err != nil {
		return OpenResult{}, f.fail(op, err)
	}

	now := f.deps.Clock.Now()
	run, err := f.engine.Open(f.deps.NewID(), learnerID, profile, params, now)
	if err != nil {
		return OpenResult{}, f.fail(op, err)
	}
	if err := f.engine.Start(run); err != nil {
		return OpenResult{}, f.fail(op, err)
	}

	s := run.Session
	f.mu.Lock()
	f.sessions[s.ID] = &entry{run: run, learnerID: learnerID}
	f.running[learnerID] = s.ID
	f.mu.Unlock()

	f.deps.Metrics.IncSessionOpened(string(s.Kind))
	f.log.Info("session opened",
		"learner_id", learnerID.String(),
		"session_id", s.ID.String(),
		"kind", s.Kind,
		"subject_id", s.SubjectID,
		"target_difficulty", s.TargetDifficulty,
		"max_items", s.MaxItems,
	)
	return OpenResult{
		SessionID:         s.ID,
		Kind:              s.Kind,
		InitialDifficulty: s.InitialDifficulty,
		MaxItems:          s.MaxItems,
		StartedAt:         s.StartedAt,
	}, nil
}

// retireExpired closes the learner's running session if its time limit has
// passed. Caller holds the learner lock.
func (f *Facade) retireExpired(ctx context.Context, learnerID uuid.UUID) error {
	f.mu.Lock()
	id, ok := f.running[learnerID]
	e := f.sessions[id]
	f.mu.Unlock()
	if !ok || e == nil {
		return nil
	}
	if !e.busy.TryLock() {
		return learning.NewError(learning.CodeSessionAlreadyOpen, "scheduler.open", "session "+id.String()+" is running", nil)
	}
	defer e.busy.Unlock()
	if e.run.Session.State != learning.SessionRunning {
		return nil
	}
	if !e.run.Session.Expired(f.deps.Clock.Now()) {
		return learning.NewError(learning.CodeSessionAlreadyOpen, "scheduler.open", "session "+id.String()+" is running", nil)
	}
	_, err := f.closeLocked(ctx, e, learning.CloseTimeout)
	return err
}

type NextResult struct {
	Item *learning.Item `json:"item,omitempty"`
	// End is set when the session has nothing left to serve; it has been
	// closed and Summary holds the result.
	End     bool              `json:"end"`
	Summary *learning.Summary `json:"summary,omitempty"`
}

// NextItem returns the item to present next. While an item awaits its answer
// the same item is returned again.
func (f *Facade) NextItem(ctx context.Context, sessionID uuid.UUID) (res NextResult, err error) {
	const op = "next_item"
	ctx, end := f.span(ctx, op, attribute.String("session_id", sessionID.String()))
	defer func() { end(err) }()

	e, release, err := f.acquire(ctx, "scheduler.next", sessionID)
	if err != nil {
		return NextResult{}, f.fail(op, err)
	}
	defer release()

	run := e.run
	if run.Session.State == learning.SessionClosed {
		return NextResult{}, f.fail(op, learning.NewError(learning.CodeSessionClosed, "scheduler.next", "session is closed", nil))
	}
	if run.Session.Expired(f.deps.Clock.Now()) {
		return f.endSession(ctx, op, e, learning.CloseTimeout)
	}
	if pending, ok := run.Session.Pending(); ok {
		it, _ := run.Item(pending)
		return NextResult{Item: &it}, nil
	}

	var (
		profile learning.Profile
		states  map[uuid.UUID]learning.ReviewState
	)
	if err := f.read(ctx, e.learnerID, func(tx store.LearnerTx) error {
		p, _, err := tx.Profile()
		if err != nil {
			return err
		}
		profile = p
		states, err = tx.ReviewStates()
		return err
	}); err != nil {
		return NextResult{}, f.fail(op, err)
	}
	candidates, err := f.deps.Items.Candidates(ctx, store.ItemQuery{
		SubjectID:    run.Session.SubjectID,
		TopicID:      run.Session.TopicID,
		AllowPremium: run.Session.AllowPremium,
		Exclude:      run.Session.Served,
	})
	if err != nil {
		return NextResult{}, f.fail(op, storeErr("scheduler.next", err))
	}

	it, ok, err := f.engine.Next(run, profile, states, candidates)
	if err != nil {
		return NextResult{}, f.fail(op, err)
	}
	if !ok {
		return f.endSession(ctx, op, e, learning.CloseCompleted)
	}
	return NextResult{Item: &it}, nil
}

func (f *Facade) endSession(ctx context.Context, op string, e *entry, reason learning.CloseReason) (NextResult, error) {
	summary, err := f.closeLocked(ctx, e, reason)
	if err != nil {
		return NextResult{}, f.fail(op, err)
	}
	return NextResult{End: true, Summary: &summary}, nil
}

// SubmitAnswer grades the answer to the item most recently served.
func (f *Facade) SubmitAnswer(ctx context.Context, sessionID uuid.UUID, in learning.AnswerInput) (fb learning.Feedback, err error) {
	const op = "submit_answer"
	ctx, end := f.span(ctx, op,
		attribute.String("session_id", sessionID.String()),
		attribute.String("item_id", in.ItemID.String()),
	)
	defer func() { end(err) }()

	e, release, err := f.acquire(ctx, "scheduler.submit", sessionID)
	if err != nil {
		return learning.Feedback{}, f.fail(op, err)
	}
	defer release()

	run := e.run
	if run.Session.State == learning.SessionClosed {
		return learning.Feedback{}, f.fail(op, learning.NewError(learning.CodeSessionClosed, "scheduler.submit", "session is closed", nil))
	}
	if run.Session.Expired(f.deps.Clock.Now()) {
		if _, err := f.closeLocked(ctx, e, learning.CloseTimeout); err != nil {
			return learning.Feedback{}, f.fail(op, err)
		}
		return learning.Feedback{}, f.fail(op, learning.NewError(learning.CodeSessionClosed, "scheduler.submit", "session timed out", nil))
	}

	prior := learning.NewReviewState(e.learnerID, in.ItemID)
	if pending, ok := run.Session.Pending(); ok && pending == in.ItemID {
		if err := f.read(ctx, e.learnerID, func(tx store.LearnerTx) error {
			states, err := tx.ReviewStates()
			if err != nil {
				return err
			}
			if rs, ok := states[in.ItemID]; ok {
				prior = rs
			}
			return nil
		}); err != nil {
			return learning.Feedback{}, f.fail(op, err)
		}
	}

	fb, err = f.engine.Submit(run, in, prior, f.deps.Clock.Now())
	if err != nil {
		return learning.Feedback{}, f.fail(op, err)
	}
	f.deps.Metrics.IncAnswer(fb.Correct)
	return fb, nil
}

// CloseSession closes the session and persists its outcome. Closing an
// already closed session returns the same summary. On failure nothing is
// persisted and the session stays running, so the close can be retried.
func (f *Facade) CloseSession(ctx context.Context, sessionID uuid.UUID, reason learning.CloseReason) (s learning.Summary, err error) {
	const op = "close_session"
	ctx, end := f.span(ctx, op,
		attribute.String("session_id", sessionID.String()),
		attribute.String("reason", string(reason)),
	)
	defer func() { end(err) }()

	e, release, err := f.acquire(ctx, "scheduler.close", sessionID)
	if err != nil {
		return learning.Summary{}, f.fail(op, err)
	}
	defer release()

	s, err = f.closeLocked(ctx, e, reason)
	if err != nil {
		return learning.Summary{}, f.fail(op, err)
	}
	return s, nil
}

// closeLocked runs the close transaction. Caller holds e.busy and the
// learner lock.
func (f *Facade) closeLocked(ctx context.Context, e *entry, reason learning.CloseReason) (learning.Summary, error) {
	run := e.run
	if s, ok := run.Summary(); ok {
		return s, nil
	}
	started := time.Now()
	now := f.deps.Clock.Now()
	learnerID := e.learnerID

	challenges, boosts, err := f.rewardInputs(ctx, learnerID, now)
	if err != nil {
		f.deps.Metrics.ObserveSessionCloseFailed(string(reason), time.Since(started))
		return learning.Summary{}, err
	}

	var out session.Outcome
	err = f.deps.Learners.InTx(ctx, learnerID, func(tx store.LearnerTx) error {
		in, err := loadCloseInput(tx, now)
		if err != nil {
			return err
		}
		in.Reason = reason
		in.Challenges = challenges
		in.Boosts = boosts
		out, err = f.engine.Close(run, in)
		if err != nil {
			return err
		}
		return persist(tx, out)
	})
	if err != nil {
		err = storeErr("scheduler.close", err)
		f.deps.Metrics.ObserveSessionCloseFailed(string(reason), time.Since(started))
		f.log.Warn("session close failed",
			"learner_id", learnerID.String(),
			"session_id", run.Session.ID.String(),
			"reason", reason,
			"error", err,
		)
		return learning.Summary{}, err
	}

	f.engine.Finish(run, out)
	f.mu.Lock()
	e.closedAt = now
	if f.running[learnerID] == run.Session.ID {
		delete(f.running, learnerID)
	}
	f.mu.Unlock()

	f.deps.Metrics.ObserveSessionClosed(string(run.Session.Kind), string(reason), time.Since(started))
	f.observeOutcome(out)
	f.deps.Bus.Publish(ctx, out.Events...)
	f.log.Info("session closed",
		"learner_id", learnerID.String(),
		"session_id", run.Session.ID.String(),
		"reason", reason,
		"answered", out.Summary.Answered,
		"accuracy", out.Summary.Accuracy,
		"xp_earned", out.Summary.XPEarned,
	)
	return out.Summary, nil
}

// ApplyExternalCompletion records a completion made outside any session and
// runs it through the same review, reward and challenge pipeline as a close.
func (f *Facade) ApplyExternalCompletion(ctx context.Context, learnerID, itemID uuid.UUID, score float64) (s learning.Summary, err error) {
	const op = "apply_external_completion"
	ctx, end := f.span(ctx, op,
		attribute.String("learner_id", learnerID.String()),
		attribute.String("item_id", itemID.String()),
	)
	defer func() { end(err) }()

	if learnerID == uuid.Nil {
		return learning.Summary{}, f.fail(op, learning.Invalid("scheduler.external", "missing learner id"))
	}
	if !(score >= 0 && score <= 100) {
		return learning.Summary{}, f.fail(op, learning.Invalid("scheduler.external", "score %v out of range [0,100]", score))
	}
	it, err := f.deps.Items.Get(ctx, itemID)
	if errors.Is(err, store.ErrItemNotFound) {
		return learning.Summary{}, f.fail(op, learning.Invalid("scheduler.external", "unknown item %s", itemID))
	}
	if err != nil {
		return learning.Summary{}, f.fail(op, storeErr("scheduler.external", err))
	}

	unlock, err := f.locks.Lock(ctx, learnerID)
	if err != nil {
		return learning.Summary{}, f.fail(op, err)
	}
	defer unlock()

	now := f.deps.Clock.Now()
	challenges, boosts, err := f.rewardInputs(ctx, learnerID, now)
	if err != nil {
		return learning.Summary{}, f.fail(op, err)
	}
	var out session.Outcome
	err = f.deps.Learners.InTx(ctx, learnerID, func(tx store.LearnerTx) error {
		in, err := loadCloseInput(tx, now)
		if err != nil {
			return err
		}
		in.Challenges = challenges
		in.Boosts = boosts
		out, err = f.engine.External(f.deps.NewID(), it, score, in)
		if err != nil {
			return err
		}
		return persist(tx, out)
	})
	if err != nil {
		return learning.Summary{}, f.fail(op, storeErr("scheduler.external", err))
	}

	f.deps.Metrics.IncExternalCompletion(out.Summary.Correct > 0)
	f.observeOutcome(out)
	f.deps.Bus.Publish(ctx, out.Events...)
	f.log.Info("external completion applied",
		"learner_id", learnerID.String(),
		"item_id", itemID.String(),
		"score", score,
	)
	return out.Summary, nil
}

type DueReview struct {
	Item      learning.Item `json:"item"`
	NextDueAt time.Time     `json:"next_due_at"`
}

// DueReviews lists the learner's studied items due within window from now,
// ordered by due time. Items no longer in the catalog are skipped.
func (f *Facade) DueReviews(ctx context.Context, learnerID uuid.UUID, window time.Duration) (out []DueReview, err error) {
	const op = "due_reviews"
	ctx, end := f.span(ctx, op, attribute.String("learner_id", learnerID.String()))
	defer func() { end(err) }()

	if window < 0 {
		return nil, f.fail(op, learning.Invalid("scheduler.due_reviews", "negative window"))
	}
	unlock, err := f.locks.Lock(ctx, learnerID)
	if err != nil {
		return nil, f.fail(op, err)
	}
	defer unlock()

	var due []learning.ReviewState
	if err := f.read(ctx, learnerID, func(tx store.LearnerTx) error {
		var err error
		due, err = tx.DueReviews(f.deps.Clock.Now().Add(window))
		return err
	}); err != nil {
		return nil, f.fail(op, err)
	}
	if len(due) == 0 {
		return []DueReview{}, nil
	}
	ids := make([]uuid.UUID, 0, len(due))
	for _, rs := range due {
		ids = append(ids, rs.ItemID)
	}
	items, err := f.deps.Items.GetMany(ctx, ids)
	if err != nil {
		return nil, f.fail(op, storeErr("scheduler.due_reviews", err))
	}
	out = make([]DueReview, 0, len(due))
	for _, rs := range due {
		it, ok := items[rs.ItemID]
		if !ok {
			f.log.Debug("due review for unknown item", "learner_id", learnerID.String(), "item_id", rs.ItemID.String())
			continue
		}
		out = append(out, DueReview{Item: it, NextDueAt: rs.NextDue})
	}
	return out, nil
}

// ProfileSnapshot returns a copy of the learner's profile; learners never
// seen before get the default profile.
func (f *Facade) ProfileSnapshot(ctx context.Context, learnerID uuid.UUID) (p learning.Profile, err error) {
	const op = "profile_snapshot"
	ctx, end := f.span(ctx, op, attribute.String("learner_id", learnerID.String()))
	defer func() { end(err) }()

	unlock, err := f.locks.Lock(ctx, learnerID)
	if err != nil {
		return learning.Profile{}, f.fail(op, err)
	}
	defer unlock()

	if err := f.read(ctx, learnerID, func(tx store.LearnerTx) error {
		var err error
		p, _, err = tx.Profile()
		return err
	}); err != nil {
		return learning.Profile{}, f.fail(op, err)
	}
	return p.Clone(), nil
}

// Session returns a copy of a live or recently closed session.
func (f *Facade) Session(sessionID uuid.UUID) (learning.Session, error) {
	f.mu.Lock()
	e, ok := f.sessions[sessionID]
	f.mu.Unlock()
	if !ok {
		return learning.Session{}, learning.NewError(learning.CodeSessionNotFound, "scheduler.session", "unknown session "+sessionID.String(), nil)
	}
	if !e.busy.TryLock() {
		return learning.Session{}, learning.NewError(learning.CodeConcurrentSessionAccess, "scheduler.session", "session is busy", nil)
	}
	defer e.busy.Unlock()
	s := e.run.Session
	s.Served = append([]uuid.UUID(nil), s.Served...)
	s.Answers = append([]learning.Answer(nil), s.Answers...)
	return s, nil
}

type SweepResult struct {
	Closed int `json:"closed"`
	Failed int `json:"failed"`
	Pruned int `json:"pruned"`
}

// Sweep closes running sessions past their time limit with reason timeout
// and forgets closed sessions older than the retention window. Sessions with
// a call in flight are left for the next sweep.
func (f *Facade) Sweep(ctx context.Context) SweepResult {
	now := f.deps.Clock.Now()
	var (
		res     SweepResult
		expired []*entry
	)
	f.mu.Lock()
	for id, e := range f.sessions {
		if !e.closedAt.IsZero() {
			if now.Sub(e.closedAt) > f.cfg.ClosedRetention {
				delete(f.sessions, id)
				res.Pruned++
			}
			continue
		}
		expired = append(expired, e)
	}
	f.mu.Unlock()

	for _, e := range expired {
		if ctx.Err() != nil {
			break
		}
		if !e.busy.TryLock() {
			continue
		}
		if e.run.Session.State != learning.SessionRunning || !e.run.Session.Expired(now) {
			e.busy.Unlock()
			continue
		}
		unlock, err := f.locks.Lock(ctx, e.learnerID)
		if err != nil {
			e.busy.Unlock()
			break
		}
		_, err = f.closeLocked(ctx, e, learning.CloseTimeout)
		unlock()
		e.busy.Unlock()
		if err != nil {
			res.Failed++
			f.deps.Metrics.IncSweeperClosed("error")
			f.deps.Metrics.IncSchedulerError("sweep", string(learning.CodeOf(err)))
			continue
		}
		res.Closed++
		f.deps.Metrics.IncSweeperClosed("ok")
	}
	return res
}

// SessionOwner returns the learner a known session belongs to.
func (f *Facade) SessionOwner(sessionID uuid.UUID) (uuid.UUID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.sessions[sessionID]
	if !ok {
		return uuid.Nil, false
	}
	return e.learnerID, true
}

// acquire claims the session for one call and takes its learner's lock.
func (f *Facade) acquire(ctx context.Context, op string, sessionID uuid.UUID) (*entry, func(), error) {
	f.mu.Lock()
	e, ok := f.sessions[sessionID]
	f.mu.Unlock()
	if !ok {
		return nil, nil, learning.NewError(learning.CodeSessionNotFound, op, "unknown session "+sessionID.String(), nil)
	}
	if !e.busy.TryLock() {
		return nil, nil, learning.NewError(learning.CodeConcurrentSessionAccess, op, "another call on session "+sessionID.String()+" is in flight", nil)
	}
	unlock, err := f.locks.Lock(ctx, e.learnerID)
	if err != nil {
		e.busy.Unlock()
		return nil, nil, err
	}
	return e, func() {
		unlock()
		e.busy.Unlock()
	}, nil
}

// read runs a transaction that performs no writes.
func (f *Facade) read(ctx context.Context, learnerID uuid.UUID, fn func(tx store.LearnerTx) error) error {
	if err := f.deps.Learners.InTx(ctx, learnerID, fn); err != nil {
		return storeErr("scheduler.read", err)
	}
	return nil
}

func (f *Facade) rewardInputs(ctx context.Context, learnerID uuid.UUID, now time.Time) ([]learning.DailyChallenge, []learning.Boost, error) {
	var (
		challenges []learning.DailyChallenge
		boosts     []learning.Boost
		err        error
	)
	if f.deps.Challenges != nil {
		challenges, err = f.deps.Challenges.ActiveFor(ctx, clock.Date(now))
		if err != nil {
			return nil, nil, storeErr("scheduler.challenges", err)
		}
	}
	if f.deps.Boosts != nil {
		boosts, err = f.deps.Boosts.ActiveBoosts(ctx, learnerID, now)
		if err != nil {
			return nil, nil, storeErr("scheduler.boosts", err)
		}
	}
	return challenges, boosts, nil
}

func loadCloseInput(tx store.LearnerTx, now time.Time) (session.CloseInput, error) {
	profile, _, err := tx.Profile()
	if err != nil {
		return session.CloseInput{}, err
	}
	states, err := tx.ReviewStates()
	if err != nil {
		return session.CloseInput{}, err
	}
	progress, err := tx.ChallengeProgress(clock.Date(now))
	if err != nil {
		return session.CloseInput{}, err
	}
	return session.CloseInput{
		Profile:  profile,
		States:   states,
		Progress: progress,
		Now:      now,
	}, nil
}

func persist(tx store.LearnerTx, out session.Outcome) error {
	for _, rs := range out.Reviews {
		if err := tx.SaveReviewState(rs); err != nil {
			return err
		}
	}
	for _, p := range out.Progress {
		if err := tx.SaveChallengeProgress(p); err != nil {
			return err
		}
	}
	if out.SaveProfile {
		if err := tx.SaveProfile(out.Profile); err != nil {
			return err
		}
	}
	if out.Log.SessionID != uuid.Nil {
		if err := tx.AppendSessionLog(out.Log); err != nil {
			return err
		}
	}
	return nil
}

func (f *Facade) observeOutcome(out session.Outcome) {
	for _, evt := range out.Events {
		switch e := evt.(type) {
		case learning.LevelUp:
			f.deps.Metrics.IncLevelUp()
		case learning.ChallengeCompleted:
			kind := "unknown"
			for _, p := range out.Progress {
				if p.ChallengeID == e.ChallengeID {
					kind = string(p.Kind)
				}
			}
			f.deps.Metrics.IncChallengeCompleted(kind)
		}
	}
}

// storeErr makes sure every store failure carries a code. Uncoded failures
// are treated as transient.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if learning.CodeOf(err) != "" {
		return err
	}
	return learning.Wrap(learning.CodeStoreTransient, op, err)
}

func (f *Facade) fail(op string, err error) error {
	code := learning.CodeOf(err)
	if code == "" {
		code = learning.CodeStoreTransient
		err = learning.Wrap(code, "scheduler."+op, err)
	}
	f.deps.Metrics.IncSchedulerError(op, string(code))
	return err
}

func (f *Facade) span(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, sp := f.tracer.Start(ctx, "scheduler."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			sp.RecordError(err)
			sp.SetStatus(codes.Error, string(learning.CodeOf(err)))
		}
		sp.End()
	}
}
