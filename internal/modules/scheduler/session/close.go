package session

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler/challenge"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler/difficulty"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler/reward"
	"github.com/yungbote/lexdrill-backend/internal/modules/scheduler/srs"
)

// CloseInput is the learner state a close is computed against.
type CloseInput struct {
	Reason     learning.CloseReason
	Profile    learning.Profile
	States     map[uuid.UUID]learning.ReviewState
	Challenges []learning.DailyChallenge
	Progress   map[learning.ChallengeKind]learning.ChallengeProgress
	Boosts     []learning.Boost
	Now        time.Time
}

// Outcome is everything a close writes. SaveProfile is false for sessions
// without answers, which leave the profile untouched.
type Outcome struct {
	Summary     learning.Summary
	Profile     learning.Profile
	SaveProfile bool
	Reviews     []learning.ReviewState
	Progress    []learning.ChallengeProgress
	Log         learning.SessionLog
	// Events are published after the writes commit, in order.
	Events []learning.Event
}

// Close computes the outcome of closing r without mutating it. Closing an
// already closed run returns its summary again with no writes.
func (e *Engine) Close(r *Run, in CloseInput) (Outcome, error) {
	const op = "session.close"
	if s, ok := r.Summary(); ok {
		return Outcome{Summary: s}, nil
	}
	if r.Session.State != learning.SessionRunning && r.Session.State != learning.SessionOpen {
		return Outcome{}, learning.NewError(learning.CodeSessionClosed, op, "session already closed", nil)
	}
	switch in.Reason {
	case learning.CloseCompleted, learning.CloseAbandoned, learning.CloseTimeout:
	default:
		return Outcome{}, learning.Invalid(op, "unknown close reason %q", in.Reason)
	}
	if in.Now.Before(in.Profile.UpdatedAt) {
		return Outcome{}, learning.NewError(learning.CodeClockSkew, op,
			"clock is behind the learner's last persisted write "+in.Profile.UpdatedAt.Format(time.RFC3339Nano), nil)
	}
	return e.settle(r.Session, in), nil
}

// Finish marks r closed with the summary of a committed outcome.
func (e *Engine) Finish(r *Run, out Outcome) {
	if r.summary != nil {
		return
	}
	s := out.Summary
	closedAt := s.ClosedAt
	r.Session.State = learning.SessionClosed
	r.Session.ClosedAt = &closedAt
	r.Session.CloseReason = s.Reason
	r.summary = &s
}

// External builds the outcome of a single completion recorded outside any
// session. It goes through the same review, reward and challenge pipeline as
// a session close, but leaves the complexity level alone.
func (e *Engine) External(id uuid.UUID, it learning.Item, score float64, in CloseInput) (Outcome, error) {
	const op = "session.external"
	if math.IsNaN(score) || score < 0 || score > 100 {
		return Outcome{}, learning.Invalid(op, "score %v out of range [0,100]", score)
	}
	if in.Now.Before(in.Profile.UpdatedAt) {
		return Outcome{}, learning.NewError(learning.CodeClockSkew, op, "clock is behind the learner's last persisted write", nil)
	}
	level := difficulty.Clamp(in.Profile.ComplexityLevel)
	s := learning.Session{
		ID:                   id,
		LearnerID:            in.Profile.LearnerID,
		SubjectID:            it.SubjectID,
		TopicID:              it.TopicID,
		Kind:                 learning.KindExternal,
		TargetDifficulty:     level,
		InitialDifficulty:    level,
		CurrentDifficulty:    level,
		AdjustmentRate:       e.cfg.AdjustmentRate,
		PerformanceThreshold: e.cfg.PerformanceThreshold,
		MaxItems:             1,
		State:                learning.SessionRunning,
		Served:               []uuid.UUID{it.ID},
		Answers: []learning.Answer{{
			ItemID:           it.ID,
			SubjectID:        it.SubjectID,
			Correct:          srs.Passed(score),
			Score:            score,
			EstimatedSeconds: it.EstimatedSeconds,
			AnsweredAt:       in.Now,
		}},
		StartedAt: in.Now,
	}
	in.Reason = learning.CloseCompleted
	return e.settle(s, in), nil
}

func (e *Engine) settle(s learning.Session, in CloseInput) Outcome {
	now := in.Now
	learner := s.LearnerID
	profile := in.Profile.Clone()
	answers := s.Answers

	summary := learning.Summary{
		SessionID:       s.ID,
		LearnerID:       learner,
		Kind:            s.Kind,
		Reason:          in.Reason,
		Answered:        len(answers),
		FinalDifficulty: s.CurrentDifficulty,
		NewLevel:        profile.Level,
		NewStreak:       profile.CurrentStreak,
		SubjectDeltas:   map[string]float64{},
		ClosedAt:        now,
	}
	out := Outcome{Profile: profile}

	if len(answers) > 0 {
		var secs float64
		for _, a := range answers {
			if a.Correct {
				summary.Correct++
			}
			secs += a.TimeSpentSeconds
		}
		summary.Accuracy = float64(summary.Correct) / float64(len(answers))
		summary.AvgResponseSeconds = secs / float64(len(answers))
		summary.FinalDifficulty = difficulty.Final(s.TargetDifficulty, summary.Accuracy)
		summary.MetThreshold = summary.Accuracy >= s.PerformanceThreshold

		out.Reviews = e.reviews(learner, answers, in.States)
		for _, rs := range out.Reviews {
			out.Events = append(out.Events, learning.ItemReviewed{
				LearnerID: learner,
				ItemID:    rs.ItemID,
				Pass:      srs.Passed(rs.LastScore),
				NewDueAt:  rs.NextDue,
			})
		}

		summary.SubjectDeltas = e.updateSubjects(&profile, answers)
		if s.Kind != learning.KindExternal {
			profile.ComplexityLevel = difficulty.Clamp(difficulty.Blend(profile.ComplexityLevel, summary.FinalDifficulty, e.cfg.ComplexityEMAWeight))
		}

		streak := reward.ApplyStreak(&profile, now)
		if streak.Changed() {
			out.Events = append(out.Events, learning.StreakChanged{LearnerID: learner, OldStreak: streak.Old, NewStreak: streak.New})
		}

		sr := e.rewards.SessionReward(learner, s.Kind, len(answers), summary.Accuracy, in.Boosts, now)
		tracked := challenge.Track(learner, in.Challenges, in.Progress, challenge.Events(learner, answers), &challenge.SessionCompleted{
			LearnerID:      learner,
			Kind:           s.Kind,
			Score:          summary.Accuracy * 100,
			Streak:         streak.New,
			StreakExtended: streak.Extended(),
			At:             now,
		}, now)
		out.Progress = tracked.Updated
		for _, c := range tracked.Completions {
			summary.ChallengesCompleted = append(summary.ChallengesCompleted, c.Challenge.ID)
			out.Events = append(out.Events, learning.ChallengeCompleted{
				LearnerID:   learner,
				ChallengeID: c.Challenge.ID,
				Rewards:     learning.ChallengeRewards{XP: c.Challenge.RewardXP, Gems: c.Challenge.RewardGems},
			})
		}
		bonus := tracked.Rewards()

		level := reward.Apply(&profile, reward.Grant{XP: sr.XP + bonus.XP, Coins: sr.Coins, Gems: bonus.Gems})
		if level.LeveledUp() {
			out.Events = append(out.Events, learning.LevelUp{
				LearnerID:    learner,
				NewLevel:     level.New,
				CoinsAwarded: level.CoinsAwarded,
				GemsAwarded:  level.GemsAwarded,
			})
		}

		summary.XPEarned = sr.XP + bonus.XP
		summary.CoinsEarned = sr.Coins + level.CoinsAwarded
		summary.GemsEarned = bonus.Gems + level.GemsAwarded
		summary.LeveledUp = level.LeveledUp()
		summary.NewLevel = profile.Level
		summary.NewStreak = profile.CurrentStreak

		profile.UpdatedAt = now
		out.Profile = profile
		out.SaveProfile = true
	}

	out.Summary = summary
	out.Events = append(out.Events, learning.SessionClosedEvent{LearnerID: learner, SessionID: s.ID, Summary: summary})
	out.Log = learning.SessionLog{
		SessionID: s.ID,
		LearnerID: learner,
		SubjectID: s.SubjectID,
		Kind:      s.Kind,
		Reason:    in.Reason,
		Served:    append([]uuid.UUID(nil), s.Served...),
		Answers:   append([]learning.Answer(nil), answers...),
		Summary:   summary,
		StartedAt: s.StartedAt,
		ClosedAt:  now,
	}
	return out
}

// reviews applies every buffered answer to its item's review state in
// answer order.
func (e *Engine) reviews(learner uuid.UUID, answers []learning.Answer, states map[uuid.UUID]learning.ReviewState) []learning.ReviewState {
	next := make(map[uuid.UUID]learning.ReviewState, len(answers))
	var order []uuid.UUID
	for _, a := range answers {
		st, ok := next[a.ItemID]
		if !ok {
			st, ok = states[a.ItemID]
			if !ok {
				st = learning.NewReviewState(learner, a.ItemID)
			}
			order = append(order, a.ItemID)
		}
		next[a.ItemID] = srs.Update(st, a.Score, a.AnsweredAt)
	}
	out := make([]learning.ReviewState, 0, len(order))
	for _, id := range order {
		out = append(out, next[id])
	}
	return out
}

// updateSubjects folds the session's per-subject accuracy into strength,
// subject counters and the weak set. It returns the strength delta per subject.
func (e *Engine) updateSubjects(p *learning.Profile, answers []learning.Answer) map[string]float64 {
	type tally struct{ answered, correct int }
	bySubject := map[string]*tally{}
	var subjects []string
	for _, a := range answers {
		t, ok := bySubject[a.SubjectID]
		if !ok {
			t = &tally{}
			bySubject[a.SubjectID] = t
			subjects = append(subjects, a.SubjectID)
		}
		t.answered++
		if a.Correct {
			t.correct++
		}
	}
	sort.Strings(subjects)

	deltas := make(map[string]float64, len(subjects))
	for _, subject := range subjects {
		t := bySubject[subject]
		prior := p.StrengthOf(subject)
		acc := float64(t.correct) / float64(t.answered)
		updated := clampUnit(difficulty.Blend(prior, acc, e.cfg.StrengthEMAWeight))
		p.Strength[subject] = updated
		deltas[subject] = updated - prior

		stat := p.SubjectStats[subject]
		stat.Answered += t.answered
		stat.Correct += t.correct
		p.SubjectStats[subject] = stat
		if stat.Answered >= e.cfg.WeakMinSamples {
			p.SetWeak(subject, stat.Accuracy() < e.cfg.WeakAccuracy)
		}
	}
	return deltas
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
