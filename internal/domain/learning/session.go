package learning

import (
	"time"

	"github.com/google/uuid"
)

type SessionKind string

const (
	KindPractice     SessionKind = "practice"
	KindReview       SessionKind = "review"
	KindChallenge    SessionKind = "challenge"
	KindRemedial     SessionKind = "remedial"
	KindAssessment   SessionKind = "assessment"
	KindAdaptiveQuiz SessionKind = "adaptive_quiz"
	// KindExternal tags completions recorded outside a session.
	KindExternal SessionKind = "external"
)

// ParseSessionKind accepts the session kinds a caller may open.
func ParseSessionKind(s string) (SessionKind, bool) {
	switch SessionKind(s) {
	case KindPractice, KindReview, KindChallenge, KindRemedial, KindAssessment, KindAdaptiveQuiz:
		return SessionKind(s), true
	case "adaptive-quiz":
		return KindAdaptiveQuiz, true
	default:
		return "", false
	}
}

type SessionState string

const (
	SessionOpen    SessionState = "open"
	SessionRunning SessionState = "running"
	SessionClosed  SessionState = "closed"
)

type CloseReason string

const (
	CloseCompleted CloseReason = "completed"
	CloseAbandoned CloseReason = "abandoned"
	CloseTimeout   CloseReason = "timeout"
)

func ParseCloseReason(s string) (CloseReason, bool) {
	switch CloseReason(s) {
	case CloseCompleted, CloseAbandoned, CloseTimeout:
		return CloseReason(s), true
	default:
		return "", false
	}
}

const (
	DefaultAdjustmentRate       = 0.1
	DefaultPerformanceThreshold = 0.7
	// MaxTimeLimitSeconds caps SessionParams.TimeLimitSeconds at one day.
	MaxTimeLimitSeconds         = 24 * 60 * 60
)

// SessionParams is what a caller supplies to open a session.
type SessionParams struct {
	SubjectID        string      `json:"subject_id"`
	TopicID          string      `json:"topic_id,omitempty"`
	Kind             SessionKind `json:"kind"`
	MaxItems         int         `json:"max_items"`
	TimeLimitSeconds int         `json:"time_limit_seconds,omitempty"`
	// TargetDifficulty overrides the profile complexity level when set.
	TargetDifficulty     *float64 `json:"target_difficulty,omitempty"`
	AdjustmentRate       float64  `json:"adjustment_rate,omitempty"`
	PerformanceThreshold float64  `json:"performance_threshold,omitempty"`
	AllowPremium         bool     `json:"allow_premium,omitempty"`
}

// Answer is one graded outcome inside a session.
type Answer struct {
	ItemID           uuid.UUID `json:"item_id"`
	SubjectID        string    `json:"subject_id"`
	SelectedOption   string    `json:"selected_option,omitempty"`
	Text             string    `json:"text,omitempty"`
	Correct          bool      `json:"correct"`
	Score            float64   `json:"score"`
	TimeSpentSeconds float64   `json:"time_spent_seconds"`
	EstimatedSeconds int       `json:"estimated_seconds"`
	AnsweredAt       time.Time `json:"answered_at"`
}

// AnswerInput is a submission before grading.
type AnswerInput struct {
	ItemID           uuid.UUID `json:"item_id"`
	SelectedOption   string    `json:"selected_option,omitempty"`
	Text             string    `json:"text,omitempty"`
	TimeSpentSeconds float64   `json:"time_spent_seconds"`
}

// Session is a time-bounded run of served items for one learner.
type Session struct {
	ID                   uuid.UUID     `json:"id"`
	LearnerID            uuid.UUID     `json:"learner_id"`
	SubjectID            string        `json:"subject_id"`
	TopicID              string        `json:"topic_id,omitempty"`
	Kind                 SessionKind   `json:"kind"`
	TargetDifficulty     float64       `json:"target_difficulty"`
	InitialDifficulty    float64       `json:"initial_difficulty"`
	CurrentDifficulty    float64       `json:"current_difficulty"`
	AdjustmentRate       float64       `json:"adjustment_rate"`
	PerformanceThreshold float64       `json:"performance_threshold"`
	MaxItems             int           `json:"max_items"`
	TimeLimit            time.Duration `json:"time_limit"`
	AllowPremium         bool          `json:"allow_premium"`
	Seed                 uint64        `json:"seed"`
	State                SessionState  `json:"state"`
	Served               []uuid.UUID   `json:"served"`
	Answers              []Answer      `json:"answers"`
	StartedAt            time.Time     `json:"started_at"`
	ClosedAt             *time.Time    `json:"closed_at,omitempty"`
	CloseReason          CloseReason   `json:"close_reason,omitempty"`
}

// Pending returns the served item still awaiting an answer, if any.
func (s *Session) Pending() (uuid.UUID, bool) {
	if len(s.Served) > len(s.Answers) {
		return s.Served[len(s.Served)-1], true
	}
	return uuid.Nil, false
}

func (s *Session) HasServed(itemID uuid.UUID) bool {
	for _, id := range s.Served {
		if id == itemID {
			return true
		}
	}
	return false
}

// Expired reports whether the time limit elapsed before now.
func (s *Session) Expired(now time.Time) bool {
	return s.TimeLimit > 0 && s.StartedAt.Add(s.TimeLimit).Before(now)
}

// Feedback is returned for each submitted answer.
type Feedback struct {
	ItemID            uuid.UUID `json:"item_id"`
	Correct           bool      `json:"correct"`
	Score             float64   `json:"score"`
	ExplanationID     string    `json:"explanation_id,omitempty"`
	CurrentDifficulty float64   `json:"current_difficulty"`
	ReviewDueAt       time.Time `json:"review_due_at"`
	ItemsRemaining    int       `json:"items_remaining"`
}

// Summary is the immutable result of closing a session.
type Summary struct {
	SessionID           uuid.UUID          `json:"session_id"`
	LearnerID           uuid.UUID          `json:"learner_id"`
	Kind                SessionKind        `json:"kind"`
	Reason              CloseReason        `json:"reason"`
	Answered            int                `json:"answered"`
	Correct             int                `json:"correct"`
	Accuracy            float64            `json:"accuracy"`
	AvgResponseSeconds  float64            `json:"avg_response_seconds"`
	FinalDifficulty     float64            `json:"final_difficulty"`
	MetThreshold        bool               `json:"met_threshold"`
	XPEarned            int64              `json:"xp_earned"`
	CoinsEarned         int64              `json:"coins_earned"`
	GemsEarned          int64              `json:"gems_earned"`
	LeveledUp           bool               `json:"leveled_up"`
	NewLevel            int                `json:"new_level"`
	NewStreak           int                `json:"new_streak"`
	SubjectDeltas       map[string]float64 `json:"subject_deltas"`
	ChallengesCompleted []uuid.UUID        `json:"challenges_completed,omitempty"`
	ClosedAt            time.Time          `json:"closed_at"`
}

// SessionLog is the append-only audit record written at close.
type SessionLog struct {
	SessionID uuid.UUID   `json:"session_id"`
	LearnerID uuid.UUID   `json:"learner_id"`
	SubjectID string      `json:"subject_id"`
	Kind      SessionKind `json:"kind"`
	Reason    CloseReason `json:"reason"`
	Served    []uuid.UUID `json:"served"`
	Answers   []Answer    `json:"answers"`
	Summary   Summary     `json:"summary"`
	StartedAt time.Time   `json:"started_at"`
	ClosedAt  time.Time   `json:"closed_at"`
}
