package learning

import (
	"strings"

	"github.com/google/uuid"
)

type ItemKind string

const (
	ItemLesson   ItemKind = "lesson"
	ItemQuestion ItemKind = "question"
)

const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// AnswerKey is what submitted answers are graded against.
type AnswerKey struct {
	CorrectOption   string   `json:"correct_option,omitempty"`
	AcceptedAnswers []string `json:"accepted_answers,omitempty"`
}

// Item is a schedulable unit of study content. Items are read-only to the scheduler.
type Item struct {
	ID               uuid.UUID   `json:"id"`
	SubjectID        string      `json:"subject_id"`
	TopicID          string      `json:"topic_id,omitempty"`
	Kind             ItemKind    `json:"kind"`
	Difficulty       int         `json:"difficulty"`
	EstimatedSeconds int         `json:"estimated_seconds"`
	Prerequisites    []uuid.UUID `json:"prerequisites,omitempty"`
	Premium          bool        `json:"premium"`
	ExplanationID    string      `json:"explanation_id,omitempty"`
	AnswerKey        AnswerKey   `json:"-"`
}

func (it Item) Validate() error {
	const op = "item.validate"
	if it.ID == uuid.Nil {
		return Invalid(op, "missing item id")
	}
	if strings.TrimSpace(it.SubjectID) == "" {
		return Invalid(op, "item %s has no subject", it.ID)
	}
	if it.Kind != ItemLesson && it.Kind != ItemQuestion {
		return Invalid(op, "item %s has unknown kind %q", it.ID, it.Kind)
	}
	if it.Difficulty < MinDifficulty || it.Difficulty > MaxDifficulty {
		return Invalid(op, "item %s difficulty %d out of range", it.ID, it.Difficulty)
	}
	if it.EstimatedSeconds < 1 {
		return Invalid(op, "item %s estimated seconds must be >= 1", it.ID)
	}
	return nil
}

// Grade returns whether the submitted answer is correct. Lessons are always
// graded correct: answering a lesson means it was studied.
func (it Item) Grade(selectedOption, text string) bool {
	if it.Kind == ItemLesson {
		return true
	}
	if opt := normalizeAnswer(selectedOption); opt != "" {
		return opt == normalizeAnswer(it.AnswerKey.CorrectOption)
	}
	txt := normalizeAnswer(text)
	if txt == "" {
		return false
	}
	for _, accepted := range it.AnswerKey.AcceptedAnswers {
		if txt == normalizeAnswer(accepted) {
			return true
		}
	}
	return false
}

func normalizeAnswer(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
