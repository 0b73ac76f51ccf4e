package learning

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultStrength   = 0.5
	DefaultComplexity = 3.0
	MinComplexity     = 1.0
	MaxComplexity     = 5.0
	DefaultDailyGoal  = 20
)

type LearningStyle string

const (
	StyleMixed       LearningStyle = "mixed"
	StyleVisual      LearningStyle = "visual"
	StyleAuditory    LearningStyle = "auditory"
	StyleReading     LearningStyle = "reading"
	StyleKinesthetic LearningStyle = "kinesthetic"
)

func ParseLearningStyle(s string) LearningStyle {
	switch LearningStyle(s) {
	case StyleVisual, StyleAuditory, StyleReading, StyleKinesthetic:
		return LearningStyle(s)
	default:
		return StyleMixed
	}
}

// SubjectStat counts answered items per subject; feeds weak-area detection.
type SubjectStat struct {
	Answered int `json:"answered"`
	Correct  int `json:"correct"`
}

func (s SubjectStat) Accuracy() float64 {
	if s.Answered == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Answered)
}

// Profile is the learner's skill model and reward state.
type Profile struct {
	LearnerID       uuid.UUID              `json:"learner_id"`
	Strength        map[string]float64     `json:"strength"`
	WeakSubjects    []string               `json:"weak_subjects"`
	SubjectStats    map[string]SubjectStat `json:"subject_stats"`
	ComplexityLevel float64                `json:"complexity_level"`
	LearningStyle   LearningStyle          `json:"learning_style"`
	XP              int64                  `json:"xp"`
	Coins           int64                  `json:"coins"`
	Gems            int64                  `json:"gems"`
	Level           int                    `json:"level"`
	CurrentStreak   int                    `json:"current_streak"`
	LongestStreak   int                    `json:"longest_streak"`
	LastStudyDate   *time.Time             `json:"last_study_date,omitempty"`
	DailyGoal       int                    `json:"daily_goal"`
	// UpdatedAt is the clock reading of the last persisted write.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProfile returns the default profile of a learner seen for the first time.
func NewProfile(learnerID uuid.UUID) Profile {
	return Profile{
		LearnerID:       learnerID,
		Strength:        map[string]float64{},
		SubjectStats:    map[string]SubjectStat{},
		ComplexityLevel: DefaultComplexity,
		LearningStyle:   StyleMixed,
		Level:           1,
		DailyGoal:       DefaultDailyGoal,
	}
}

func (p Profile) StrengthOf(subjectID string) float64 {
	if v, ok := p.Strength[subjectID]; ok {
		return v
	}
	return DefaultStrength
}

func (p Profile) IsWeak(subjectID string) bool {
	i := sort.SearchStrings(p.WeakSubjects, subjectID)
	return i < len(p.WeakSubjects) && p.WeakSubjects[i] == subjectID
}

// SetWeak adds or removes subjectID from the weak set, keeping it sorted.
func (p *Profile) SetWeak(subjectID string, weak bool) {
	i := sort.SearchStrings(p.WeakSubjects, subjectID)
	present := i < len(p.WeakSubjects) && p.WeakSubjects[i] == subjectID
	switch {
	case weak && !present:
		p.WeakSubjects = append(p.WeakSubjects, "")
		copy(p.WeakSubjects[i+1:], p.WeakSubjects[i:])
		p.WeakSubjects[i] = subjectID
	case !weak && present:
		p.WeakSubjects = append(p.WeakSubjects[:i], p.WeakSubjects[i+1:]...)
	}
}

// NormalizeWeakSubjects sorts the weak set and drops blanks and duplicates.
func NormalizeWeakSubjects(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	n := 0
	for i, s := range out {
		if i > 0 && s == out[n-1] {
			continue
		}
		out[n] = s
		n++
	}
	return out[:n]
}

// Clone returns a deep copy safe to mutate.
func (p Profile) Clone() Profile {
	out := p
	out.Strength = make(map[string]float64, len(p.Strength))
	for k, v := range p.Strength {
		out.Strength[k] = v
	}
	out.SubjectStats = make(map[string]SubjectStat, len(p.SubjectStats))
	for k, v := range p.SubjectStats {
		out.SubjectStats[k] = v
	}
	out.WeakSubjects = append([]string(nil), p.WeakSubjects...)
	if p.LastStudyDate != nil {
		d := *p.LastStudyDate
		out.LastStudyDate = &d
	}
	return out
}

func (p Profile) Key() string {
	return "profile/" + p.LearnerID.String()
}

func (p Profile) Validate() error {
	const op = "profile.load"
	switch {
	case p.LearnerID == uuid.Nil:
		return Fatal(op, p.Key(), "missing learner id")
	case p.XP < 0 || p.Coins < 0 || p.Gems < 0:
		return Fatal(op, p.Key(), "negative reward balance")
	case p.CurrentStreak < 0 || p.LongestStreak < p.CurrentStreak:
		return Fatal(op, p.Key(), "longest streak below current streak")
	case p.ComplexityLevel < MinComplexity || p.ComplexityLevel > MaxComplexity:
		return Fatal(op, p.Key(), fmt.Sprintf("complexity %.3f out of range", p.ComplexityLevel))
	case p.Level != LevelForXP(p.XP):
		return Fatal(op, p.Key(), fmt.Sprintf("level %d does not match xp %d", p.Level, p.XP))
	}
	for subject, s := range p.Strength {
		if s < 0 || s > 1 || math.IsNaN(s) {
			return Fatal(op, p.Key(), fmt.Sprintf("strength for %q out of range", subject))
		}
	}
	for i, s := range p.WeakSubjects {
		if s == "" || (i > 0 && p.WeakSubjects[i-1] >= s) {
			return Fatal(op, p.Key(), "weak subjects not sorted and unique")
		}
	}
	return nil
}

const MaxLevel = 100

// LevelForXP is clamp(1, 100, floor(sqrt(xp/100)) + 1).
func LevelForXP(xp int64) int {
	if xp <= 0 {
		return 1
	}
	lvl := int(math.Floor(math.Sqrt(float64(xp)/100))) + 1
	if lvl < 1 {
		return 1
	}
	if lvl > MaxLevel {
		return MaxLevel
	}
	return lvl
}
