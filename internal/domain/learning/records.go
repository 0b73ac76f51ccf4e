package learning

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Persistence rows. Domain values never carry gorm tags; repos convert at the
// boundary and report undecodable rows as store_fatal.

type ItemRecord struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectID        string         `gorm:"column:subject_id;not null;index:idx_item_subject_topic" json:"subject_id"`
	TopicID          string         `gorm:"column:topic_id;index:idx_item_subject_topic" json:"topic_id"`
	Kind             string         `gorm:"column:kind;not null" json:"kind"`
	Difficulty       int            `gorm:"column:difficulty;not null" json:"difficulty"`
	EstimatedSeconds int            `gorm:"column:estimated_seconds;not null" json:"estimated_seconds"`
	Prerequisites    datatypes.JSON `gorm:"type:jsonb;column:prerequisites" json:"prerequisites"`
	Premium          bool           `gorm:"column:premium;not null" json:"premium"`
	ExplanationID    string         `gorm:"column:explanation_id" json:"explanation_id"`
	AnswerKey        datatypes.JSON `gorm:"type:jsonb;column:answer_key" json:"answer_key"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (ItemRecord) TableName() string { return "scheduler_item" }

func ItemToRecord(it Item) ItemRecord {
	return ItemRecord{
		ID:               it.ID,
		SubjectID:        it.SubjectID,
		TopicID:          it.TopicID,
		Kind:             string(it.Kind),
		Difficulty:       it.Difficulty,
		EstimatedSeconds: it.EstimatedSeconds,
		Prerequisites:    mustJSON(nonNilIDs(it.Prerequisites)),
		Premium:          it.Premium,
		ExplanationID:    it.ExplanationID,
		AnswerKey:        mustJSON(it.AnswerKey),
	}
}

func (r ItemRecord) ToItem() (Item, error) {
	const op = "item.load"
	key := "item/" + r.ID.String()
	it := Item{
		ID:               r.ID,
		SubjectID:        r.SubjectID,
		TopicID:          r.TopicID,
		Kind:             ItemKind(r.Kind),
		Difficulty:       r.Difficulty,
		EstimatedSeconds: r.EstimatedSeconds,
		Premium:          r.Premium,
		ExplanationID:    r.ExplanationID,
	}
	if err := decodeJSON(r.Prerequisites, &it.Prerequisites); err != nil {
		return Item{}, Fatal(op, key, "prerequisites: "+err.Error())
	}
	if err := decodeJSON(r.AnswerKey, &it.AnswerKey); err != nil {
		return Item{}, Fatal(op, key, "answer key: "+err.Error())
	}
	if err := it.Validate(); err != nil {
		return Item{}, Fatal(op, key, err.Error())
	}
	return it, nil
}

type ReviewStateRecord struct {
	LearnerID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"learner_id"`
	ItemID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"item_id"`
	Attempts       int       `gorm:"column:attempts;not null" json:"attempts"`
	LastScore      float64   `gorm:"column:last_score;not null" json:"last_score"`
	Ease           float64   `gorm:"column:ease;not null" json:"ease"`
	IntervalDays   int       `gorm:"column:interval_days;not null" json:"interval_days"`
	NextDue        time.Time `gorm:"column:next_due;index" json:"next_due"`
	LastReviewedAt time.Time `gorm:"column:last_reviewed_at" json:"last_reviewed_at"`
	Completed      bool      `gorm:"column:completed;not null" json:"completed"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (ReviewStateRecord) TableName() string { return "review_state" }

func ReviewStateToRecord(rs ReviewState) ReviewStateRecord {
	return ReviewStateRecord{
		LearnerID:      rs.LearnerID,
		ItemID:         rs.ItemID,
		Attempts:       rs.Attempts,
		LastScore:      rs.LastScore,
		Ease:           rs.Ease,
		IntervalDays:   rs.IntervalDays,
		NextDue:        rs.NextDue.UTC(),
		LastReviewedAt: rs.LastReviewedAt.UTC(),
		Completed:      rs.Completed,
	}
}

func (r ReviewStateRecord) ToReviewState() (ReviewState, error) {
	rs := ReviewState{
		LearnerID:      r.LearnerID,
		ItemID:         r.ItemID,
		Attempts:       r.Attempts,
		LastScore:      r.LastScore,
		Ease:           r.Ease,
		IntervalDays:   r.IntervalDays,
		NextDue:        r.NextDue.UTC(),
		LastReviewedAt: r.LastReviewedAt.UTC(),
		Completed:      r.Completed,
	}
	if err := rs.Validate(); err != nil {
		return ReviewState{}, err
	}
	return rs, nil
}

type ProfileRecord struct {
	LearnerID       uuid.UUID      `gorm:"type:uuid;primaryKey" json:"learner_id"`
	Strength        datatypes.JSON `gorm:"type:jsonb;column:strength" json:"strength"`
	WeakSubjects    datatypes.JSON `gorm:"type:jsonb;column:weak_subjects" json:"weak_subjects"`
	SubjectStats    datatypes.JSON `gorm:"type:jsonb;column:subject_stats" json:"subject_stats"`
	ComplexityLevel float64        `gorm:"column:complexity_level;not null" json:"complexity_level"`
	LearningStyle   string         `gorm:"column:learning_style" json:"learning_style"`
	XP              int64          `gorm:"column:xp;not null" json:"xp"`
	Coins           int64          `gorm:"column:coins;not null" json:"coins"`
	Gems            int64          `gorm:"column:gems;not null" json:"gems"`
	Level           int            `gorm:"column:level;not null" json:"level"`
	CurrentStreak   int            `gorm:"column:current_streak;not null" json:"current_streak"`
	LongestStreak   int            `gorm:"column:longest_streak;not null" json:"longest_streak"`
	LastStudyDate   *time.Time     `gorm:"column:last_study_date" json:"last_study_date,omitempty"`
	DailyGoal       int            `gorm:"column:daily_goal;not null" json:"daily_goal"`
	// LastWriteAt is the scheduler clock at the last write, not wall time.
	LastWriteAt time.Time `gorm:"column:last_write_at" json:"last_write_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ProfileRecord) TableName() string { return "learner_profile" }

func ProfileToRecord(p Profile) ProfileRecord {
	var last *time.Time
	if p.LastStudyDate != nil {
		d := p.LastStudyDate.UTC()
		last = &d
	}
	return ProfileRecord{
		LearnerID:       p.LearnerID,
		Strength:        mustJSON(p.Strength),
		WeakSubjects:    mustJSON(nonNilStrings(p.WeakSubjects)),
		SubjectStats:    mustJSON(p.SubjectStats),
		ComplexityLevel: p.ComplexityLevel,
		LearningStyle:   string(p.LearningStyle),
		XP:              p.XP,
		Coins:           p.Coins,
		Gems:            p.Gems,
		Level:           p.Level,
		CurrentStreak:   p.CurrentStreak,
		LongestStreak:   p.LongestStreak,
		LastStudyDate:   last,
		DailyGoal:       p.DailyGoal,
		LastWriteAt:     p.UpdatedAt.UTC(),
	}
}

func (r ProfileRecord) ToProfile() (Profile, error) {
	const op = "profile.load"
	p := NewProfile(r.LearnerID)
	key := p.Key()
	if err := decodeJSON(r.Strength, &p.Strength); err != nil {
		return Profile{}, Fatal(op, key, "strength: "+err.Error())
	}
	if err := decodeJSON(r.WeakSubjects, &p.WeakSubjects); err != nil {
		return Profile{}, Fatal(op, key, "weak subjects: "+err.Error())
	}
	p.WeakSubjects = NormalizeWeakSubjects(p.WeakSubjects)
	if err := decodeJSON(r.SubjectStats, &p.SubjectStats); err != nil {
		return Profile{}, Fatal(op, key, "subject stats: "+err.Error())
	}
	p.ComplexityLevel = r.ComplexityLevel
	p.LearningStyle = ParseLearningStyle(r.LearningStyle)
	p.XP = r.XP
	p.Coins = r.Coins
	p.Gems = r.Gems
	p.Level = r.Level
	p.CurrentStreak = r.CurrentStreak
	p.LongestStreak = r.LongestStreak
	if r.LastStudyDate != nil {
		d := r.LastStudyDate.UTC()
		p.LastStudyDate = &d
	}
	p.DailyGoal = r.DailyGoal
	p.UpdatedAt = r.LastWriteAt.UTC()
	p = p.Clone()
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

type SessionLogRecord struct {
	SessionID uuid.UUID      `gorm:"type:uuid;primaryKey" json:"session_id"`
	LearnerID uuid.UUID      `gorm:"type:uuid;not null;index" json:"learner_id"`
	SubjectID string         `gorm:"column:subject_id" json:"subject_id"`
	Kind      string         `gorm:"column:kind;not null" json:"kind"`
	Reason    string         `gorm:"column:reason;not null" json:"reason"`
	Served    datatypes.JSON `gorm:"type:jsonb;column:served" json:"served"`
	Answers   datatypes.JSON `gorm:"type:jsonb;column:answers" json:"answers"`
	Summary   datatypes.JSON `gorm:"type:jsonb;column:summary" json:"summary"`
	StartedAt time.Time      `gorm:"column:started_at" json:"started_at"`
	ClosedAt  time.Time      `gorm:"column:closed_at;index" json:"closed_at"`
	CreatedAt time.Time      `json:"created_at"`
}

func (SessionLogRecord) TableName() string { return "session_log" }

func SessionLogToRecord(l SessionLog) SessionLogRecord {
	return SessionLogRecord{
		SessionID: l.SessionID,
		LearnerID: l.LearnerID,
		SubjectID: l.SubjectID,
		Kind:      string(l.Kind),
		Reason:    string(l.Reason),
		Served:    mustJSON(nonNilIDs(l.Served)),
		Answers:   mustJSON(l.Answers),
		Summary:   mustJSON(l.Summary),
		StartedAt: l.StartedAt.UTC(),
		ClosedAt:  l.ClosedAt.UTC(),
	}
}

type DailyChallengeRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Date        time.Time `gorm:"column:date;not null;uniqueIndex:idx_challenge_date_kind" json:"date"`
	Kind        string    `gorm:"column:kind;not null;uniqueIndex:idx_challenge_date_kind" json:"kind"`
	TargetValue float64   `gorm:"column:target_value;not null" json:"target_value"`
	SubjectID   string    `gorm:"column:subject_id" json:"subject_id"`
	RewardXP    int64     `gorm:"column:reward_xp;not null" json:"reward_xp"`
	RewardGems  int64     `gorm:"column:reward_gems;not null" json:"reward_gems"`
	CreatedAt   time.Time `json:"created_at"`
}

func (DailyChallengeRecord) TableName() string { return "daily_challenge" }

func DailyChallengeToRecord(c DailyChallenge) DailyChallengeRecord {
	return DailyChallengeRecord{
		ID:          c.ID,
		Date:        c.Date.UTC(),
		Kind:        string(c.Kind),
		TargetValue: c.TargetValue,
		SubjectID:   c.SubjectID,
		RewardXP:    c.RewardXP,
		RewardGems:  c.RewardGems,
	}
}

func (r DailyChallengeRecord) ToDailyChallenge() DailyChallenge {
	return DailyChallenge{
		ID:          r.ID,
		Date:        r.Date.UTC(),
		Kind:        ChallengeKind(r.Kind),
		TargetValue: r.TargetValue,
		SubjectID:   r.SubjectID,
		RewardXP:    r.RewardXP,
		RewardGems:  r.RewardGems,
	}
}

type ChallengeProgressRecord struct {
	LearnerID   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"learner_id"`
	Date        time.Time  `gorm:"primaryKey" json:"date"`
	Kind        string     `gorm:"primaryKey" json:"kind"`
	ChallengeID uuid.UUID  `gorm:"type:uuid;not null" json:"challenge_id"`
	Progress    float64    `gorm:"column:progress;not null" json:"progress"`
	Completed   bool       `gorm:"column:completed;not null" json:"completed"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (ChallengeProgressRecord) TableName() string { return "daily_challenge_progress" }

func ChallengeProgressToRecord(p ChallengeProgress) ChallengeProgressRecord {
	return ChallengeProgressRecord{
		LearnerID:   p.LearnerID,
		Date:        p.Date.UTC(),
		Kind:        string(p.Kind),
		ChallengeID: p.ChallengeID,
		Progress:    p.Progress,
		Completed:   p.Completed,
		CompletedAt: p.CompletedAt,
	}
}

func (r ChallengeProgressRecord) ToChallengeProgress() ChallengeProgress {
	return ChallengeProgress{
		LearnerID:   r.LearnerID,
		ChallengeID: r.ChallengeID,
		Date:        r.Date.UTC(),
		Kind:        ChallengeKind(r.Kind),
		Progress:    r.Progress,
		Completed:   r.Completed,
		CompletedAt: r.CompletedAt,
	}
}

type BoostRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	LearnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"learner_id"`
	Kind      string    `gorm:"column:kind;not null" json:"kind"`
	StartsAt  time.Time `gorm:"column:starts_at;not null" json:"starts_at"`
	EndsAt    time.Time `gorm:"column:ends_at;not null;index" json:"ends_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (BoostRecord) TableName() string { return "learner_boost" }

func BoostToRecord(b Boost) BoostRecord {
	return BoostRecord{
		ID:        b.ID,
		LearnerID: b.LearnerID,
		Kind:      string(b.Kind),
		StartsAt:  b.StartsAt.UTC(),
		EndsAt:    b.EndsAt.UTC(),
	}
}

func (r BoostRecord) ToBoost() Boost {
	return Boost{
		ID:        r.ID,
		LearnerID: r.LearnerID,
		Kind:      BoostKind(r.Kind),
		StartsAt:  r.StartsAt.UTC(),
		EndsAt:    r.EndsAt.UTC(),
	}
}

// Records lists every row type for migrations.
func Records() []any {
	return []any{
		&ItemRecord{},
		&ReviewStateRecord{},
		&ProfileRecord{},
		&SessionLogRecord{},
		&DailyChallengeRecord{},
		&ChallengeProgressRecord{},
		&BoostRecord{},
	}
}

func mustJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON(b)
}

func decodeJSON(raw datatypes.JSON, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func nonNilIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
