package learning

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   int64
		want int
	}{
		{xp: 0, want: 1},
		{xp: 99, want: 1},
		{xp: 100, want: 2},
		{xp: 101, want: 2},
		{xp: 399, want: 2},
		{xp: 400, want: 3},
		{xp: 980100, want: 100},
		{xp: 5_000_000, want: 100},
	}
	for _, tc := range tests {
		if got := LevelForXP(tc.xp); got != tc.want {
			t.Fatalf("LevelForXP(%d) = %d want %d", tc.xp, got, tc.want)
		}
	}
}

func TestLevelForXPMonotone(t *testing.T) {
	prev := LevelForXP(0)
	for xp := int64(0); xp <= 1_200_000; xp += 37 {
		lvl := LevelForXP(xp)
		if lvl < prev {
			t.Fatalf("level decreased at xp=%d: %d < %d", xp, lvl, prev)
		}
		want := int(math.Floor(math.Sqrt(float64(xp)/100))) + 1
		if want > MaxLevel {
			want = MaxLevel
		}
		if lvl != want {
			t.Fatalf("LevelForXP(%d) = %d want %d", xp, lvl, want)
		}
		prev = lvl
	}
}

func TestProfileWeakSet(t *testing.T) {
	p := NewProfile(uuid.New())
	p.SetWeak("torts", true)
	p.SetWeak("contracts", true)
	p.SetWeak("torts", true)
	if len(p.WeakSubjects) != 2 || p.WeakSubjects[0] != "contracts" {
		t.Fatalf("unexpected weak set %v", p.WeakSubjects)
	}
	if !p.IsWeak("torts") || p.IsWeak("evidence") {
		t.Fatalf("IsWeak mismatch for %v", p.WeakSubjects)
	}
	p.SetWeak("contracts", false)
	if p.IsWeak("contracts") || len(p.WeakSubjects) != 1 {
		t.Fatalf("remove failed: %v", p.WeakSubjects)
	}
}

func TestProfileCloneIsDeep(t *testing.T) {
	p := NewProfile(uuid.New())
	p.Strength["torts"] = 0.4
	c := p.Clone()
	c.Strength["torts"] = 0.9
	c.SetWeak("torts", true)
	if p.Strength["torts"] != 0.4 || p.IsWeak("torts") {
		t.Fatalf("clone mutated original")
	}
}

func TestProfileValidate(t *testing.T) {
	p := NewProfile(uuid.New())
	if err := p.Validate(); err != nil {
		t.Fatalf("default profile invalid: %v", err)
	}
	p.CurrentStreak = 4
	p.LongestStreak = 2
	err := p.Validate()
	if !IsCode(err, CodeStoreFatal) {
		t.Fatalf("expected store_fatal, got %v", err)
	}
}

func TestProfileValidateRejectsUnsortedWeakSet(t *testing.T) {
	tests := []struct {
		name string
		weak []string
	}{
		{name: "unsorted", weak: []string{"torts", "contracts"}},
		{name: "duplicate", weak: []string{"contracts", "contracts"}},
		{name: "blank", weak: []string{""}},
	}
	for _, tc := range tests {
		p := NewProfile(uuid.New())
		p.WeakSubjects = tc.weak
		if err := p.Validate(); !IsCode(err, CodeStoreFatal) {
			t.Fatalf("%s: expected store_fatal, got %v", tc.name, err)
		}
	}
}

func TestProfileRecordNormalizesWeakSubjects(t *testing.T) {
	p := NewProfile(uuid.New())
	rec := ProfileToRecord(p)
	rec.WeakSubjects = datatypes.JSON(`["torts","contracts","","torts","evidence"]`)
	got, err := rec.ToProfile()
	if err != nil {
		t.Fatalf("ToProfile: %v", err)
	}
	want := []string{"contracts", "evidence", "torts"}
	if len(got.WeakSubjects) != len(want) {
		t.Fatalf("weak subjects = %v want %v", got.WeakSubjects, want)
	}
	for i := range want {
		if got.WeakSubjects[i] != want[i] {
			t.Fatalf("weak subjects = %v want %v", got.WeakSubjects, want)
		}
	}
	for _, s := range want {
		if !got.IsWeak(s) {
			t.Fatalf("IsWeak(%q) = false after load", s)
		}
	}
}

func TestItemGrade(t *testing.T) {
	q := Item{Kind: ItemQuestion, AnswerKey: AnswerKey{CorrectOption: "B", AcceptedAnswers: []string{"Res Ipsa  Loquitur"}}}
	if !q.Grade(" b ", "") {
		t.Fatalf("expected option match")
	}
	if q.Grade("c", "") {
		t.Fatalf("expected option mismatch")
	}
	if !q.Grade("", "res ipsa loquitur") {
		t.Fatalf("expected text match")
	}
	if q.Grade("", "") {
		t.Fatalf("empty answer must be incorrect")
	}
	if !(Item{Kind: ItemLesson}).Grade("", "") {
		t.Fatalf("lessons grade as studied")
	}
}
