package challenge

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

var (
	learner = uuid.New()
	today   = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	noon    = today.Add(12 * time.Hour)
)

func challenge(kind learning.ChallengeKind, target float64) learning.DailyChallenge {
	return learning.DailyChallenge{ID: ID(today, kind), Date: today, Kind: kind, TargetValue: target, RewardXP: 10, RewardGems: 1}
}

func answers(n int, subject string, secs float64, at time.Time) []ItemAnswered {
	out := make([]ItemAnswered, n)
	for i := range out {
		out[i] = ItemAnswered{LearnerID: learner, ItemID: uuid.New(), SubjectID: subject, Correct: true, Seconds: secs, At: at}
	}
	return out
}

func TestTrackQuestionsAnsweredCompletesOnce(t *testing.T) {
	chs := []learning.DailyChallenge{challenge(learning.ChallengeQuestionsAnswered, 5)}
	res := Track(learner, chs, nil, answers(3, "torts", 10, noon), nil, noon)
	if len(res.Updated) != 1 || res.Updated[0].Progress != 3 || len(res.Completions) != 0 {
		t.Fatalf("first batch: %+v", res)
	}
	existing := map[learning.ChallengeKind]learning.ChallengeProgress{learning.ChallengeQuestionsAnswered: res.Updated[0]}

	res = Track(learner, chs, existing, answers(4, "torts", 10, noon), nil, noon)
	if len(res.Completions) != 1 || !res.Updated[0].Completed || res.Updated[0].Progress != 7 {
		t.Fatalf("second batch: %+v", res)
	}
	if r := res.Rewards(); r.XP != 10 || r.Gems != 1 {
		t.Fatalf("rewards = %+v", r)
	}
	existing[learning.ChallengeQuestionsAnswered] = res.Updated[0]

	res = Track(learner, chs, existing, answers(10, "torts", 10, noon), nil, noon)
	if len(res.Completions) != 0 || len(res.Updated) != 0 {
		t.Fatalf("completed challenge credited again: %+v", res)
	}
}

func TestTrackIgnoresOtherDays(t *testing.T) {
	chs := []learning.DailyChallenge{challenge(learning.ChallengeStudyTimeSeconds, 100)}
	yesterday := noon.AddDate(0, 0, -1)
	res := Track(learner, chs, nil, answers(5, "torts", 30, yesterday), &SessionCompleted{LearnerID: learner, Score: 100, At: yesterday}, noon)
	if len(res.Updated) != 0 {
		t.Fatalf("events from another day advanced progress: %+v", res)
	}
}

func TestTrackSubjectFocus(t *testing.T) {
	ch := challenge(learning.ChallengeSubjectFocusSeconds, 60)
	ch.SubjectID = "evidence"
	evts := append(answers(2, "torts", 40, noon), answers(1, "evidence", 45, noon)...)
	res := Track(learner, []learning.DailyChallenge{ch}, nil, evts, nil, noon)
	if len(res.Updated) != 1 || res.Updated[0].Progress != 45 || res.Updated[0].Completed {
		t.Fatalf("subject focus: %+v", res)
	}
}

func TestTrackAccuracyAndStreak(t *testing.T) {
	chs := []learning.DailyChallenge{
		challenge(learning.ChallengeAccuracyThreshold, 80),
		challenge(learning.ChallengeStreakExtended, 1),
	}
	res := Track(learner, chs, nil, nil, &SessionCompleted{LearnerID: learner, Score: 75, Streak: 1, StreakExtended: false, At: noon}, noon)
	if len(res.Completions) != 0 || len(res.Updated) != 1 || res.Updated[0].Progress != 75 {
		t.Fatalf("below threshold: %+v", res)
	}
	existing := map[learning.ChallengeKind]learning.ChallengeProgress{learning.ChallengeAccuracyThreshold: res.Updated[0]}

	res = Track(learner, chs, existing, nil, &SessionCompleted{LearnerID: learner, Score: 60, Streak: 2, StreakExtended: true, At: noon}, noon)
	if len(res.Completions) != 1 || res.Completions[0].Challenge.Kind != learning.ChallengeStreakExtended {
		t.Fatalf("streak completion: %+v", res)
	}
	for _, p := range res.Updated {
		if p.Kind == learning.ChallengeAccuracyThreshold {
			t.Fatalf("lower score must not move accuracy progress: %+v", p)
		}
	}
}

func TestTrackResetsStaleProgress(t *testing.T) {
	chs := []learning.DailyChallenge{challenge(learning.ChallengeQuestionsAnswered, 2)}
	stale := learning.ChallengeProgress{LearnerID: learner, Date: today.AddDate(0, 0, -1), Kind: learning.ChallengeQuestionsAnswered, Progress: 50, Completed: true}
	res := Track(learner, chs, map[learning.ChallengeKind]learning.ChallengeProgress{learning.ChallengeQuestionsAnswered: stale}, answers(1, "torts", 5, noon), nil, noon)
	if len(res.Updated) != 1 || res.Updated[0].Progress != 1 || res.Updated[0].Completed {
		t.Fatalf("stale progress leaked into today: %+v", res)
	}
}

func TestDefaultSetIsStable(t *testing.T) {
	a := DefaultSet(noon)
	b := DefaultSet(today.Add(time.Hour))
	if len(a) == 0 || len(a) != len(b) {
		t.Fatalf("default set sizes %d %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || !a[i].Date.Equal(today) {
			t.Fatalf("challenge %d not stable: %+v vs %+v", i, a[i], b[i])
		}
	}
}
