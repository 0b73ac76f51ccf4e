package learning

import (
	"testing"

	"github.com/google/uuid"
)

func TestEventTypes(t *testing.T) {
	learner := uuid.New()
	tests := []struct {
		event Event
		want  string
	}{
		{SessionClosedEvent{LearnerID: learner, SessionID: uuid.New()}, EventSessionClosed},
		{ItemReviewed{LearnerID: learner}, EventItemReviewed},
		{LevelUp{LearnerID: learner, NewLevel: 2}, EventLevelUp},
		{StreakChanged{LearnerID: learner, NewStreak: 1}, EventStreakChanged},
		{ChallengeCompleted{LearnerID: learner}, EventChallengeCompleted},
	}
	for _, tc := range tests {
		if got := tc.event.EventType(); got != tc.want {
			t.Fatalf("EventType() = %q want %q", got, tc.want)
		}
		if tc.event.Learner() != learner {
			t.Fatalf("%s: learner not carried", tc.want)
		}
	}
}

func TestSessionClosedStateDistinctFromEvent(t *testing.T) {
	s := Session{State: SessionClosed}
	if s.State != "closed" {
		t.Fatalf("state = %q", s.State)
	}
	var ev Event = SessionClosedEvent{Summary: Summary{Reason: CloseCompleted}}
	if ev.(SessionClosedEvent).Summary.Reason != CloseCompleted {
		t.Fatalf("summary not carried by close event")
	}
}
