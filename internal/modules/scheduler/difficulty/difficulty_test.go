package difficulty

import (
	"math"
	"testing"

	"github.com/yungbote/lexdrill-backend/internal/domain/learning"
)

func answers(pattern string, secs float64, est int) []learning.Answer {
	out := make([]learning.Answer, 0, len(pattern))
	for _, c := range pattern {
		out = append(out, learning.Answer{Correct: c == '1', TimeSpentSeconds: secs, EstimatedSeconds: est})
	}
	return out
}

func TestAfterAnswer(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		answers []learning.Answer
		want    float64
	}{
		{name: "fast and accurate raises", current: 3, answers: answers("11111", 30, 60), want: 3.1},
		{name: "accurate but slow holds", current: 3, answers: answers("11111", 90, 60), want: 3},
		{name: "very slow lowers", current: 3, answers: answers("11111", 130, 60), want: 2.85},
		{name: "half wrong lowers", current: 3, answers: answers("1100", 30, 60), want: 2.85},
		{name: "middling holds", current: 3, answers: answers("11101", 70, 60), want: 3},
		{name: "window ignores old misses", current: 3, answers: answers("0000011111", 30, 60), want: 3.1},
		{name: "ceiling", current: 4.95, answers: answers("1", 10, 60), want: 5},
		{name: "floor", current: 1.05, answers: answers("0", 10, 60), want: 1},
		{name: "no answers", current: 3, answers: nil, want: 3},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := AfterAnswer(tc.current, 0.1, tc.answers)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("AfterAnswer() = %v want %v", got, tc.want)
			}
		})
	}
}

func TestFinal(t *testing.T) {
	tests := []struct {
		target, accuracy, want float64
	}{
		{3, 1.0, 3.2},
		{3, 0.8, 3.2},
		{3, 0.79, 3},
		{3, 0.6, 3},
		{3, 0.59, 2.8},
		{4.9, 0.9, 5},
		{1.1, 0.1, 1},
	}
	for _, tc := range tests {
		if got := Final(tc.target, tc.accuracy); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("Final(%v, %v) = %v want %v", tc.target, tc.accuracy, got, tc.want)
		}
	}
}

func TestBlend(t *testing.T) {
	if got := Blend(3, 4, 0.7); math.Abs(got-3.7) > 1e-9 {
		t.Fatalf("Blend() = %v want 3.7", got)
	}
}
