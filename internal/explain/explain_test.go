package explain

import (
	"testing"

	"github.com/abhisek/recall/internal/attempt"
)

func TestBehavioralInsight(t *testing.T) {
	th := attempt.DefaultThresholds()
	tests := []struct {
		name string
		e    attempt.Event
		want string
	}{
		{"skipped", attempt.Event{Skipped: true, TimeTakenSeconds: 12}, "Student skipped this question after 12s, suggesting possible avoidance or uncertainty."},
		{"fast", attempt.Event{TimeTakenSeconds: 8.5}, "Student answered quickly (8.5s), possibly guessing."},
		{"slow", attempt.Event{TimeTakenSeconds: 75, HesitationCount: 3}, "Student spent 75s and hesitated 3 times, indicating confusion."},
		{"hesitant", attempt.Event{TimeTakenSeconds: 40, HesitationCount: 1}, "Student answered in 40s after hesitating 1 times."},
		{"steady", attempt.Event{TimeTakenSeconds: 40}, "Student answered at a steady pace (40s)."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BehavioralInsight(tt.e, th); got != tt.want {
				t.Errorf("BehavioralInsight() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFor(t *testing.T) {
	c := For(attempt.Event{ID: "a1", ItemID: "q1", Topic: "T", TimeTakenSeconds: 5}, attempt.DefaultThresholds())
	if c.AttemptID != "a1" || c.BehavioralInsight == "" {
		t.Errorf("context = %+v", c)
	}
}
