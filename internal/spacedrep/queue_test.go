package spacedrep

import (
	"testing"
	"time"

	"github.com/abhisek/recall/internal/attempt"
)

func TestDueQueue_Order(t *testing.T) {
	cards := []Card{
		{ItemID: "late", DueAt: t0.Add(-1), EaseFactor: 2.5},
		{ItemID: "b", DueAt: t0.AddDate(0, 0, -2), EaseFactor: 2.5},
		{ItemID: "a", DueAt: t0.AddDate(0, 0, -2), EaseFactor: 2.5},
		{ItemID: "hard", DueAt: t0.AddDate(0, 0, -2), EaseFactor: 1.3},
		{ItemID: "future", DueAt: t0.AddDate(0, 0, 1), EaseFactor: 1.3},
	}
	got := DueQueue(cards, t0)
	want := []string{"hard", "a", "b", "late"}
	if len(got) != len(want) {
		t.Fatalf("got %d due cards, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ItemID != id {
			t.Errorf("position %d = %s, want %s", i, got[i].ItemID, id)
		}
	}
}

func TestSummarize(t *testing.T) {
	cards := []Card{
		{ItemID: "now", DueAt: t0},
		{ItemID: "week", DueAt: t0.AddDate(0, 0, 5)},
		{ItemID: "month", DueAt: t0.AddDate(0, 0, 20)},
		{ItemID: "later", DueAt: t0.AddDate(0, 0, 90)},
	}
	s := Summarize(cards, t0)
	if s.DueToday != 1 || s.DueThisWeek != 2 || s.DueThisMonth != 3 || s.Total != 4 {
		t.Errorf("summary = %+v", s)
	}
	if s.Next == nil || s.Next.ItemID != "now" || s.NextInDays != 0 {
		t.Errorf("Next = %+v in %d days, want now", s.Next, s.NextInDays)
	}
	ahead := Summarize(cards[1:], t0)
	if ahead.Next == nil || ahead.Next.ItemID != "week" || ahead.NextInDays != 5 {
		t.Errorf("Next = %+v in %d days, want week in 5", ahead.Next, ahead.NextInDays)
	}
	if empty := Summarize(nil, t0); empty.Next != nil || empty.Total != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestAnnotate(t *testing.T) {
	cards := []Card{
		{ItemID: "fresh", IntervalDays: 4, DueAt: t0.Add(-time.Hour)},
		{ItemID: "stale", IntervalDays: 2, DueAt: t0.AddDate(0, 0, -3)},
	}
	got := Annotate(cards, t0)
	if len(got) != 2 {
		t.Fatalf("got %d cards, want 2", len(got))
	}
	if got[0].ItemID != "fresh" || got[0].Status != ReviewDue {
		t.Errorf("fresh = %s %s, want due", got[0].ItemID, got[0].Status)
	}
	if d := got[0].OverdueDays; d < 0.041 || d > 0.042 {
		t.Errorf("fresh overdue = %f, want ~1/24", d)
	}
	if got[1].Status != ReviewOverdue || got[1].OverdueDays != 3 {
		t.Errorf("stale = %s %.2f days, want overdue 3", got[1].Status, got[1].OverdueDays)
	}
}

func TestSuggestQuality(t *testing.T) {
	th := attempt.DefaultThresholds()
	tests := []struct {
		name string
		e    attempt.Event
		want int
	}{
		{"skip", attempt.Event{Skipped: true}, 0},
		{"wrong hesitant", attempt.Event{HesitationCount: 1, TimeTakenSeconds: 30}, 1},
		{"wrong", attempt.Event{TimeTakenSeconds: 30}, 2},
		{"correct slow", attempt.Event{Correct: true, TimeTakenSeconds: 90}, 3},
		{"correct fast", attempt.Event{Correct: true, TimeTakenSeconds: 5}, 5},
		{"correct normal", attempt.Event{Correct: true, TimeTakenSeconds: 30}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SuggestQuality(tt.e, th); got != tt.want {
				t.Errorf("SuggestQuality() = %d, want %d", got, tt.want)
			}
		})
	}
}
