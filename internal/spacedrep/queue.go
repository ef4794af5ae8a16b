package spacedrep

import (
	"sort"
	"time"

	"github.com/abhisek/recall/internal/attempt"
)

// DueQueue returns the cards due at now, ordered by due date, then lowest
// ease (hardest first), then item ID.
func DueQueue(cards []Card, now time.Time) []Card {
	var due []Card
	for _, c := range cards {
		if c.IsDue(now) {
			due = append(due, c)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i], due[j]
		if !a.DueAt.Equal(b.DueAt) {
			return a.DueAt.Before(b.DueAt)
		}
		if a.EaseFactor != b.EaseFactor {
			return a.EaseFactor < b.EaseFactor
		}
		return a.ItemID < b.ItemID
	})
	return due
}

// DueCard is a due card with its status at the time it was listed.
type DueCard struct {
	Card
	Status      ReviewStatus `json:"status"`
	OverdueDays float64      `json:"overdue_days"`
}

// Annotate pairs each card with its review status at now.
func Annotate(cards []Card, now time.Time) []DueCard {
	out := make([]DueCard, len(cards))
	for i := range cards {
		c := cards[i]
		out[i] = DueCard{Card: c, Status: c.Status(now), OverdueDays: c.OverdueDays(now)}
	}
	return out
}

// Schedule summarizes a learner's upcoming review load.
type Schedule struct {
	DueToday     int   `json:"due_today"`
	DueThisWeek  int   `json:"due_this_week"`
	DueThisMonth int   `json:"due_this_month"`
	Total        int   `json:"total"`
	Next         *Card `json:"next,omitempty"`
	// NextInDays is the number of days until Next falls due; 0 when it is
	// already due.
	NextInDays int `json:"next_in_days"`
}

// Summarize buckets cards by how soon they fall due. Buckets are
// cumulative: a card due today also counts toward the week and month.
func Summarize(cards []Card, now time.Time) Schedule {
	s := Schedule{Total: len(cards)}
	day := now.AddDate(0, 0, 1)
	week := now.AddDate(0, 0, 7)
	month := now.AddDate(0, 0, 30)
	for i := range cards {
		c := cards[i]
		if !c.DueAt.After(day) {
			s.DueToday++
		}
		if !c.DueAt.After(week) {
			s.DueThisWeek++
		}
		if !c.DueAt.After(month) {
			s.DueThisMonth++
		}
		if s.Next == nil || c.DueAt.Before(s.Next.DueAt) ||
			(c.DueAt.Equal(s.Next.DueAt) && c.ItemID < s.Next.ItemID) {
			s.Next = &c
		}
	}
	if s.Next != nil {
		s.NextInDays = s.Next.DaysUntilReview(now)
	}
	return s
}

// SuggestQuality maps an attempt to an SM-2 quality: 0 for a skip, 1-2
// for wrong answers, 3-5 for correct ones depending on speed and
// hesitation.
func SuggestQuality(e attempt.Event, th attempt.Thresholds) int {
	switch {
	case e.Skipped:
		return 0
	case !e.Correct && (e.HesitationCount > 0 || th.Slow(e)):
		return 1
	case !e.Correct:
		return 2
	case th.Slow(e) || e.HesitationCount > 1 || e.AnswerChanged:
		return 3
	case th.Fast(e) && e.HesitationCount == 0:
		return 5
	default:
		return 4
	}
}
