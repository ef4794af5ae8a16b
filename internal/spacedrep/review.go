package spacedrep

import (
	"math"
	"time"
)

// State is a card's position in the review lifecycle.
type State string

const (
	StateNew      State = "new"
	StateLearning State = "learning"
	StateReview   State = "review"
	// StateLapsed is transient: a failed Review card passes through it on
	// its way back to Learning and is never persisted.
	StateLapsed State = "lapsed"
)

// Card is the review schedule of one item for one learner.
type Card struct {
	LearnerID string `json:"learner_id"`
	ItemID    string `json:"item_id"`
	Topic     string `json:"topic"`

	State        State     `json:"state"`
	Repetitions  int       `json:"repetition_count"`
	EaseFactor   float64   `json:"ease_factor"`
	IntervalDays int       `json:"interval_days"`
	DueAt        time.Time `json:"due_at"`

	LastQuality       int       `json:"last_quality"`
	TotalReviews      int       `json:"total_reviews"`
	SuccessfulReviews int       `json:"successful_reviews"`
	Lapses            int       `json:"lapses"`
	AverageQuality    float64   `json:"average_quality"`
	LastReviewedAt    time.Time `json:"last_reviewed_at,omitzero"`
	LastTimeTaken     float64   `json:"last_time_taken_seconds"`

	CreatedAt time.Time `json:"created_at"`
	// Version is bumped on every persisted change.
	Version int64 `json:"version"`
}

// NewCard returns a card enrolled at now and due immediately.
func NewCard(learnerID, itemID, topic string, now time.Time) Card {
	return Card{
		LearnerID:  learnerID,
		ItemID:     itemID,
		Topic:      topic,
		State:      StateNew,
		EaseFactor: InitialEase,
		DueAt:      now,
		CreatedAt:  now,
	}
}

// Transition describes the state change caused by one review.
type Transition struct {
	From  State
	To    State
	Lapse bool
}

// Apply records a review of quality q at now. The card is left untouched
// when q is invalid.
func (c *Card) Apply(q int, timeTaken float64, now time.Time) (Transition, error) {
	if err := ValidateQuality(q); err != nil {
		return Transition{}, err
	}
	tr := Transition{From: c.State}

	c.EaseFactor = NextEase(c.EaseFactor, q)
	if q < PassQuality {
		tr.Lapse = c.State == StateReview
		if tr.Lapse {
			c.Lapses++
		}
		c.Repetitions = 0
		c.IntervalDays = FirstInterval
		c.State = StateLearning
	} else {
		c.Repetitions++
		c.IntervalDays = NextInterval(c.Repetitions, c.IntervalDays, c.EaseFactor)
		c.State = StateReview
		c.SuccessfulReviews++
	}

	c.AverageQuality = (c.AverageQuality*float64(c.TotalReviews) + float64(q)) / float64(c.TotalReviews+1)
	c.TotalReviews++
	c.LastQuality = q
	c.LastTimeTaken = timeTaken
	c.LastReviewedAt = now
	c.DueAt = now.AddDate(0, 0, c.IntervalDays)

	tr.To = c.State
	return tr, nil
}

// IsDue returns true if the card is due at or before now.
func (c *Card) IsDue(now time.Time) bool {
	return !now.Before(c.DueAt)
}

// OverdueDays returns how many days past due the card is. Returns 0 if not yet due.
func (c *Card) OverdueDays(now time.Time) float64 {
	if now.Before(c.DueAt) {
		return 0
	}
	return now.Sub(c.DueAt).Hours() / 24.0
}

// DaysUntilReview returns the whole days, rounded up, until the card is
// due. Returns 0 if already due.
func (c *Card) DaysUntilReview(now time.Time) int {
	if c.IsDue(now) {
		return 0
	}
	return int(math.Ceil(c.DueAt.Sub(now).Hours() / 24.0))
}

// ReviewStatus describes a card's due status for display.
type ReviewStatus string

const (
	ReviewNotDue  ReviewStatus = "not_due"
	ReviewDue     ReviewStatus = "due"
	ReviewOverdue ReviewStatus = "overdue"
)

// Status returns the due status for display. A card is overdue once it
// has gone unreviewed for more than half its interval past the due date.
func (c *Card) Status(now time.Time) ReviewStatus {
	if !c.IsDue(now) {
		return ReviewNotDue
	}
	grace := time.Duration(float64(max(c.IntervalDays, 1)) * 0.5 * float64(24*time.Hour))
	if now.After(c.DueAt.Add(grace)) {
		return ReviewOverdue
	}
	return ReviewDue
}
