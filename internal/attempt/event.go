// Package attempt defines the immutable attempt log entry and the ingestor
// that validates raw submissions before they are appended.
package attempt

import (
	"sort"
	"time"
)

// Event is one submitted answer. Events are immutable once appended.
type Event struct {
	ID         string `json:"id"`
	Sequence   int64  `json:"sequence"`
	LearnerID  string `json:"learner_id"`
	ItemID     string `json:"item_id"`
	Topic      string `json:"topic"`
	DocumentID string `json:"document_id,omitempty"`

	Correct          bool    `json:"is_correct"`
	TimeTakenSeconds float64 `json:"time_taken_seconds"`
	Skipped          bool    `json:"was_skipped"`
	HesitationCount  int     `json:"hesitation_count"`
	AnswerChanged    bool    `json:"answer_changed"`
	MarkedTricky     bool    `json:"marked_tricky"`

	OccurredAt time.Time `json:"occurred_at"`
}

// Answered reports whether the learner committed to an answer.
func (e Event) Answered() bool { return !e.Skipped }

// Wrong reports whether the learner answered and got it wrong.
// Skipped attempts are not wrong, they are unanswered.
func (e Event) Wrong() bool { return !e.Skipped && !e.Correct }

// Before orders events by occurrence time, then by log sequence.
func (e Event) Before(o Event) bool {
	if !e.OccurredAt.Equal(o.OccurredAt) {
		return e.OccurredAt.Before(o.OccurredAt)
	}
	return e.Sequence < o.Sequence
}

// Raw is the wire form of an attempt as produced by the session service.
type Raw struct {
	LearnerID        string    `json:"learner_id"`
	ItemID           string    `json:"item_id"`
	Topic            string    `json:"topic"`
	DocumentID       string    `json:"document_id,omitempty"`
	IsCorrect        *bool     `json:"is_correct"`
	TimeTakenSeconds float64   `json:"time_taken_seconds"`
	WasSkipped       bool      `json:"was_skipped"`
	HesitationCount  int       `json:"hesitation_count"`
	AnswerChanged    bool      `json:"answer_changed"`
	MarkedTricky     bool      `json:"marked_tricky"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// FilterTopic returns the events for one topic, preserving order.
func FilterTopic(events []Event, topic string) []Event {
	var out []Event
	for _, e := range events {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}

// Sorted returns a copy of events ordered oldest to newest.
func Sorted(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
