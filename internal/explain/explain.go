// Package explain derives the behavioral context handed to the external
// explanation generator. No explanation text is generated here.
package explain

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/abhisek/recall/internal/attempt"
)

// Context is everything the explanation generator receives about one
// attempt.
type Context struct {
	AttemptID         string    `json:"attempt_id"`
	LearnerID         string    `json:"learner_id"`
	ItemID            string    `json:"item_id"`
	Topic             string    `json:"topic"`
	Correct           bool      `json:"is_correct"`
	Skipped           bool      `json:"was_skipped"`
	TimeTakenSeconds  float64   `json:"time_taken_seconds"`
	HesitationCount   int       `json:"hesitation_count"`
	OccurredAt        time.Time `json:"occurred_at"`
	BehavioralInsight string    `json:"behavioral_insight"`
}

// Explainer turns a Context into explanation text. Implementations live
// outside this module.
type Explainer interface {
	Explain(ctx context.Context, c Context) (string, error)
}

// For builds the explanation context of e.
func For(e attempt.Event, th attempt.Thresholds) Context {
	return Context{
		AttemptID:         e.ID,
		LearnerID:         e.LearnerID,
		ItemID:            e.ItemID,
		Topic:             e.Topic,
		Correct:           e.Correct,
		Skipped:           e.Skipped,
		TimeTakenSeconds:  e.TimeTakenSeconds,
		HesitationCount:   e.HesitationCount,
		OccurredAt:        e.OccurredAt,
		BehavioralInsight: BehavioralInsight(e, th),
	}
}

// BehavioralInsight summarizes what time taken and hesitation suggest
// about the attempt.
func BehavioralInsight(e attempt.Event, th attempt.Thresholds) string {
	secs := strconv.FormatFloat(e.TimeTakenSeconds, 'f', -1, 64)
	switch {
	case e.Skipped:
		return fmt.Sprintf("Student skipped this question after %ss, suggesting possible avoidance or uncertainty.", secs)
	case th.Fast(e):
		return fmt.Sprintf("Student answered quickly (%ss), possibly guessing.", secs)
	case th.Slow(e):
		return fmt.Sprintf("Student spent %ss and hesitated %d times, indicating confusion.", secs, e.HesitationCount)
	case e.HesitationCount > 0:
		return fmt.Sprintf("Student answered in %ss after hesitating %d times.", secs, e.HesitationCount)
	default:
		return fmt.Sprintf("Student answered at a steady pace (%ss).", secs)
	}
}
