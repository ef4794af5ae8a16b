// Package mastery computes per-topic mastery from the attempt history and
// ranks a learner's weak topics.
package mastery

import (
	"fmt"
	"math"
	"time"

	"github.com/abhisek/recall/internal/apperr"
	"github.com/abhisek/recall/internal/attempt"
	"github.com/abhisek/recall/internal/itemstats"
)

// ErrNoData is returned when a topic has no answered attempts. Mastery is
// undefined in that case, never 0 or 0.5.
var ErrNoData = fmt.Errorf("%w: no answered attempts on topic", apperr.ErrInsufficientData)

// Record is the mastery of one learner on one topic.
type Record struct {
	LearnerID   string    `json:"learner_id"`
	Topic       string    `json:"topic"`
	Mastery     float64   `json:"mastery"`
	SampleCount int       `json:"sample_count"`
	LastUpdated time.Time `json:"last_updated"`
}

// Level returns the reporting bucket of the record.
func (r Record) Level() Level { return LevelOf(r.Mastery) }

// Compute derives the mastery of learnerID on topic from events. Events
// for other topics are ignored; skipped attempts carry no correctness and
// do not count. Each answered attempt is weighted by how hard its item is
// (1 - empirical difficulty) and by recency, the newest attempt weighing 1.
func Compute(learnerID, topic string, events []attempt.Event, diffs itemstats.Difficulties, decay float64) (Record, error) {
	answered := answeredOn(events, topic)
	n := len(answered)
	if n == 0 {
		return Record{}, ErrNoData
	}

	var num, den, recNum, recDen float64
	for i, e := range answered {
		r := math.Exp(-decay * float64(n-1-i))
		d := 1 - diffs.Of(e.ItemID)
		c := 0.0
		if e.Correct {
			c = 1
		}
		num += c * d * r
		den += d * r
		recNum += c * r
		recDen += r
	}

	// Every item answered correctly by everyone has zero difficulty weight.
	// Fall back to recency alone so mastery stays defined.
	m := recNum / recDen
	if den > 0 {
		m = num / den
	}

	return Record{
		LearnerID:   learnerID,
		Topic:       topic,
		Mastery:     clamp01(m),
		SampleCount: n,
		LastUpdated: answered[n-1].OccurredAt,
	}, nil
}

// ComputeAll computes mastery for every topic present in events. Topics
// without answered attempts are left out.
func ComputeAll(learnerID string, events []attempt.Event, diffs itemstats.Difficulties, decay float64) map[string]Record {
	out := make(map[string]Record)
	for _, topic := range Topics(events) {
		r, err := Compute(learnerID, topic, events, diffs, decay)
		if err != nil {
			continue
		}
		out[topic] = r
	}
	return out
}

// Topics returns the distinct topics of events in first-seen order.
func Topics(events []attempt.Event) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range events {
		if !seen[e.Topic] {
			seen[e.Topic] = true
			out = append(out, e.Topic)
		}
	}
	return out
}

func answeredOn(events []attempt.Event, topic string) []attempt.Event {
	var out []attempt.Event
	for _, e := range events {
		if e.Topic == topic && e.Answered() {
			out = append(out, e)
		}
	}
	return attempt.Sorted(out)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
