package attempt

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Log is the append-only attempt store. Append assigns e.Sequence.
type Log interface {
	Append(ctx context.Context, e *Event) error
}

// Ingestor validates raw attempts and appends them to the log.
type Ingestor struct {
	log   Log
	now   func() time.Time
	newID func() string
}

// NewIngestor returns an Ingestor appending to log.
func NewIngestor(log Log) *Ingestor {
	return &Ingestor{
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// WithClock overrides the ingest clock used for attempts without a
// timestamp. Intended for tests.
func (in *Ingestor) WithClock(now func() time.Time) *Ingestor {
	in.now = now
	return in
}

// Normalize validates raw and converts it to an Event without touching
// the log. The returned event has no ID or sequence yet.
func Normalize(raw Raw, now time.Time) (Event, error) {
	verr := &ValidationError{}

	learner := strings.TrimSpace(raw.LearnerID)
	item := strings.TrimSpace(raw.ItemID)
	topic := strings.TrimSpace(raw.Topic)

	if learner == "" {
		verr.add("learner_id", "is required")
	}
	if item == "" {
		verr.add("item_id", "is required")
	}
	if topic == "" {
		verr.add("topic", "is required")
	}
	switch secs := raw.TimeTakenSeconds; {
	case math.IsNaN(secs) || math.IsInf(secs, 0):
		verr.add("time_taken_seconds", "must be a finite number")
	case secs < 0:
		verr.add("time_taken_seconds", "must not be negative")
	}
	if raw.HesitationCount < 0 {
		verr.add("hesitation_count", "must not be negative")
	}
	if !raw.WasSkipped && raw.IsCorrect == nil {
		verr.add("is_correct", "is required unless the attempt was skipped")
	}
	if err := verr.orNil(); err != nil {
		return Event{}, err
	}

	occurred := raw.OccurredAt
	if occurred.IsZero() {
		occurred = now
	}

	e := Event{
		LearnerID:        learner,
		ItemID:           item,
		Topic:            topic,
		DocumentID:       strings.TrimSpace(raw.DocumentID),
		TimeTakenSeconds: raw.TimeTakenSeconds,
		Skipped:          raw.WasSkipped,
		HesitationCount:  raw.HesitationCount,
		AnswerChanged:    raw.AnswerChanged,
		MarkedTricky:     raw.MarkedTricky,
		OccurredAt:       occurred.UTC(),
	}
	if !raw.WasSkipped {
		e.Correct = *raw.IsCorrect
	}
	return e, nil
}

// Record validates raw and appends exactly one event. On a validation
// failure nothing is appended and a *ValidationError is returned.
func (in *Ingestor) Record(ctx context.Context, raw Raw) (*Event, error) {
	e, err := in.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if err := in.Append(ctx, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Normalize validates raw against the ingest clock.
func (in *Ingestor) Normalize(raw Raw) (Event, error) {
	return Normalize(raw, in.now())
}

// Append assigns an ID to an already normalized event and appends it.
func (in *Ingestor) Append(ctx context.Context, e *Event) error {
	if e.ID == "" {
		e.ID = in.newID()
	}
	if err := in.log.Append(ctx, e); err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}
	return nil
}

// BatchResult reports the outcome of RecordBatch per input index.
type BatchResult struct {
	Recorded []*Event
	Errors   map[int]error
}

// RecordBatch records every raw attempt in order. A rejected attempt does
// not prevent the others from being recorded.
func (in *Ingestor) RecordBatch(ctx context.Context, raws []Raw) BatchResult {
	res := BatchResult{}
	for i, raw := range raws {
		e, err := in.Record(ctx, raw)
		if err != nil {
			if res.Errors == nil {
				res.Errors = make(map[int]error)
			}
			res.Errors[i] = err
			continue
		}
		res.Recorded = append(res.Recorded, e)
	}
	return res
}
