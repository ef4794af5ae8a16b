package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/abhisek/recall/internal/apperr"
	"github.com/abhisek/recall/internal/attempt"
)

var attemptColumns = []string{
	"id", "sequence", "learner_id", "item_id", "topic", "document_id",
	"is_correct", "time_taken_seconds", "was_skipped", "hesitation_count",
	"answer_changed", "marked_tricky", "occurred_at",
}

type attemptRow struct {
	ID               string  `db:"id"`
	Sequence         int64   `db:"sequence"`
	LearnerID        string  `db:"learner_id"`
	ItemID           string  `db:"item_id"`
	Topic            string  `db:"topic"`
	DocumentID       string  `db:"document_id"`
	IsCorrect        bool    `db:"is_correct"`
	TimeTakenSeconds float64 `db:"time_taken_seconds"`
	WasSkipped       bool    `db:"was_skipped"`
	HesitationCount  int     `db:"hesitation_count"`
	AnswerChanged    bool    `db:"answer_changed"`
	MarkedTricky     bool    `db:"marked_tricky"`
	OccurredAt       int64   `db:"occurred_at"`
}

func (r attemptRow) event() attempt.Event {
	return attempt.Event{
		ID:               r.ID,
		Sequence:         r.Sequence,
		LearnerID:        r.LearnerID,
		ItemID:           r.ItemID,
		Topic:            r.Topic,
		DocumentID:       r.DocumentID,
		Correct:          r.IsCorrect,
		TimeTakenSeconds: r.TimeTakenSeconds,
		Skipped:          r.WasSkipped,
		HesitationCount:  r.HesitationCount,
		AnswerChanged:    r.AnswerChanged,
		MarkedTricky:     r.MarkedTricky,
		OccurredAt:       fromNanos(r.OccurredAt),
	}
}

// attemptRepo implements AttemptRepo.
type attemptRepo struct {
	db  *sqlx.DB
	b   *entsql.DialectBuilder
	seq *sequenceCounter
}

func (r *attemptRepo) Append(ctx context.Context, e *attempt.Event) error {
	seq, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}
	query, args := r.b.Insert(tableAttempts).
		Columns(attemptColumns...).
		Values(
			e.ID, seq, e.LearnerID, e.ItemID, e.Topic, e.DocumentID,
			e.Correct, e.TimeTakenSeconds, e.Skipped, e.HesitationCount,
			e.AnswerChanged, e.MarkedTricky, toNanos(e.OccurredAt),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	e.Sequence = seq
	return nil
}

func (r *attemptRepo) Get(ctx context.Context, learnerID, id string) (*attempt.Event, error) {
	query, args := r.b.Select(attemptColumns...).
		From(r.b.Table(tableAttempts)).
		Where(entsql.And(entsql.EQ("learner_id", learnerID), entsql.EQ("id", id))).
		Query()
	var row attemptRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("attempt %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("query attempt: %w", err)
	}
	e := row.event()
	return &e, nil
}

func (r *attemptRepo) List(ctx context.Context, learnerID string, opts QueryOpts) ([]attempt.Event, error) {
	preds := []*entsql.Predicate{entsql.EQ("learner_id", learnerID)}
	if opts.Topic != "" {
		preds = append(preds, entsql.EQ("topic", opts.Topic))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("occurred_at", toNanos(opts.From)))
	}
	query, args := r.b.Select(attemptColumns...).
		From(r.b.Table(tableAttempts)).
		Where(entsql.And(preds...)).
		OrderBy("occurred_at", "sequence").
		Query()

	var rows []attemptRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	out := make([]attempt.Event, len(rows))
	for i, row := range rows {
		out[i] = row.event()
	}
	return out, nil
}

func (r *attemptRepo) LearnerTopics(ctx context.Context) ([]LearnerTopic, error) {
	query, args := r.b.Select("learner_id", "topic").
		Distinct().
		From(r.b.Table(tableAttempts)).
		OrderBy("learner_id", "topic").
		Query()
	var out []LearnerTopic
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("query learner topics: %w", err)
	}
	return out, nil
}

func (r *attemptRepo) Learners(ctx context.Context) ([]string, error) {
	query, args := r.b.Select("learner_id").
		Distinct().
		From(r.b.Table(tableAttempts)).
		OrderBy("learner_id").
		Query()
	var out []string
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("query learners: %w", err)
	}
	return out, nil
}
