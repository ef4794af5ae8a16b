package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/abhisek/recall/internal/apperr"
	"github.com/abhisek/recall/internal/spacedrep"
)

var reviewColumns = []string{
	"learner_id", "item_id", "topic", "state", "repetitions", "ease_factor",
	"interval_days", "due_at", "last_quality", "total_reviews",
	"successful_reviews", "lapses", "average_quality", "last_reviewed_at",
	"last_time_taken", "created_at", "version",
}

type reviewRow struct {
	LearnerID         string  `db:"learner_id"`
	ItemID            string  `db:"item_id"`
	Topic             string  `db:"topic"`
	State             string  `db:"state"`
	Repetitions       int     `db:"repetitions"`
	EaseFactor        float64 `db:"ease_factor"`
	IntervalDays      int     `db:"interval_days"`
	DueAt             int64   `db:"due_at"`
	LastQuality       int     `db:"last_quality"`
	TotalReviews      int     `db:"total_reviews"`
	SuccessfulReviews int     `db:"successful_reviews"`
	Lapses            int     `db:"lapses"`
	AverageQuality    float64 `db:"average_quality"`
	LastReviewedAt    int64   `db:"last_reviewed_at"`
	LastTimeTaken     float64 `db:"last_time_taken"`
	CreatedAt         int64   `db:"created_at"`
	Version           int64   `db:"version"`
}

func (r reviewRow) card() spacedrep.Card {
	return spacedrep.Card{
		LearnerID:         r.LearnerID,
		ItemID:            r.ItemID,
		Topic:             r.Topic,
		State:             spacedrep.State(r.State),
		Repetitions:       r.Repetitions,
		EaseFactor:        r.EaseFactor,
		IntervalDays:      r.IntervalDays,
		DueAt:             fromNanos(r.DueAt),
		LastQuality:       r.LastQuality,
		TotalReviews:      r.TotalReviews,
		SuccessfulReviews: r.SuccessfulReviews,
		Lapses:            r.Lapses,
		AverageQuality:    r.AverageQuality,
		LastReviewedAt:    fromNanos(r.LastReviewedAt),
		LastTimeTaken:     r.LastTimeTaken,
		CreatedAt:         fromNanos(r.CreatedAt),
		Version:           r.Version,
	}
}

// reviewRepo implements ReviewRepo with optimistic concurrency on version.
type reviewRepo struct {
	db *sqlx.DB
	b  *entsql.DialectBuilder
}

func (r *reviewRepo) Get(ctx context.Context, learnerID, itemID string) (*spacedrep.Card, error) {
	query, args := r.b.Select(reviewColumns...).
		From(r.b.Table(tableReviews)).
		Where(entsql.And(entsql.EQ("learner_id", learnerID), entsql.EQ("item_id", itemID))).
		Query()
	var row reviewRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("review card %s/%s: %w", learnerID, itemID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("query review card: %w", err)
	}
	c := row.card()
	return &c, nil
}

func (r *reviewRepo) Create(ctx context.Context, c *spacedrep.Card) error {
	query, args := r.b.Insert(tableReviews).
		Columns(reviewColumns...).
		Values(
			c.LearnerID, c.ItemID, c.Topic, string(c.State), c.Repetitions, c.EaseFactor,
			c.IntervalDays, toNanos(c.DueAt), c.LastQuality, c.TotalReviews,
			c.SuccessfulReviews, c.Lapses, c.AverageQuality, toNanos(c.LastReviewedAt),
			c.LastTimeTaken, toNanos(c.CreatedAt), int64(1),
		).
		OnConflict(entsql.ConflictColumns("learner_id", "item_id"), entsql.DoNothing()).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create review card: %w", apperr.ErrConflict)
		}
		return fmt.Errorf("create review card: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("create review card: %w", apperr.ErrConflict)
	}
	c.Version = 1
	return nil
}

func (r *reviewRepo) Update(ctx context.Context, c *spacedrep.Card) error {
	next := c.Version + 1
	query, args := r.b.Update(tableReviews).
		Set("topic", c.Topic).
		Set("state", string(c.State)).
		Set("repetitions", c.Repetitions).
		Set("ease_factor", c.EaseFactor).
		Set("interval_days", c.IntervalDays).
		Set("due_at", toNanos(c.DueAt)).
		Set("last_quality", c.LastQuality).
		Set("total_reviews", c.TotalReviews).
		Set("successful_reviews", c.SuccessfulReviews).
		Set("lapses", c.Lapses).
		Set("average_quality", c.AverageQuality).
		Set("last_reviewed_at", toNanos(c.LastReviewedAt)).
		Set("last_time_taken", c.LastTimeTaken).
		Set("version", next).
		Where(entsql.And(
			entsql.EQ("learner_id", c.LearnerID),
			entsql.EQ("item_id", c.ItemID),
			entsql.EQ("version", c.Version),
		)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update review card: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update review card: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("review card %s/%s at version %d: %w", c.LearnerID, c.ItemID, c.Version, apperr.ErrConflict)
	}
	c.Version = next
	return nil
}

func (r *reviewRepo) List(ctx context.Context, learnerID string) ([]spacedrep.Card, error) {
	query, args := r.b.Select(reviewColumns...).
		From(r.b.Table(tableReviews)).
		Where(entsql.EQ("learner_id", learnerID)).
		OrderBy("due_at", "item_id").
		Query()
	var rows []reviewRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query review cards: %w", err)
	}
	out := make([]spacedrep.Card, len(rows))
	for i, row := range rows {
		out[i] = row.card()
	}
	return out, nil
}

// isUniqueViolation matches the duplicate-key errors of both drivers.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
