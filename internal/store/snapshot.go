package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/abhisek/recall/internal/mastery"
)

var snapshotColumns = []string{"learner_id", "topic", "taken_at", "mastery", "sample_count"}

type snapshotRow struct {
	LearnerID   string  `db:"learner_id"`
	Topic       string  `db:"topic"`
	TakenAt     int64   `db:"taken_at"`
	Mastery     float64 `db:"mastery"`
	SampleCount int     `db:"sample_count"`
}

func (r snapshotRow) snapshot() mastery.Snapshot {
	return mastery.Snapshot{
		LearnerID:   r.LearnerID,
		Topic:       r.Topic,
		Mastery:     r.Mastery,
		SampleCount: r.SampleCount,
		TakenAt:     fromNanos(r.TakenAt),
	}
}

// snapshotRepo implements SnapshotRepo.
type snapshotRepo struct {
	db *sqlx.DB
	b  *entsql.DialectBuilder
}

func (r *snapshotRepo) Save(ctx context.Context, snap mastery.Snapshot) error {
	query, args := r.b.Insert(tableSnapshots).
		Columns(snapshotColumns...).
		Values(snap.LearnerID, snap.Topic, toNanos(snap.TakenAt), snap.Mastery, snap.SampleCount).
		OnConflict(
			entsql.ConflictColumns("learner_id", "topic", "taken_at"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepo) Latest(ctx context.Context, learnerID, topic string) (*mastery.Snapshot, error) {
	query, args := r.b.Select(snapshotColumns...).
		From(r.b.Table(tableSnapshots)).
		Where(entsql.And(entsql.EQ("learner_id", learnerID), entsql.EQ("topic", topic))).
		OrderBy(entsql.Desc("taken_at")).
		Limit(1).
		Query()
	var row snapshotRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	snap := row.snapshot()
	return &snap, nil
}

func (r *snapshotRepo) History(ctx context.Context, learnerID, topic string) ([]mastery.Snapshot, error) {
	return r.list(ctx, entsql.And(entsql.EQ("learner_id", learnerID), entsql.EQ("topic", topic)))
}

func (r *snapshotRepo) HistoryByTopic(ctx context.Context, learnerID string) (map[string][]mastery.Snapshot, error) {
	snaps, err := r.list(ctx, entsql.EQ("learner_id", learnerID))
	if err != nil {
		return nil, err
	}
	out := make(map[string][]mastery.Snapshot)
	for _, s := range snaps {
		out[s.Topic] = append(out[s.Topic], s)
	}
	return out, nil
}

func (r *snapshotRepo) list(ctx context.Context, where *entsql.Predicate) ([]mastery.Snapshot, error) {
	query, args := r.b.Select(snapshotColumns...).
		From(r.b.Table(tableSnapshots)).
		Where(where).
		OrderBy("topic", "taken_at").
		Query()
	var rows []snapshotRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	out := make([]mastery.Snapshot, len(rows))
	for i, row := range rows {
		out[i] = row.snapshot()
	}
	return out, nil
}

func (r *snapshotRepo) Prune(ctx context.Context, learnerID, topic string, keep int) error {
	if keep < 0 {
		keep = 0
	}
	scope := func() *entsql.Predicate {
		return entsql.And(entsql.EQ("learner_id", learnerID), entsql.EQ("topic", topic))
	}

	// The newest snapshot past the keep window marks the cutoff.
	query, args := r.b.Select("taken_at").
		From(r.b.Table(tableSnapshots)).
		Where(scope()).
		OrderBy(entsql.Desc("taken_at")).
		Limit(1).
		Offset(keep).
		Query()
	var cutoff int64
	if err := r.db.GetContext(ctx, &cutoff, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("query prune cutoff: %w", err)
	}

	query, args = r.b.Delete(tableSnapshots).
		Where(entsql.And(scope(), entsql.LTE("taken_at", cutoff))).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
