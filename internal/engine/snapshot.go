package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/recall/internal/apperr"
	"github.com/abhisek/recall/internal/mastery"
)

// snapshotTopic stores the current mastery of a topic unless nothing was
// answered since the latest snapshot. The snapshot is dated by the newest
// answered attempt so the forgetting curve follows practice time, not
// ingest time. It reports whether a snapshot was taken.
func (e *Engine) snapshotTopic(ctx context.Context, learnerID, topic string) (bool, error) {
	rec, err := e.computeMastery(ctx, learnerID, topic)
	if err != nil {
		return false, err
	}
	latest, err := e.repos.Snapshots.Latest(ctx, learnerID, topic)
	if err != nil {
		return false, err
	}
	if latest != nil && latest.SampleCount == rec.SampleCount {
		return false, nil
	}
	if err := e.repos.Snapshots.Save(ctx, mastery.SnapshotOf(rec, rec.LastUpdated.UTC())); err != nil {
		return false, err
	}
	if e.keep > 0 {
		if err := e.repos.Snapshots.Prune(ctx, learnerID, topic, e.keep); err != nil {
			return true, err
		}
	}
	return true, nil
}

// SnapshotTopic snapshots one topic on demand.
func (e *Engine) SnapshotTopic(ctx context.Context, learnerID, topic string) (bool, error) {
	return e.snapshotTopic(ctx, learnerID, topic)
}

// SnapshotAll snapshots every (learner, topic) pair with new answered
// attempts and returns how many snapshots were taken.
func (e *Engine) SnapshotAll(ctx context.Context) (n int, err error) {
	ctx, span := e.start(ctx, "SnapshotAll")
	defer func() { endSpan(span, err) }()

	pairs, err := e.repos.Attempts.LearnerTopics(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		took, err := e.snapshotTopic(ctx, p.LearnerID, p.Topic)
		if errors.Is(err, apperr.ErrInsufficientData) {
			continue
		}
		if err != nil {
			return n, fmt.Errorf("snapshot %s/%s: %w", p.LearnerID, p.Topic, err)
		}
		if took {
			n++
		}
	}
	e.log.WithFields(logrus.Fields{
		"pairs":     len(pairs),
		"snapshots": n,
	}).Info("mastery snapshot pass finished")
	return n, nil
}
