// Package jobs runs the engine's periodic maintenance: mastery snapshots
// and the decay sweep that flags topics needing review.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/recall/internal/forgetting"
	"github.com/abhisek/recall/internal/spacedrep"
)

// Engine is the part of the engine the jobs drive.
type Engine interface {
	SnapshotAll(ctx context.Context) (int, error)
	Learners(ctx context.Context) ([]string, error)
	NeedsReviewSweep(ctx context.Context, learnerID string) ([]forgetting.Result, error)
	DueReviews(ctx context.Context, learnerID string, now time.Time) ([]spacedrep.Card, error)
}

// Report summarizes one maintenance pass.
type Report struct {
	Snapshots   int                 `json:"snapshots"`
	Learners    int                 `json:"learners"`
	NeedsReview map[string][]string `json:"needs_review"`
	DueReviews  map[string]int      `json:"due_reviews"`
}

// Runner schedules maintenance passes.
type Runner struct {
	engine    Engine
	log       logrus.FieldLogger
	interval  time.Duration
	scheduler *gocron.Scheduler
}

func New(engine Engine, interval time.Duration, log logrus.FieldLogger) *Runner {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Runner{
		engine:    engine,
		log:       log.WithField("component", "jobs"),
		interval:  interval,
		scheduler: s,
	}
}

// Start schedules the maintenance pass every interval, starting
// immediately, and returns without blocking.
func (r *Runner) Start(ctx context.Context) error {
	if r.interval <= 0 {
		return fmt.Errorf("jobs: interval must be positive, got %s", r.interval)
	}
	_, err := r.scheduler.Every(r.interval).Do(func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.log.WithError(err).Error("maintenance pass failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule maintenance: %w", err)
	}
	r.scheduler.StartAsync()
	r.log.WithField("interval", r.interval).Info("maintenance jobs started")
	return nil
}

// Stop halts the scheduler. A running pass is allowed to finish.
func (r *Runner) Stop() {
	r.scheduler.Stop()
}

// RunOnce snapshots every topic with new attempts and then sweeps every
// learner for decayed topics and due reviews.
func (r *Runner) RunOnce(ctx context.Context) (Report, error) {
	start := time.Now()
	rep := Report{
		NeedsReview: make(map[string][]string),
		DueReviews:  make(map[string]int),
	}

	n, err := r.engine.SnapshotAll(ctx)
	if err != nil {
		return rep, fmt.Errorf("snapshot: %w", err)
	}
	rep.Snapshots = n

	learners, err := r.engine.Learners(ctx)
	if err != nil {
		return rep, fmt.Errorf("list learners: %w", err)
	}
	rep.Learners = len(learners)

	for _, l := range learners {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		results, err := r.engine.NeedsReviewSweep(ctx, l)
		if err != nil {
			return rep, fmt.Errorf("sweep %s: %w", l, err)
		}
		for _, res := range results {
			rep.NeedsReview[l] = append(rep.NeedsReview[l], res.Topic)
		}
		if len(rep.NeedsReview[l]) > 0 {
			r.log.WithFields(logrus.Fields{
				"learner": l,
				"topics":  rep.NeedsReview[l],
			}).Info("topics need review")
		}

		due, err := r.engine.DueReviews(ctx, l, time.Time{})
		if err != nil {
			return rep, fmt.Errorf("due reviews %s: %w", l, err)
		}
		if len(due) > 0 {
			rep.DueReviews[l] = len(due)
		}
	}

	r.log.WithFields(logrus.Fields{
		"snapshots":    rep.Snapshots,
		"learners":     rep.Learners,
		"needs_review": len(rep.NeedsReview),
		"elapsed":      time.Since(start).Round(time.Millisecond),
	}).Info("maintenance pass finished")
	return rep, nil
}
