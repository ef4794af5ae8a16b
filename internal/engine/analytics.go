package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/recall/internal/apperr"
	"github.com/abhisek/recall/internal/attempt"
	"github.com/abhisek/recall/internal/behavior"
	"github.com/abhisek/recall/internal/explain"
	"github.com/abhisek/recall/internal/forgetting"
	"github.com/abhisek/recall/internal/itemstats"
	"github.com/abhisek/recall/internal/mastery"
	"github.com/abhisek/recall/internal/readiness"
	"github.com/abhisek/recall/internal/store"
)

// history loads a learner's attempts with the difficulty of every item
// they touched.
func (e *Engine) history(ctx context.Context, learnerID string, opts store.QueryOpts) ([]attempt.Event, itemstats.Difficulties, error) {
	events, err := e.repos.Attempts.List(ctx, learnerID, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("load attempts: %w", err)
	}
	ids := lo.Uniq(lo.Map(events, func(ev attempt.Event, _ int) string { return ev.ItemID }))
	diffs, err := e.stats.Difficulties(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return events, diffs, nil
}

// documentScope keeps the events that belong to a document: those tagged
// with it and those on a topic the catalog places in it. It also returns
// the document's catalog topics. An empty documentID keeps everything and
// returns the whole catalog.
func (e *Engine) documentScope(ctx context.Context, documentID string, events []attempt.Event) ([]attempt.Event, []string, error) {
	topics, err := e.repos.Catalog.Topics(ctx, documentID)
	if err != nil {
		return nil, nil, fmt.Errorf("load document topics: %w", err)
	}
	if documentID == "" {
		return events, topics, nil
	}
	inDoc := lo.Associate(topics, func(t string) (string, bool) { return t, true })
	scoped := lo.Filter(events, func(ev attempt.Event, _ int) bool {
		return ev.DocumentID == documentID || inDoc[ev.Topic]
	})
	return scoped, topics, nil
}

// Mastery computes the mastery of one topic from the full ordered
// history. Concurrent identical requests share one computation, which is
// detached from any single caller's cancellation; each caller still stops
// waiting when its own context is done.
func (e *Engine) Mastery(ctx context.Context, learnerID, topic string) (rec mastery.Record, err error) {
	ctx, span := e.start(ctx, "Mastery", learnerAttr(learnerID), attribute.String("recall.topic", topic))
	defer func() { endSpan(span, err) }()

	shared := context.WithoutCancel(ctx)
	ch := e.flight.DoChan("mastery\x00"+learnerID+"\x00"+topic, func() (any, error) {
		return e.computeMastery(shared, learnerID, topic)
	})
	select {
	case <-ctx.Done():
		return mastery.Record{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return mastery.Record{}, res.Err
		}
		return res.Val.(mastery.Record), nil
	}
}

func (e *Engine) computeMastery(ctx context.Context, learnerID, topic string) (mastery.Record, error) {
	events, diffs, err := e.history(ctx, learnerID, store.QueryOpts{Topic: topic})
	if err != nil {
		return mastery.Record{}, err
	}
	return mastery.Compute(learnerID, topic, events, diffs, e.th.RecencyDecay)
}

// Weaknesses ranks every topic the learner practiced within the
// document, most urgent first.
func (e *Engine) Weaknesses(ctx context.Context, learnerID, documentID string) (out []mastery.Weakness, err error) {
	ctx, span := e.start(ctx, "Weaknesses", learnerAttr(learnerID), attribute.String("recall.document", documentID))
	defer func() { endSpan(span, err) }()

	events, diffs, err := e.history(ctx, learnerID, store.QueryOpts{})
	if err != nil {
		return nil, err
	}
	scoped, _, err := e.documentScope(ctx, documentID, events)
	if err != nil {
		return nil, err
	}

	topics := mastery.Topics(scoped)
	results := make([]*mastery.Weakness, len(topics))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, topic := range topics {
		g.Go(func() error {
			w, err := mastery.AnalyzeTopic(learnerID, topic, scoped, diffs, e.th)
			if errors.Is(err, apperr.ErrInsufficientData) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("analyze %s: %w", topic, err)
			}
			results[i] = &w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, w := range results {
		if w != nil {
			out = append(out, *w)
		}
	}
	mastery.SortWeaknesses(out)
	return out, nil
}

// Targeting suggests the focus of the learner's next session.
func (e *Engine) Targeting(ctx context.Context, learnerID, documentID string) (mastery.Targeting, error) {
	ws, err := e.Weaknesses(ctx, learnerID, documentID)
	if err != nil {
		return mastery.Targeting{}, err
	}
	return mastery.Target(ws), nil
}

// Behavior profiles the learner over their full attempt history.
func (e *Engine) Behavior(ctx context.Context, learnerID string) (p behavior.Profile, err error) {
	ctx, span := e.start(ctx, "Behavior", learnerAttr(learnerID))
	defer func() { endSpan(span, err) }()

	events, diffs, err := e.history(ctx, learnerID, store.QueryOpts{})
	if err != nil {
		return behavior.Profile{}, err
	}
	return behavior.Build(learnerID, events, diffs, e.th)
}

// Readiness aggregates mastery, behavior and coverage for a document.
func (e *Engine) Readiness(ctx context.Context, learnerID, documentID string) (rep readiness.Report, err error) {
	ctx, span := e.start(ctx, "Readiness", learnerAttr(learnerID), attribute.String("recall.document", documentID))
	defer func() { endSpan(span, err) }()

	events, diffs, err := e.history(ctx, learnerID, store.QueryOpts{})
	if err != nil {
		return readiness.Report{}, err
	}
	scoped, docTopics, err := e.documentScope(ctx, documentID, events)
	if err != nil {
		return readiness.Report{}, err
	}

	var mu sync.Mutex
	masteries := make(map[string]mastery.Record)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, topic := range mastery.Topics(scoped) {
		g.Go(func() error {
			rec, err := e.Mastery(gctx, learnerID, topic)
			if errors.Is(err, apperr.ErrInsufficientData) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			masteries[topic] = rec
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return readiness.Report{}, err
	}

	in := readiness.Input{Masteries: masteries, DocumentTopics: docTopics}
	if len(scoped) > 0 {
		prof, err := behavior.Build(learnerID, scoped, diffs, e.th)
		if err != nil && !errors.Is(err, apperr.ErrInsufficientData) {
			return readiness.Report{}, err
		}
		if err == nil {
			in.Behavior = &prof
		}
	}
	return readiness.Compute(in), nil
}

// ForgettingCurve fits the decay of a topic from its mastery snapshots.
func (e *Engine) ForgettingCurve(ctx context.Context, learnerID, topic string) (res forgetting.Result, err error) {
	ctx, span := e.start(ctx, "ForgettingCurve", learnerAttr(learnerID), attribute.String("recall.topic", topic))
	defer func() { endSpan(span, err) }()

	snaps, err := e.repos.Snapshots.History(ctx, learnerID, topic)
	if err != nil {
		return forgetting.Result{}, err
	}
	return forgetting.Estimate(topic, snaps)
}

// NeedsReviewSweep returns every topic of the learner whose mastery has
// decayed enough to need review.
func (e *Engine) NeedsReviewSweep(ctx context.Context, learnerID string) ([]forgetting.Result, error) {
	hist, err := e.repos.Snapshots.HistoryByTopic(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return forgetting.Sweep(hist), nil
}

// Velocity compares the learning rate of every topic with enough
// snapshot history, fastest first.
func (e *Engine) Velocity(ctx context.Context, learnerID string) (out []mastery.Velocity, err error) {
	ctx, span := e.start(ctx, "Velocity", learnerAttr(learnerID))
	defer func() { endSpan(span, err) }()

	hist, err := e.repos.Snapshots.HistoryByTopic(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	topics := lo.Keys(hist)
	sort.Strings(topics)

	var vs []mastery.Velocity
	for _, topic := range topics {
		v, err := mastery.LearningVelocity(topic, hist[topic])
		if errors.Is(err, apperr.ErrInsufficientData) {
			continue
		}
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return mastery.CompareVelocities(vs), nil
}

// TopicVelocity returns the learning rate of one topic.
func (e *Engine) TopicVelocity(ctx context.Context, learnerID, topic string) (mastery.Velocity, error) {
	snaps, err := e.repos.Snapshots.History(ctx, learnerID, topic)
	if err != nil {
		return mastery.Velocity{}, err
	}
	return mastery.LearningVelocity(topic, snaps)
}

// ExplanationContext returns the behavioral context of one attempt for
// the external explanation generator.
func (e *Engine) ExplanationContext(ctx context.Context, learnerID, attemptID string) (explain.Context, error) {
	ev, err := e.repos.Attempts.Get(ctx, learnerID, attemptID)
	if err != nil {
		return explain.Context{}, err
	}
	return explain.For(*ev, e.th), nil
}

// Learners lists every learner with recorded attempts.
func (e *Engine) Learners(ctx context.Context) ([]string, error) {
	return e.repos.Attempts.Learners(ctx)
}

// Attempts returns a learner's attempts oldest first.
func (e *Engine) Attempts(ctx context.Context, learnerID string, opts store.QueryOpts) ([]attempt.Event, error) {
	return e.repos.Attempts.List(ctx, learnerID, opts)
}
