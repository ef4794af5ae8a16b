package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/recall/internal/apperr"
	"github.com/abhisek/recall/internal/attempt"
	"github.com/abhisek/recall/internal/spacedrep"
	"github.com/abhisek/recall/internal/store"
)

// DueReviews returns the learner's cards due at now, most urgent first.
// A zero now means the engine clock.
func (e *Engine) DueReviews(ctx context.Context, learnerID string, now time.Time) (cards []spacedrep.Card, err error) {
	ctx, span := e.start(ctx, "DueReviews", learnerAttr(learnerID))
	defer func() { endSpan(span, err) }()

	if now.IsZero() {
		now = e.now()
	}
	return e.reviews.Due(ctx, learnerID, now)
}

// DueReviewStatus returns the same cards as DueReviews, each with its
// review status and days overdue at now.
func (e *Engine) DueReviewStatus(ctx context.Context, learnerID string, now time.Time) ([]spacedrep.DueCard, error) {
	if now.IsZero() {
		now = e.now()
	}
	cards, err := e.DueReviews(ctx, learnerID, now)
	if err != nil {
		return nil, err
	}
	return spacedrep.Annotate(cards, now), nil
}

// ReviewSchedule summarizes the learner's upcoming reviews.
func (e *Engine) ReviewSchedule(ctx context.Context, learnerID string) (spacedrep.Schedule, error) {
	return e.reviews.Schedule(ctx, learnerID, e.now())
}

// Enroll explicitly schedules an item for review. It reports whether a
// new card was created.
func (e *Engine) Enroll(ctx context.Context, learnerID, itemID string) (*spacedrep.Card, bool, error) {
	unlock := e.locks.Lock(itemKey(learnerID, itemID))
	defer unlock()

	topic, err := e.itemTopic(ctx, learnerID, itemID)
	if err != nil {
		return nil, false, err
	}
	return e.reviews.Enroll(ctx, learnerID, itemID, topic)
}

// SubmitReview records a review of quality q. The card is created on the
// first submission. An invalid quality changes nothing.
func (e *Engine) SubmitReview(ctx context.Context, learnerID, itemID string, q int, timeTaken float64) (card *spacedrep.Card, err error) {
	ctx, span := e.start(ctx, "SubmitReview", learnerAttr(learnerID))
	defer func() { endSpan(span, err) }()

	if err := spacedrep.ValidateQuality(q); err != nil {
		return nil, err
	}
	if timeTaken < 0 {
		timeTaken = 0
	}

	unlock := e.locks.Lock(itemKey(learnerID, itemID))
	defer unlock()

	topic, err := e.itemTopic(ctx, learnerID, itemID)
	if err != nil {
		return nil, err
	}
	card, tr, err := e.reviews.Submit(ctx, learnerID, itemID, topic, q, timeTaken)
	if err != nil {
		return nil, err
	}
	e.log.WithFields(logrus.Fields{
		"learner":  learnerID,
		"item":     itemID,
		"quality":  q,
		"from":     tr.From,
		"to":       tr.To,
		"interval": card.IntervalDays,
	}).Debug("review recorded")
	return card, nil
}

// Reschedule moves a card's due date without recording a review.
func (e *Engine) Reschedule(ctx context.Context, learnerID, itemID string, dueAt time.Time) (*spacedrep.Card, error) {
	if dueAt.IsZero() {
		return nil, attempt.Invalid("due_at", "required")
	}
	unlock := e.locks.Lock(itemKey(learnerID, itemID))
	defer unlock()
	return e.reviews.Reschedule(ctx, learnerID, itemID, dueAt.UTC())
}

// SuggestQuality maps a recorded attempt to an SM-2 quality.
func (e *Engine) SuggestQuality(ctx context.Context, learnerID, attemptID string) (int, error) {
	ev, err := e.repos.Attempts.Get(ctx, learnerID, attemptID)
	if err != nil {
		return 0, err
	}
	return spacedrep.SuggestQuality(*ev, e.th), nil
}

// itemTopic resolves the topic of an item from its review card, then the
// catalog, then the learner's own attempts.
func (e *Engine) itemTopic(ctx context.Context, learnerID, itemID string) (string, error) {
	c, err := e.reviews.Get(ctx, learnerID, itemID)
	if err == nil {
		return c.Topic, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return "", err
	}

	it, err := e.repos.Catalog.Get(ctx, itemID)
	if err == nil {
		return it.Topic, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return "", err
	}

	events, err := e.repos.Attempts.List(ctx, learnerID, store.QueryOpts{})
	if err != nil {
		return "", err
	}
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].ItemID == itemID {
			return events[i].Topic, nil
		}
	}
	return "", fmt.Errorf("topic of item %s: %w", itemID, apperr.ErrNotFound)
}
