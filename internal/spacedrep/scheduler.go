package spacedrep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/recall/internal/apperr"
)

// Repo persists review cards.
type Repo interface {
	// Get returns apperr.ErrNotFound when the card does not exist.
	Get(ctx context.Context, learnerID, itemID string) (*Card, error)
	// Create returns apperr.ErrConflict when the card already exists.
	Create(ctx context.Context, c *Card) error
	// Update writes c if its stored version still equals c.Version and
	// bumps the version; otherwise it returns apperr.ErrConflict.
	Update(ctx context.Context, c *Card) error
	List(ctx context.Context, learnerID string) ([]Card, error)
}

// Scheduler is the store-backed review scheduler.
type Scheduler struct {
	repo Repo
	log  logrus.FieldLogger
	now  func() time.Time
}

// NewScheduler creates a scheduler over repo.
func NewScheduler(repo Repo, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{repo: repo, log: log, now: time.Now}
}

// WithClock overrides the scheduler clock. Intended for tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Enroll creates a New card for the item if none exists. It reports
// whether a card was created.
func (s *Scheduler) Enroll(ctx context.Context, learnerID, itemID, topic string) (*Card, bool, error) {
	existing, err := s.repo.Get(ctx, learnerID, itemID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, false, fmt.Errorf("get card: %w", err)
	}

	c := NewCard(learnerID, itemID, topic, s.now())
	if err := s.repo.Create(ctx, &c); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			// Lost a race with another enrollment; the card exists now.
			existing, gerr := s.repo.Get(ctx, learnerID, itemID)
			if gerr != nil {
				return nil, false, fmt.Errorf("get card: %w", gerr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create card: %w", err)
	}
	return &c, true, nil
}

// Submit records a review of quality q. The card is created on its first
// submission. An invalid quality leaves all state untouched. A concurrent
// writer causes one reload and retry before ErrConflict is returned.
func (s *Scheduler) Submit(ctx context.Context, learnerID, itemID, topic string, q int, timeTaken float64) (*Card, Transition, error) {
	if err := ValidateQuality(q); err != nil {
		return nil, Transition{}, err
	}

	var lastErr error
	for try := 0; try < 2; try++ {
		c, _, err := s.Enroll(ctx, learnerID, itemID, topic)
		if err != nil {
			return nil, Transition{}, err
		}
		tr, err := c.Apply(q, timeTaken, s.now())
		if err != nil {
			return nil, Transition{}, err
		}
		err = s.repo.Update(ctx, c)
		if err == nil {
			if tr.Lapse {
				s.log.WithFields(logrus.Fields{
					"learner": learnerID,
					"item":    itemID,
					"lapses":  c.Lapses,
				}).Debug("review lapsed")
			}
			return c, tr, nil
		}
		if !errors.Is(err, apperr.ErrConflict) {
			return nil, Transition{}, fmt.Errorf("update card: %w", err)
		}
		lastErr = err
	}
	return nil, Transition{}, lastErr
}

// Reschedule moves a card's due date without recording a review.
func (s *Scheduler) Reschedule(ctx context.Context, learnerID, itemID string, dueAt time.Time) (*Card, error) {
	c, err := s.repo.Get(ctx, learnerID, itemID)
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	c.DueAt = dueAt
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update card: %w", err)
	}
	return c, nil
}

// Get returns one card.
func (s *Scheduler) Get(ctx context.Context, learnerID, itemID string) (*Card, error) {
	return s.repo.Get(ctx, learnerID, itemID)
}

// Due returns the learner's cards due at now in review order.
func (s *Scheduler) Due(ctx context.Context, learnerID string, now time.Time) ([]Card, error) {
	cards, err := s.repo.List(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return DueQueue(cards, now), nil
}

// Schedule summarizes the learner's upcoming reviews.
func (s *Scheduler) Schedule(ctx context.Context, learnerID string, now time.Time) (Schedule, error) {
	cards, err := s.repo.List(ctx, learnerID)
	if err != nil {
		return Schedule{}, fmt.Errorf("list cards: %w", err)
	}
	return Summarize(cards, now), nil
}
