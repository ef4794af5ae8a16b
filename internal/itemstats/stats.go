// Package itemstats tracks how often each item is answered correctly
// across all learners.
package itemstats

import (
	"context"
	"fmt"
)

// Prior is the Laplace bootstrap applied on an item's first update:
// one imagined success and one imagined failure.
const (
	PriorAttempts = 2
	PriorCorrect  = 1
)

// UnknownDifficulty is reported for items that have never been attempted.
const UnknownDifficulty = 0.5

// Statistics are the aggregate counters for one item. Counters include
// the bootstrap prior once the item has been attempted.
type Statistics struct {
	ItemID          string
	TotalAttempts   int
	CorrectAttempts int
}

// Difficulty is the empirical success rate. Higher means easier.
func (s Statistics) Difficulty() float64 {
	if s.TotalAttempts == 0 {
		return UnknownDifficulty
	}
	return float64(s.CorrectAttempts) / float64(s.TotalAttempts)
}

// Apply returns s updated with one more attempt. A zero Statistics is
// bootstrapped with the prior before the attempt is counted.
func Apply(s Statistics, itemID string, correct bool) Statistics {
	if s.TotalAttempts == 0 {
		s = Statistics{ItemID: itemID, TotalAttempts: PriorAttempts, CorrectAttempts: PriorCorrect}
	}
	s.TotalAttempts++
	if correct {
		s.CorrectAttempts++
	}
	return s
}

// Difficulties maps item IDs to empirical difficulty.
type Difficulties map[string]float64

// Of returns the difficulty of itemID, or UnknownDifficulty.
func (d Difficulties) Of(itemID string) float64 {
	if v, ok := d[itemID]; ok {
		return v
	}
	return UnknownDifficulty
}

// Repo persists statistics. Increment must apply the bootstrap and the
// attempt atomically.
type Repo interface {
	Increment(ctx context.Context, itemID string, correct bool) (Statistics, error)
	GetMany(ctx context.Context, itemIDs []string) (map[string]Statistics, error)
}

// Tracker is the store-backed statistics tracker.
type Tracker struct {
	repo Repo
}

// NewTracker returns a Tracker over repo.
func NewTracker(repo Repo) *Tracker {
	return &Tracker{repo: repo}
}

// Update counts one attempt on itemID.
func (t *Tracker) Update(ctx context.Context, itemID string, correct bool) (Statistics, error) {
	s, err := t.repo.Increment(ctx, itemID, correct)
	if err != nil {
		return Statistics{}, fmt.Errorf("increment item stats %s: %w", itemID, err)
	}
	return s, nil
}

// Get returns the empirical difficulty of itemID.
func (t *Tracker) Get(ctx context.Context, itemID string) (float64, error) {
	d, err := t.Difficulties(ctx, []string{itemID})
	if err != nil {
		return 0, err
	}
	return d.Of(itemID), nil
}

// Difficulties returns the empirical difficulty for each of itemIDs.
func (t *Tracker) Difficulties(ctx context.Context, itemIDs []string) (Difficulties, error) {
	stats, err := t.repo.GetMany(ctx, itemIDs)
	if err != nil {
		return nil, fmt.Errorf("load item stats: %w", err)
	}
	out := make(Difficulties, len(stats))
	for id, s := range stats {
		out[id] = s.Difficulty()
	}
	return out, nil
}
