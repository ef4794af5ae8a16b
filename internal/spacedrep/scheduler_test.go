package spacedrep

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/recall/internal/apperr"
)

type memRepo struct {
	mu    sync.Mutex
	cards map[string]Card
	// conflicts makes the next n updates fail with ErrConflict.
	conflicts int
}

func newMemRepo() *memRepo { return &memRepo{cards: map[string]Card{}} }

func key(l, i string) string { return l + "/" + i }

func (m *memRepo) Get(_ context.Context, l, i string) (*Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[key(l, i)]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &c, nil
}

func (m *memRepo) Create(_ context.Context, c *Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[key(c.LearnerID, c.ItemID)]; ok {
		return apperr.ErrConflict
	}
	c.Version = 1
	m.cards[key(c.LearnerID, c.ItemID)] = *c
	return nil
}

func (m *memRepo) Update(_ context.Context, c *Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflicts > 0 {
		m.conflicts--
		return apperr.ErrConflict
	}
	stored, ok := m.cards[key(c.LearnerID, c.ItemID)]
	if !ok || stored.Version != c.Version {
		return apperr.ErrConflict
	}
	c.Version++
	m.cards[key(c.LearnerID, c.ItemID)] = *c
	return nil
}

func (m *memRepo) List(_ context.Context, l string) ([]Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Card
	for _, c := range m.cards {
		if c.LearnerID == l {
			out = append(out, c)
		}
	}
	return out, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestScheduler(repo Repo) *Scheduler {
	return NewScheduler(repo, quietLogger()).WithClock(func() time.Time { return t0 })
}

func TestScheduler_SubmitCreatesCard(t *testing.T) {
	repo := newMemRepo()
	s := newTestScheduler(repo)
	ctx := context.Background()

	c, tr, err := s.Submit(ctx, "u1", "q1", "Algebra", 5, 12)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if tr.From != StateNew || tr.To != StateReview {
		t.Errorf("transition = %+v", tr)
	}
	if c.IntervalDays != 1 || c.Version != 2 {
		t.Errorf("card = %+v", c)
	}
	stored, _ := repo.Get(ctx, "u1", "q1")
	if stored.TotalReviews != 1 {
		t.Errorf("stored TotalReviews = %d, want 1", stored.TotalReviews)
	}
}

func TestScheduler_SubmitInvalidQuality(t *testing.T) {
	repo := newMemRepo()
	s := newTestScheduler(repo)
	_, _, err := s.Submit(context.Background(), "u1", "q1", "Algebra", 9, 1)
	if !errors.Is(err, apperr.ErrInvalidQuality) {
		t.Fatalf("err = %v, want ErrInvalidQuality", err)
	}
	if len(repo.cards) != 0 {
		t.Error("invalid submission created a card")
	}
}

func TestScheduler_SubmitRetriesOnce(t *testing.T) {
	repo := newMemRepo()
	s := newTestScheduler(repo)
	ctx := context.Background()

	repo.conflicts = 1
	if _, _, err := s.Submit(ctx, "u1", "q1", "Algebra", 4, 1); err != nil {
		t.Fatalf("Submit with one conflict: %v", err)
	}

	repo.conflicts = 2
	_, _, err := s.Submit(ctx, "u1", "q1", "Algebra", 4, 1)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict after two conflicts", err)
	}
	stored, _ := repo.Get(ctx, "u1", "q1")
	if stored.TotalReviews != 1 {
		t.Errorf("TotalReviews = %d, want 1", stored.TotalReviews)
	}
}

func TestScheduler_EnrollIdempotent(t *testing.T) {
	repo := newMemRepo()
	s := newTestScheduler(repo)
	ctx := context.Background()

	_, created, err := s.Enroll(ctx, "u1", "q1", "Algebra")
	if err != nil || !created {
		t.Fatalf("first Enroll created=%v err=%v", created, err)
	}
	_, created, err = s.Enroll(ctx, "u1", "q1", "Algebra")
	if err != nil || created {
		t.Fatalf("second Enroll created=%v err=%v", created, err)
	}
}

func TestScheduler_DueAndReschedule(t *testing.T) {
	repo := newMemRepo()
	s := newTestScheduler(repo)
	ctx := context.Background()

	s.Enroll(ctx, "u1", "a", "T")
	s.Enroll(ctx, "u1", "b", "T")
	s.Enroll(ctx, "u2", "c", "T")

	due, err := s.Due(ctx, "u1", t0)
	if err != nil {
		t.Fatalf("Due: %v", err)
	}
	if len(due) != 2 || due[0].ItemID != "a" {
		t.Fatalf("due = %+v", due)
	}

	if _, err := s.Reschedule(ctx, "u1", "a", t0.AddDate(0, 0, 3)); err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	due, _ = s.Due(ctx, "u1", t0)
	if len(due) != 1 || due[0].ItemID != "b" {
		t.Errorf("due after reschedule = %+v", due)
	}

	if _, err := s.Reschedule(ctx, "u1", "missing", t0); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Reschedule(missing) err = %v, want ErrNotFound", err)
	}
}
