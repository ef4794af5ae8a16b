package itemstats

import (
	"context"
	"math"
	"testing"
)

func TestDifficulty_Unknown(t *testing.T) {
	if got := (Statistics{}).Difficulty(); got != 0.5 {
		t.Errorf("Difficulty() = %f, want 0.5", got)
	}
}

func TestApply_Bootstrap(t *testing.T) {
	s := Apply(Statistics{}, "q1", true)
	if s.TotalAttempts != 3 || s.CorrectAttempts != 2 {
		t.Errorf("got %d/%d, want 2/3", s.CorrectAttempts, s.TotalAttempts)
	}
	if math.Abs(s.Difficulty()-2.0/3.0) > 1e-9 {
		t.Errorf("Difficulty() = %f, want 0.667", s.Difficulty())
	}

	s = Apply(s, "q1", false)
	if s.TotalAttempts != 4 || s.CorrectAttempts != 2 {
		t.Errorf("got %d/%d, want 2/4", s.CorrectAttempts, s.TotalAttempts)
	}
}

func TestApply_BootstrapOnlyOnce(t *testing.T) {
	var s Statistics
	for i := 0; i < 10; i++ {
		s = Apply(s, "q", false)
	}
	if s.TotalAttempts != 12 || s.CorrectAttempts != 1 {
		t.Errorf("got %d/%d, want 1/12", s.CorrectAttempts, s.TotalAttempts)
	}
}

func TestDifficulties_Of(t *testing.T) {
	d := Difficulties{"a": 0.2}
	if d.Of("a") != 0.2 {
		t.Errorf("Of(a) = %f", d.Of("a"))
	}
	if d.Of("missing") != UnknownDifficulty {
		t.Errorf("Of(missing) = %f, want 0.5", d.Of("missing"))
	}
}

type memRepo struct {
	stats map[string]Statistics
}

func (m *memRepo) Increment(_ context.Context, id string, correct bool) (Statistics, error) {
	s := Apply(m.stats[id], id, correct)
	m.stats[id] = s
	return s, nil
}

func (m *memRepo) GetMany(_ context.Context, ids []string) (map[string]Statistics, error) {
	out := make(map[string]Statistics)
	for _, id := range ids {
		if s, ok := m.stats[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func TestTracker_UpdateAndGet(t *testing.T) {
	tr := NewTracker(&memRepo{stats: map[string]Statistics{}})
	ctx := context.Background()

	got, err := tr.Get(ctx, "q1")
	if err != nil || got != 0.5 {
		t.Fatalf("Get before update = %f, %v; want 0.5", got, err)
	}
	if _, err := tr.Update(ctx, "q1", false); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = tr.Get(ctx, "q1")
	if math.Abs(got-1.0/3.0) > 1e-9 {
		t.Errorf("Get after wrong = %f, want 0.333", got)
	}
}
