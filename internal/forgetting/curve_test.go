package forgetting

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/abhisek/recall/internal/apperr"
	"github.com/abhisek/recall/internal/mastery"
)

var day0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func snap(m float64, days float64) mastery.Snapshot {
	return mastery.Snapshot{Mastery: m, TakenAt: day0.Add(time.Duration(days * 24 * float64(time.Hour)))}
}

func TestEstimate_DecayScenario(t *testing.T) {
	r, err := Estimate("Algebra", []mastery.Snapshot{snap(0.9, 0), snap(0.6, 14)})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if math.Abs(r.DecayRate-0.0289) > 0.0005 {
		t.Errorf("DecayRate = %f, want ~0.0289", r.DecayRate)
	}
	if r.HalfLifeDays == nil || math.Abs(*r.HalfLifeDays-24) > 0.5 {
		t.Errorf("HalfLifeDays = %v, want ~24", r.HalfLifeDays)
	}
	if !r.NeedsReview {
		t.Error("expected NeedsReview")
	}
}

func TestEstimate_InsufficientData(t *testing.T) {
	tests := []struct {
		name  string
		snaps []mastery.Snapshot
		want  error
	}{
		{"single", []mastery.Snapshot{snap(0.9, 0)}, ErrTooFewSamples},
		{"low peak", []mastery.Snapshot{snap(0.4, 0), snap(0.3, 10)}, ErrLowPeak},
		{"same instant", []mastery.Snapshot{snap(0.8, 0), snap(0.8, 0)}, ErrNoElapsedTime},
		{"peak is latest", []mastery.Snapshot{snap(0.5, 0), snap(0.9, 3)}, ErrNoElapsedTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Estimate("T", tt.snaps)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, apperr.ErrInsufficientData) {
				t.Error("expected ErrInsufficientData")
			}
		})
	}
}

func TestEstimate_NoDecayHasNoHalfLife(t *testing.T) {
	r, err := Estimate("T", []mastery.Snapshot{snap(0.8, 0), snap(0.8, 10)})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if r.DecayRate != 0 || r.HalfLifeDays != nil {
		t.Errorf("DecayRate = %f HalfLife = %v, want 0 and nil", r.DecayRate, r.HalfLifeDays)
	}
	if r.NeedsReview {
		t.Error("stable mastery should not need review")
	}
}

func TestEstimate_ZeroCurrentClipped(t *testing.T) {
	r, err := Estimate("T", []mastery.Snapshot{snap(0.9, 0), snap(0, 10)})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if math.IsInf(r.DecayRate, 0) || math.IsNaN(r.DecayRate) || r.Retention <= 0 {
		t.Errorf("Retention = %f DecayRate = %f, want finite positive", r.Retention, r.DecayRate)
	}
}

func TestEstimate_FractionalDays(t *testing.T) {
	r, err := Estimate("T", []mastery.Snapshot{snap(0.9, 0), snap(0.8, 0.5)})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if r.DaysSincePeak != 0.5 {
		t.Errorf("DaysSincePeak = %f, want 0.5", r.DaysSincePeak)
	}
}

func TestEstimate_EarliestPeakOnTie(t *testing.T) {
	r, _ := Estimate("T", []mastery.Snapshot{snap(0.9, 0), snap(0.9, 2), snap(0.7, 10)})
	if !r.PeakAt.Equal(day0) {
		t.Errorf("PeakAt = %v, want earliest", r.PeakAt)
	}
}

func TestSweep(t *testing.T) {
	got := Sweep(map[string][]mastery.Snapshot{
		"decayed": {snap(0.9, 0), snap(0.5, 10)},
		"fine":    {snap(0.9, 0), snap(0.88, 10)},
		"new":     {snap(0.9, 0)},
	})
	if len(got) != 1 || got[0].Topic != "decayed" {
		t.Errorf("Sweep = %+v", got)
	}
}
