// Package forgetting fits an exponential decay to a topic's mastery history.
package forgetting

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/abhisek/recall/internal/apperr"
	"github.com/abhisek/recall/internal/mastery"
)

// Model thresholds.
const (
	// MinPeak is the lowest peak worth modelling decay from.
	MinPeak = 0.5
	// ReviewPeak, ReviewRetention and ReviewAfterDays gate NeedsReview.
	ReviewPeak      = 0.7
	ReviewRetention = 0.8
	ReviewAfterDays = 7.0
)

// minRetention stands in for a zero current mastery so the log stays finite.
const minRetention = 1e-6

var (
	ErrTooFewSamples = fmt.Errorf("%w: need at least two mastery snapshots", apperr.ErrInsufficientData)
	ErrLowPeak       = fmt.Errorf("%w: peak mastery below %.1f", apperr.ErrInsufficientData, MinPeak)
	ErrNoElapsedTime = fmt.Errorf("%w: no time elapsed since peak", apperr.ErrInsufficientData)
)

// Sample is one observed mastery.
type Sample struct {
	Mastery float64   `json:"mastery"`
	At      time.Time `json:"at"`
}

// Result is the fitted decay for one topic.
type Result struct {
	Topic          string    `json:"topic"`
	PeakMastery    float64   `json:"peak_mastery"`
	PeakAt         time.Time `json:"peak_at"`
	CurrentMastery float64   `json:"current_mastery"`
	CurrentAt      time.Time `json:"current_at"`
	DaysSincePeak  float64   `json:"days_since_peak"`
	Retention      float64   `json:"retention"`
	DecayRate      float64   `json:"decay_rate"`
	// HalfLifeDays is nil when mastery has not decayed.
	HalfLifeDays *float64 `json:"half_life_days"`
	NeedsReview  bool     `json:"needs_review"`
	Samples      []Sample `json:"samples"`
}

// Estimate fits the decay of topic from its snapshots. The peak is the
// highest mastery (earliest on ties) and current is the latest snapshot.
func Estimate(topic string, snaps []mastery.Snapshot) (Result, error) {
	if len(snaps) < 2 {
		return Result{}, ErrTooFewSamples
	}
	samples := make([]Sample, len(snaps))
	for i, s := range snaps {
		samples[i] = Sample{Mastery: s.Mastery, At: s.TakenAt}
	}
	sort.SliceStable(samples, func(i, j int) bool { return samples[i].At.Before(samples[j].At) })

	peak := samples[0]
	for _, s := range samples[1:] {
		if s.Mastery > peak.Mastery {
			peak = s
		}
	}
	if peak.Mastery < MinPeak {
		return Result{}, ErrLowPeak
	}
	current := samples[len(samples)-1]

	days := current.At.Sub(peak.At).Hours() / 24
	if days <= 0 {
		return Result{}, ErrNoElapsedTime
	}

	retention := math.Min(1, math.Max(minRetention, current.Mastery/peak.Mastery))
	rate := -math.Log(retention) / days

	r := Result{
		Topic:          topic,
		PeakMastery:    peak.Mastery,
		PeakAt:         peak.At,
		CurrentMastery: current.Mastery,
		CurrentAt:      current.At,
		DaysSincePeak:  days,
		Retention:      retention,
		DecayRate:      rate,
		NeedsReview:    peak.Mastery > ReviewPeak && retention < ReviewRetention && days >= ReviewAfterDays,
		Samples:        samples,
	}
	if rate > 0 {
		hl := math.Ln2 / rate
		r.HalfLifeDays = &hl
	}
	return r, nil
}

// Sweep estimates every topic in history and returns the ones that need
// review, most decayed first. Topics without enough history are skipped.
func Sweep(history map[string][]mastery.Snapshot) []Result {
	var out []Result
	for topic, snaps := range history {
		r, err := Estimate(topic, snaps)
		if err != nil || !r.NeedsReview {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Retention != out[j].Retention {
			return out[i].Retention < out[j].Retention
		}
		return out[i].Topic < out[j].Topic
	})
	return out
}
