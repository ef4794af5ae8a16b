// Package readiness composes mastery, behavior and coverage into a single
// exam readiness score.
package readiness

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/abhisek/recall/internal/behavior"
	"github.com/abhisek/recall/internal/mastery"
)

// Component weights of the overall score.
const (
	MasteryWeight     = 0.40
	ConsistencyWeight = 0.25
	ConfidenceWeight  = 0.20
	CoverageWeight    = 0.15
)

// Level is the readiness verdict.
type Level string

const (
	LevelReady       Level = "Ready"
	LevelAlmostReady Level = "Almost Ready"
	LevelNeedsWork   Level = "Needs Work"
	LevelNotStarted  Level = "Not Started"
)

// Score thresholds.
const (
	ReadyScore       = 90.0
	AlmostReadyScore = 70.0
	// hoursPerPoint is the study time estimated per missing score point.
	hoursPerPoint = 0.3
)

// Input is what the aggregator reads.
type Input struct {
	// Masteries holds the defined mastery of every practiced topic in scope.
	Masteries map[string]mastery.Record
	// DocumentTopics lists every topic of the document. When empty the
	// practiced topics stand in for the document.
	DocumentTopics []string
	// Behavior is the learner's profile over attempts in scope. Nil when
	// there are no attempts.
	Behavior *behavior.Profile
}

// Report is the readiness verdict for one learner and document.
type Report struct {
	OverallScore        float64  `json:"overall_score"`
	MasteryScore        float64  `json:"mastery_score"`
	ConsistencyScore    float64  `json:"consistency_score"`
	ConfidenceScore     float64  `json:"confidence_score"`
	CoverageScore       float64  `json:"coverage_score"`
	Level               Level    `json:"readiness_level"`
	EstimatedStudyHours int      `json:"estimated_study_hours"`
	StrongTopics        []string `json:"strong_topics"`
	WeakTopics          []string `json:"weak_topics"`
	UnpracticedTopics   []string `json:"unpracticed_topics"`
	PriorityActions     []string `json:"priority_actions"`
}

// Compute builds the readiness report. With no attempts at all the
// learner is Not Started.
func Compute(in Input) Report {
	if in.Behavior == nil || in.Behavior.Attempts == 0 {
		return Report{
			Level:               LevelNotStarted,
			EstimatedStudyHours: studyHours(0),
			UnpracticedTopics:   sortedCopy(in.DocumentTopics),
			PriorityActions:     []string{"Complete at least one practice test"},
		}
	}

	topics := make([]string, 0, len(in.Masteries))
	values := make([]float64, 0, len(in.Masteries))
	for t := range in.Masteries {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	for _, t := range topics {
		values = append(values, in.Masteries[t].Mastery)
	}

	r := Report{}
	r.MasteryScore = mean(values)
	r.ConsistencyScore = 1 - math.Min(1, 2*behavior.Variance(values))
	r.ConfidenceScore = 1 - math.Min(1, 0.2*in.Behavior.AvgHesitation)
	r.CoverageScore, r.UnpracticedTopics = coverage(in.Masteries, in.DocumentTopics)

	r.OverallScore = 100 * (MasteryWeight*r.MasteryScore +
		ConsistencyWeight*r.ConsistencyScore +
		ConfidenceWeight*r.ConfidenceScore +
		CoverageWeight*r.CoverageScore)
	r.Level = levelOf(r.OverallScore)
	r.EstimatedStudyHours = studyHours(r.OverallScore)

	for _, t := range topics {
		switch mastery.LevelOf(in.Masteries[t].Mastery) {
		case mastery.LevelStrong:
			r.StrongTopics = append(r.StrongTopics, t)
		case mastery.LevelWeak:
			r.WeakTopics = append(r.WeakTopics, t)
		}
	}
	r.PriorityActions = actions(r)
	return r
}

func coverage(practiced map[string]mastery.Record, docTopics []string) (float64, []string) {
	if len(docTopics) == 0 {
		if len(practiced) == 0 {
			return 0, nil
		}
		return 1, nil
	}
	var hit int
	var missing []string
	seen := make(map[string]bool, len(docTopics))
	for _, t := range docTopics {
		if seen[t] {
			continue
		}
		seen[t] = true
		if _, ok := practiced[t]; ok {
			hit++
		} else {
			missing = append(missing, t)
		}
	}
	sort.Strings(missing)
	return float64(hit) / float64(len(seen)), missing
}

func levelOf(score float64) Level {
	switch {
	case score >= ReadyScore:
		return LevelReady
	case score >= AlmostReadyScore:
		return LevelAlmostReady
	default:
		return LevelNeedsWork
	}
}

func studyHours(score float64) int {
	return int(math.Ceil(math.Max(0, (ReadyScore-score)*hoursPerPoint)))
}

func actions(r Report) []string {
	var out []string
	if len(r.WeakTopics) > 0 {
		out = append(out, fmt.Sprintf("Focus on weak topics: %s", strings.Join(r.WeakTopics[:min(3, len(r.WeakTopics))], ", ")))
	}
	if r.CoverageScore < 0.8 {
		out = append(out, "Cover more topics to improve breadth")
	}
	if r.ConfidenceScore < 0.7 {
		out = append(out, "Build confidence: practice under time pressure")
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
