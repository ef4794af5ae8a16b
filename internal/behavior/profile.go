// Package behavior profiles how a learner answers: speed, hesitation,
// skipping and the traits those signals add up to.
package behavior

import (
	"fmt"
	"math"

	"github.com/abhisek/recall/internal/apperr"
	"github.com/abhisek/recall/internal/attempt"
	"github.com/abhisek/recall/internal/itemstats"
)

// ErrNoAttempts is returned for a learner without history.
var ErrNoAttempts = fmt.Errorf("%w: no attempts recorded", apperr.ErrInsufficientData)

// Trait is one of the four main behavioral traits.
type Trait string

const (
	TraitRiskTaker     Trait = "Risk-taker"
	TraitPerfectionist Trait = "Perfectionist"
	TraitSkimmer       Trait = "Skimmer"
	TraitGrinder       Trait = "Grinder"
)

// SecondaryMargin is how close the runner-up must be to the primary trait
// to be reported.
const SecondaryMargin = 0.15

// coachingThreshold is the trait score above which coaching text applies.
const coachingThreshold = 0.6

// Profile is a learner's behavioral fingerprint. Scores are in [0,1]
// except SpeedAccuracyTradeoff which is in [-1,1].
type Profile struct {
	LearnerID             string   `json:"learner_id"`
	RiskTaking            float64  `json:"risk_taking"`
	Perfectionism         float64  `json:"perfectionism"`
	Skimming              float64  `json:"skimming"`
	Grinding              float64  `json:"grinding"`
	ConfidenceCalibration float64  `json:"confidence_calibration"`
	SpeedAccuracyTradeoff float64  `json:"speed_accuracy_tradeoff"`
	DifficultySeeking     float64  `json:"difficulty_seeking"`
	Consistency           float64  `json:"consistency"`
	PrimaryTrait          Trait    `json:"primary_trait"`
	SecondaryTrait        *Trait   `json:"secondary_trait"`
	Strengths             []string `json:"strengths"`
	GrowthAreas           []string `json:"growth_areas"`
	OptimalStrategy       string   `json:"optimal_strategy"`

	// Accuracy is correct answers over answered attempts.
	Accuracy float64 `json:"accuracy"`
	// AvgHesitation is the mean hesitation count per answered attempt.
	AvgHesitation float64 `json:"avg_hesitation"`
	Attempts      int     `json:"attempts"`
}

type counts struct {
	total, answered, correct                  int
	fast, fastCorrect, slow, slowWrong, skips int
	hesitant, tricky, hesitations             int
	hard, hardSkips, hardAnswered, easySkips  int
}

// Build computes the profile of learnerID from their full history.
func Build(learnerID string, events []attempt.Event, diffs itemstats.Difficulties, th attempt.Thresholds) (Profile, error) {
	if len(events) == 0 {
		return Profile{}, ErrNoAttempts
	}

	var c counts
	for _, e := range events {
		c.total++
		d := diffs.Of(e.ItemID)
		hard := th.Hard(d)
		if hard {
			c.hard++
		}
		if e.HesitationCount > 0 {
			c.hesitant++
		}
		if e.MarkedTricky {
			c.tricky++
		}
		if e.Skipped {
			c.skips++
			if hard {
				c.hardSkips++
			}
			if th.Easy(d) {
				c.easySkips++
			}
			continue
		}

		c.answered++
		c.hesitations += e.HesitationCount
		if e.Correct {
			c.correct++
		}
		if hard {
			c.hardAnswered++
		}
		if th.Fast(e) {
			c.fast++
			if e.Correct {
				c.fastCorrect++
			}
		}
		if th.Slow(e) {
			c.slow++
			if !e.Correct {
				c.slowWrong++
			}
		}
	}

	total := float64(c.total)
	fastRate := float64(c.fast) / total
	slowRate := float64(c.slow) / total
	skipRate := float64(c.skips) / total
	accuracy := ratio(c.correct, c.answered)

	p := Profile{
		LearnerID:     learnerID,
		Accuracy:      accuracy,
		AvgHesitation: ratio(c.hesitations, c.answered),
		Attempts:      c.total,
	}
	p.RiskTaking = clamp01(fastRate * (1 + (1-ratio(c.fastCorrect, c.fast))*0.5))
	p.Perfectionism = clamp01(0.3*float64(c.hesitant)/total + 0.4*float64(c.tricky)/total + 0.3*slowRate)
	p.Skimming = clamp01(0.6*skipRate + 0.4*ratio(c.hardSkips, c.hard))
	p.Grinding = clamp01(slowRate * accuracy)
	p.ConfidenceCalibration = clamp01(1 - math.Abs(float64(c.fastCorrect)/total-float64(c.slowWrong)/total))
	p.SpeedAccuracyTradeoff = math.Max(-1, math.Min(1, (2*fastRate-1)*(1-accuracy)))
	p.DifficultySeeking = clamp01((float64(c.hardAnswered-c.easySkips)/total + 1) / 2)
	p.Consistency = consistency(events)

	p.PrimaryTrait, p.SecondaryTrait = rankTraits(p)
	p.Strengths, p.GrowthAreas = coaching(p)
	p.OptimalStrategy = strategies[p.PrimaryTrait]
	return p, nil
}

func rankTraits(p Profile) (Trait, *Trait) {
	scores := []struct {
		trait Trait
		score float64
	}{
		{TraitRiskTaker, p.RiskTaking},
		{TraitPerfectionist, p.Perfectionism},
		{TraitSkimmer, p.Skimming},
		{TraitGrinder, p.Grinding},
	}
	best, second := 0, -1
	for i := 1; i < len(scores); i++ {
		if scores[i].score > scores[best].score {
			second, best = best, i
		} else if second < 0 || scores[i].score > scores[second].score {
			second = i
		}
	}
	primary := scores[best].trait
	if scores[best].score-scores[second].score <= SecondaryMargin {
		t := scores[second].trait
		return primary, &t
	}
	return primary, nil
}

var strategies = map[Trait]string{
	TraitRiskTaker:     "Use timed practice to channel your speed advantage. Review mistakes to improve accuracy.",
	TraitPerfectionist: "Set time limits to prevent overthinking. Practice trusting your preparation.",
	TraitGrinder:       "Your persistence is your strength. Focus on efficiency to maximize coverage.",
	TraitSkimmer:       "Build stamina for difficult topics. Start with moderate difficulty, then increase.",
}

func coaching(p Profile) (strengths, growth []string) {
	if p.RiskTaking > coachingThreshold {
		strengths = append(strengths, "Bold decision-making under time pressure")
		growth = append(growth, "Slow down on complex questions")
	}
	if p.Perfectionism > coachingThreshold {
		strengths = append(strengths, "Attention to detail and accuracy")
		growth = append(growth, "Trust your first instinct more")
	}
	if p.Grinding > coachingThreshold {
		strengths = append(strengths, "Thorough understanding of concepts", "High accuracy through persistence")
	}
	if p.Skimming > coachingThreshold {
		growth = append(growth, "Engage with difficult material", "Build tolerance for challenging problems")
	}
	if p.Accuracy > 0.8 {
		strengths = append(strengths, "Strong foundational knowledge")
	}
	return strengths, growth
}

// consistency is 1 - min(1, 2*variance) of per-day accuracy. Days are
// calendar days in UTC; days without answered attempts are ignored.
func consistency(events []attempt.Event) float64 {
	type tally struct{ correct, answered int }
	days := make(map[string]*tally)
	for _, e := range events {
		if e.Skipped {
			continue
		}
		k := e.OccurredAt.UTC().Format("2006-01-02")
		t, ok := days[k]
		if !ok {
			t = &tally{}
			days[k] = t
		}
		t.answered++
		if e.Correct {
			t.correct++
		}
	}
	accs := make([]float64, 0, len(days))
	for _, t := range days {
		accs = append(accs, float64(t.correct)/float64(t.answered))
	}
	return 1 - math.Min(1, 2*Variance(accs))
}

// Variance is the population variance of values; 0 for fewer than two.
func Variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var sum float64
	for _, v := range values {
		sum += (v - mean) * (v - mean)
	}
	return sum / float64(len(values))
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
