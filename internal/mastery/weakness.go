package mastery

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/abhisek/recall/internal/attempt"
	"github.com/abhisek/recall/internal/itemstats"
)

// Confidence penalty weights.
const (
	ConfusionWeight = 0.5
	TrickyWeight    = 0.3
)

// BandCounts tallies answered attempts by item difficulty band.
type BandCounts struct {
	EasyCorrect   int `json:"easy_correct"`
	EasyWrong     int `json:"easy_wrong"`
	MediumCorrect int `json:"medium_correct"`
	MediumWrong   int `json:"medium_wrong"`
	HardCorrect   int `json:"hard_correct"`
	HardWrong     int `json:"hard_wrong"`
}

// Weakness is a topic ranked for remediation.
type Weakness struct {
	Topic             string     `json:"topic"`
	Mastery           float64    `json:"mastery"`
	SampleCount       int        `json:"sample_count"`
	Exposure          int        `json:"exposure"`
	AvgConfusion      float64    `json:"avg_confusion"`
	TrickyRate        float64    `json:"tricky_marked_rate"`
	ConfidencePenalty float64    `json:"confidence_penalty"`
	Priority          float64    `json:"priority"`
	LastUpdated       time.Time  `json:"last_updated"`
	Patterns          []Pattern  `json:"failure_patterns"`
	WrongItems        []string   `json:"wrong_items"`
	Bands             BandCounts `json:"difficulty_bands"`
	Recommendation    string     `json:"recommendation"`
}

// Confusion scores one attempt in [0,1]. A slow, hesitant wrong answer is
// fully confused; otherwise confusion grows with time beyond the slow
// threshold.
func Confusion(e attempt.Event, th attempt.Thresholds) float64 {
	if th.Slow(e) && e.Wrong() && e.HesitationCount > 0 {
		return 1
	}
	return clamp01((e.TimeTakenSeconds - th.SlowSeconds) / th.SlowSeconds)
}

// AnalyzeTopic builds the weakness entry of one topic.
func AnalyzeTopic(learnerID, topic string, events []attempt.Event, diffs itemstats.Difficulties, th attempt.Thresholds) (Weakness, error) {
	rec, err := Compute(learnerID, topic, events, diffs, th.RecencyDecay)
	if err != nil {
		return Weakness{}, err
	}

	onTopic := attempt.Sorted(attempt.FilterTopic(events, topic))
	w := Weakness{
		Topic:       topic,
		Mastery:     rec.Mastery,
		SampleCount: rec.SampleCount,
		Exposure:    len(onTopic),
		LastUpdated: rec.LastUpdated,
	}

	var confusion float64
	var tricky int
	wrongSeen := make(map[string]bool)
	for _, e := range onTopic {
		if e.MarkedTricky {
			tricky++
		}
		if e.Skipped {
			continue
		}
		confusion += Confusion(e, th)

		d := diffs.Of(e.ItemID)
		switch {
		case th.Easy(d) && e.Correct:
			w.Bands.EasyCorrect++
		case th.Easy(d):
			w.Bands.EasyWrong++
		case th.Hard(d) && e.Correct:
			w.Bands.HardCorrect++
		case th.Hard(d):
			w.Bands.HardWrong++
		case e.Correct:
			w.Bands.MediumCorrect++
		default:
			w.Bands.MediumWrong++
		}
		if e.Wrong() && !wrongSeen[e.ItemID] {
			wrongSeen[e.ItemID] = true
			w.WrongItems = append(w.WrongItems, e.ItemID)
		}
	}

	w.AvgConfusion = confusion / float64(rec.SampleCount)
	w.TrickyRate = float64(tricky) / float64(w.Exposure)
	w.ConfidencePenalty = 1 + ConfusionWeight*w.AvgConfusion + TrickyWeight*w.TrickyRate
	w.Priority = (1 - w.Mastery) * float64(w.Exposure) * w.ConfidencePenalty
	w.Patterns = RunPatternClassifiers(DefaultPatternClassifiers(), onTopic, diffs, th)
	w.Recommendation = recommend(w)
	return w, nil
}

// RankWeaknesses analyzes every topic in events and returns them most
// urgent first. Topics with only skipped attempts have no mastery and are
// left out.
func RankWeaknesses(learnerID string, events []attempt.Event, diffs itemstats.Difficulties, th attempt.Thresholds) []Weakness {
	var out []Weakness
	for _, topic := range Topics(events) {
		w, err := AnalyzeTopic(learnerID, topic, events, diffs, th)
		if err != nil {
			continue
		}
		out = append(out, w)
	}
	SortWeaknesses(out)
	return out
}

// SortWeaknesses orders by priority descending, then lower mastery, then
// more recent activity, then topic name.
func SortWeaknesses(ws []Weakness) {
	sort.SliceStable(ws, func(i, j int) bool {
		a, b := ws[i], ws[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Mastery != b.Mastery {
			return a.Mastery < b.Mastery
		}
		if !a.LastUpdated.Equal(b.LastUpdated) {
			return a.LastUpdated.After(b.LastUpdated)
		}
		return a.Topic < b.Topic
	})
}

func recommend(w Weakness) string {
	switch {
	case w.Bands.EasyWrong > w.Bands.EasyCorrect:
		return fmt.Sprintf("Critical gap in %s fundamentals - review basics first", w.Topic)
	case w.Mastery < WeakBelow:
		return fmt.Sprintf("Struggling with basic %s concepts - focused review needed", w.Topic)
	case w.AvgConfusion > 0.6:
		return fmt.Sprintf("High confusion in %s - try different explanations or examples", w.Topic)
	default:
		return fmt.Sprintf("Practice more %s problems to build confidence", w.Topic)
	}
}

// Targeting suggests what the next practice session should focus on.
type Targeting struct {
	WeakTopics            []string `json:"weak_topics"`
	RecommendedDifficulty []string `json:"recommended_difficulty"`
	QuestionsNeeded       int      `json:"estimated_questions_needed"`
}

// Targeting bounds.
const (
	TargetTopics       = 3
	MinQuestionsNeeded = 5
	MaxQuestionsNeeded = 50
)

// Target builds adaptive targeting from a ranked weakness list. The most
// urgent topic decides the difficulty mix and the question count.
func Target(ranked []Weakness) Targeting {
	if len(ranked) == 0 {
		return Targeting{RecommendedDifficulty: []string{"medium"}, QuestionsNeeded: 10}
	}
	t := Targeting{}
	for i := 0; i < len(ranked) && i < TargetTopics; i++ {
		t.WeakTopics = append(t.WeakTopics, ranked[i].Topic)
	}
	top := ranked[0].Mastery
	switch {
	case top < 0.3:
		t.RecommendedDifficulty = []string{"easy"}
	case top < 0.6:
		t.RecommendedDifficulty = []string{"easy", "medium"}
	default:
		t.RecommendedDifficulty = []string{"medium"}
	}
	n := int(math.Floor(20 * (1 - top)))
	t.QuestionsNeeded = max(MinQuestionsNeeded, min(n, MaxQuestionsNeeded))
	return t
}
