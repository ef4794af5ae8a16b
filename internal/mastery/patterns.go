package mastery

import (
	"github.com/abhisek/recall/internal/attempt"
	"github.com/abhisek/recall/internal/itemstats"
)

// Pattern tags a recurring way of getting a topic wrong.
type Pattern string

const (
	PatternFastWrong     Pattern = "fast_wrong"
	PatternSlowWrong     Pattern = "slow_wrong"
	PatternEasyWrong     Pattern = "easy_wrong"
	PatternTrickyWrong   Pattern = "tricky_wrong"
	PatternRepeatedTopic Pattern = "repeated_topic"
)

// patternOrder is the order tags are reported in.
var patternOrder = []Pattern{
	PatternFastWrong,
	PatternSlowWrong,
	PatternEasyWrong,
	PatternTrickyWrong,
	PatternRepeatedTopic,
}

// PatternInput is the context a classifier sees for one attempt.
type PatternInput struct {
	Event      attempt.Event
	Difficulty float64
	Thresholds attempt.Thresholds
}

// PatternClassifier is a rule matching a single wrong attempt.
type PatternClassifier interface {
	Name() string
	Classify(in *PatternInput) (Pattern, bool)
}

// DefaultPatternClassifiers returns the attempt-level rules.
func DefaultPatternClassifiers() []PatternClassifier {
	return []PatternClassifier{
		fastWrong{},
		slowWrong{},
		easyWrong{},
		trickyWrong{},
	}
}

// RepeatedTopicMinItems is the number of distinct wrong items that makes
// a topic a repeated failure.
const RepeatedTopicMinItems = 2

type fastWrong struct{}

func (fastWrong) Name() string { return "fast-wrong" }

func (fastWrong) Classify(in *PatternInput) (Pattern, bool) {
	return PatternFastWrong, in.Event.Wrong() && in.Thresholds.Fast(in.Event)
}

type slowWrong struct{}

func (slowWrong) Name() string { return "slow-wrong" }

func (slowWrong) Classify(in *PatternInput) (Pattern, bool) {
	return PatternSlowWrong, in.Event.Wrong() && in.Thresholds.Slow(in.Event)
}

type easyWrong struct{}

func (easyWrong) Name() string { return "easy-wrong" }

func (easyWrong) Classify(in *PatternInput) (Pattern, bool) {
	return PatternEasyWrong, in.Event.Wrong() && in.Thresholds.Easy(in.Difficulty)
}

type trickyWrong struct{}

func (trickyWrong) Name() string { return "tricky-wrong" }

func (trickyWrong) Classify(in *PatternInput) (Pattern, bool) {
	return PatternTrickyWrong, in.Event.Wrong() && in.Event.MarkedTricky
}

// RunPatternClassifiers runs every classifier against every attempt of a
// topic and returns the distinct tags that matched, in reporting order.
// Unlike a first-match chain, all matching tags are kept.
func RunPatternClassifiers(classifiers []PatternClassifier, events []attempt.Event, diffs itemstats.Difficulties, th attempt.Thresholds) []Pattern {
	found := make(map[Pattern]bool)
	wrongItems := make(map[string]bool)

	for _, e := range events {
		if e.Wrong() {
			wrongItems[e.ItemID] = true
		}
		in := &PatternInput{Event: e, Difficulty: diffs.Of(e.ItemID), Thresholds: th}
		for _, c := range classifiers {
			if p, ok := c.Classify(in); ok {
				found[p] = true
			}
		}
	}
	if len(wrongItems) >= RepeatedTopicMinItems {
		found[PatternRepeatedTopic] = true
	}

	var out []Pattern
	for _, p := range patternOrder {
		if found[p] {
			out = append(out, p)
		}
	}
	return out
}
