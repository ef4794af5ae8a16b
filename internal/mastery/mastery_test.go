package mastery

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/abhisek/recall/internal/apperr"
	"github.com/abhisek/recall/internal/attempt"
	"github.com/abhisek/recall/internal/itemstats"
)

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func ev(seq int64, topic, item string, correct bool, secs float64) attempt.Event {
	return attempt.Event{
		Sequence:         seq,
		LearnerID:        "u1",
		ItemID:           item,
		Topic:            topic,
		Correct:          correct,
		TimeTakenSeconds: secs,
		OccurredAt:       t0.Add(time.Duration(seq) * time.Minute),
	}
}

func algebraEvents() []attempt.Event {
	slow := ev(2, "Algebra", "q2", false, 70)
	slow.HesitationCount = 2
	return []attempt.Event{
		ev(1, "Algebra", "q1", false, 10),
		slow,
		ev(3, "Algebra", "q3", true, 15),
	}
}

func TestCompute_NoData(t *testing.T) {
	_, err := Compute("u1", "Algebra", nil, nil, 0.14)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
	if !errors.Is(err, apperr.ErrInsufficientData) {
		t.Error("ErrNoData should wrap ErrInsufficientData")
	}
}

func TestCompute_OnlySkipsIsNoData(t *testing.T) {
	e := ev(1, "Algebra", "q1", false, 3)
	e.Skipped = true
	if _, err := Compute("u1", "Algebra", []attempt.Event{e}, nil, 0.14); !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestCompute_AlgebraScenario(t *testing.T) {
	rec, err := Compute("u1", "Algebra", algebraEvents(), itemstats.Difficulties{}, 0.14)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if rec.Mastery >= 0.5 {
		t.Errorf("Mastery = %f, want < 0.5", rec.Mastery)
	}
	// Unknown items weigh equally, so only recency matters.
	r1, r2 := math.Exp(-0.28), math.Exp(-0.14)
	want := 1 / (r1 + r2 + 1)
	if math.Abs(rec.Mastery-want) > 1e-9 {
		t.Errorf("Mastery = %f, want %f", rec.Mastery, want)
	}
	if rec.SampleCount != 3 {
		t.Errorf("SampleCount = %d, want 3", rec.SampleCount)
	}
}

func TestCompute_RecencyFavorsNewest(t *testing.T) {
	older := []attempt.Event{ev(1, "T", "a", true, 30), ev(2, "T", "b", false, 30)}
	newer := []attempt.Event{ev(1, "T", "a", false, 30), ev(2, "T", "b", true, 30)}
	mOld, _ := Compute("u1", "T", older, nil, 0.14)
	mNew, _ := Compute("u1", "T", newer, nil, 0.14)
	if mNew.Mastery <= mOld.Mastery {
		t.Errorf("recent correct (%f) should outweigh older correct (%f)", mNew.Mastery, mOld.Mastery)
	}
}

func TestCompute_AllTrivialItemsFallsBackToRecency(t *testing.T) {
	diffs := itemstats.Difficulties{"a": 1, "b": 1}
	rec, err := Compute("u1", "T", []attempt.Event{ev(1, "T", "a", true, 5), ev(2, "T", "b", true, 5)}, diffs, 0.14)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if rec.Mastery != 1 {
		t.Errorf("Mastery = %f, want 1", rec.Mastery)
	}
}

func TestCompute_Bounded(t *testing.T) {
	diffs := itemstats.Difficulties{"a": 0.1, "b": 0.9, "c": 0.5}
	events := []attempt.Event{
		ev(1, "T", "a", true, 5), ev(2, "T", "b", false, 5), ev(3, "T", "c", true, 5),
		ev(4, "T", "a", false, 5), ev(5, "T", "b", true, 5),
	}
	rec, err := Compute("u1", "T", events, diffs, 0.14)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if rec.Mastery < 0 || rec.Mastery > 1 {
		t.Errorf("Mastery = %f out of [0,1]", rec.Mastery)
	}
}

func TestRankWeaknesses_AlgebraPatterns(t *testing.T) {
	ws := RankWeaknesses("u1", algebraEvents(), nil, attempt.DefaultThresholds())
	if len(ws) != 1 {
		t.Fatalf("got %d weaknesses, want 1", len(ws))
	}
	w := ws[0]
	has := map[Pattern]bool{}
	for _, p := range w.Patterns {
		has[p] = true
	}
	if !has[PatternFastWrong] || !has[PatternSlowWrong] {
		t.Errorf("patterns = %v, want fast_wrong and slow_wrong", w.Patterns)
	}
	if !has[PatternRepeatedTopic] {
		t.Errorf("patterns = %v, two distinct wrong items should tag repeated_topic", w.Patterns)
	}
	if w.Exposure != 3 {
		t.Errorf("Exposure = %d, want 3", w.Exposure)
	}
	// The slow hesitant wrong answer is fully confused; the others are not.
	if math.Abs(w.AvgConfusion-1.0/3.0) > 1e-9 {
		t.Errorf("AvgConfusion = %f, want 1/3", w.AvgConfusion)
	}
	wantPriority := (1 - w.Mastery) * 3 * (1 + 0.5/3)
	if math.Abs(w.Priority-wantPriority) > 1e-9 {
		t.Errorf("Priority = %f, want %f", w.Priority, wantPriority)
	}
}

func TestRankWeaknesses_Deterministic(t *testing.T) {
	events := []attempt.Event{
		ev(1, "B", "b1", false, 30),
		ev(2, "A", "a1", false, 30),
		ev(3, "C", "c1", true, 30),
		ev(4, "C", "c2", false, 30),
	}
	first := RankWeaknesses("u1", events, nil, attempt.DefaultThresholds())
	second := RankWeaknesses("u1", events, nil, attempt.DefaultThresholds())
	if len(first) != 3 {
		t.Fatalf("got %d topics, want 3", len(first))
	}
	for i := range first {
		if first[i].Topic != second[i].Topic {
			t.Fatalf("ranking differs at %d: %s vs %s", i, first[i].Topic, second[i].Topic)
		}
	}
	// A and B tie on priority and mastery; A is more recent.
	if first[1].Topic != "A" || first[2].Topic != "B" {
		t.Errorf("order = %s,%s,%s; want C,A,B", first[0].Topic, first[1].Topic, first[2].Topic)
	}
}

func TestSortWeaknesses_TopicNameBreaksFullTie(t *testing.T) {
	ws := []Weakness{
		{Topic: "b", Priority: 1, Mastery: 0.5, LastUpdated: t0},
		{Topic: "a", Priority: 1, Mastery: 0.5, LastUpdated: t0},
	}
	SortWeaknesses(ws)
	if ws[0].Topic != "a" {
		t.Errorf("first = %s, want a", ws[0].Topic)
	}
}

func TestPatterns_EasyAndTricky(t *testing.T) {
	e := ev(1, "T", "easy", false, 30)
	e.MarkedTricky = true
	got := RunPatternClassifiers(DefaultPatternClassifiers(), []attempt.Event{e}, itemstats.Difficulties{"easy": 0.9}, attempt.DefaultThresholds())
	want := []Pattern{PatternEasyWrong, PatternTrickyWrong}
	if len(got) != len(want) {
		t.Fatalf("patterns = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("patterns[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestConfusion(t *testing.T) {
	th := attempt.DefaultThresholds()
	tests := []struct {
		name string
		e    attempt.Event
		want float64
	}{
		{"fast", attempt.Event{TimeTakenSeconds: 10}, 0},
		{"slow correct", attempt.Event{TimeTakenSeconds: 90, Correct: true}, 0.5},
		{"very slow", attempt.Event{TimeTakenSeconds: 500, Correct: true}, 1},
		{"slow wrong hesitant", attempt.Event{TimeTakenSeconds: 61, HesitationCount: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Confusion(tt.e, th); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Confusion() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestTarget(t *testing.T) {
	if got := Target(nil); got.QuestionsNeeded != 10 || got.RecommendedDifficulty[0] != "medium" {
		t.Errorf("empty targeting = %+v", got)
	}
	ranked := []Weakness{{Topic: "a", Mastery: 0.25}, {Topic: "b", Mastery: 0.5}, {Topic: "c"}, {Topic: "d"}}
	got := Target(ranked)
	if len(got.WeakTopics) != 3 {
		t.Errorf("WeakTopics = %v, want top 3", got.WeakTopics)
	}
	if got.RecommendedDifficulty[0] != "easy" || len(got.RecommendedDifficulty) != 1 {
		t.Errorf("RecommendedDifficulty = %v, want [easy]", got.RecommendedDifficulty)
	}
	if got.QuestionsNeeded != 15 {
		t.Errorf("QuestionsNeeded = %d, want 15", got.QuestionsNeeded)
	}
	if got := Target([]Weakness{{Topic: "x", Mastery: 0.95}}); got.QuestionsNeeded != 5 {
		t.Errorf("QuestionsNeeded = %d, want floor of 5", got.QuestionsNeeded)
	}
}

func TestLevelOf(t *testing.T) {
	if LevelOf(0.49) != LevelWeak || LevelOf(0.5) != LevelDeveloping || LevelOf(0.81) != LevelStrong {
		t.Error("unexpected level boundaries")
	}
}
