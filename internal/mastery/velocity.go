package mastery

import (
	"fmt"
	"math"
	"sort"

	"github.com/abhisek/recall/internal/apperr"
)

// MasteryTarget is the mastery a topic is considered learned at.
const MasteryTarget = 0.9

// ErrTooFewSnapshots is returned when fewer than two snapshots exist.
var ErrTooFewSnapshots = fmt.Errorf("%w: need at least two mastery snapshots", apperr.ErrInsufficientData)

// Velocity is the learning rate of one topic over its snapshot history.
type Velocity struct {
	Topic             string    `json:"topic"`
	SnapshotsAnalyzed int       `json:"snapshots_analyzed"`
	Trajectory        []float64 `json:"mastery_trajectory"`
	// Velocity is the mastery gained per snapshot.
	Velocity     float64 `json:"velocity"`
	Acceleration float64 `json:"acceleration"`
	// SessionsToMastery is nil when the topic is mastered or not improving.
	SessionsToMastery *int   `json:"sessions_to_mastery"`
	ComparativeRank   string `json:"comparative_rank"`
}

// LearningVelocity fits a least-squares line through the snapshot
// trajectory. Snapshots must be ordered oldest first.
func LearningVelocity(topic string, snaps []Snapshot) (Velocity, error) {
	if len(snaps) < 2 {
		return Velocity{}, ErrTooFewSnapshots
	}
	traj := make([]float64, len(snaps))
	for i, s := range snaps {
		traj[i] = s.Mastery
	}

	v := Velocity{
		Topic:             topic,
		SnapshotsAnalyzed: len(traj),
		Trajectory:        traj,
		Velocity:          slope(traj),
	}
	if len(traj) >= 4 {
		half := len(traj) / 2
		v.Acceleration = slope(traj[half:]) - slope(traj[:half])
	}
	current := traj[len(traj)-1]
	if v.Velocity > 0 && current < MasteryTarget {
		n := max(1, int(math.Ceil((MasteryTarget-current)/v.Velocity)))
		v.SessionsToMastery = &n
	}
	return v, nil
}

// CompareVelocities orders topics fastest first and labels each one
// relative to the fastest.
func CompareVelocities(vs []Velocity) []Velocity {
	out := make([]Velocity, len(vs))
	copy(out, vs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Velocity != out[j].Velocity {
			return out[i].Velocity > out[j].Velocity
		}
		return out[i].Topic < out[j].Topic
	})
	if len(out) < 2 {
		return out
	}
	fastest := out[0]
	out[0].ComparativeRank = "Fastest learning topic"
	for i := 1; i < len(out); i++ {
		if out[i].Velocity > 0 {
			out[i].ComparativeRank = fmt.Sprintf("%.1fx slower than %s", fastest.Velocity/out[i].Velocity, fastest.Topic)
		}
	}
	return out
}

// slope is the least-squares slope of values over their index.
func slope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	xMean := (n - 1) / 2
	var yMean float64
	for _, y := range values {
		yMean += y
	}
	yMean /= n

	var num, den float64
	for i, y := range values {
		dx := float64(i) - xMean
		num += dx * (y - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}
