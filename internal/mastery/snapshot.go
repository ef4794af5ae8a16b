package mastery

import "time"

// Snapshot is a point-in-time copy of a topic's mastery. Snapshots form
// the history read by the forgetting curve and learning velocity.
type Snapshot struct {
	LearnerID   string
	Topic       string
	Mastery     float64
	SampleCount int
	TakenAt     time.Time
}

// SnapshotOf captures r at takenAt.
func SnapshotOf(r Record, takenAt time.Time) Snapshot {
	return Snapshot{
		LearnerID:   r.LearnerID,
		Topic:       r.Topic,
		Mastery:     r.Mastery,
		SampleCount: r.SampleCount,
		TakenAt:     takenAt,
	}
}
