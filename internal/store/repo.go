package store

import (
	"context"
	"time"

	"github.com/abhisek/recall/internal/attempt"
	"github.com/abhisek/recall/internal/itemstats"
	"github.com/abhisek/recall/internal/mastery"
	"github.com/abhisek/recall/internal/spacedrep"
)

// QueryOpts filters attempt queries.
type QueryOpts struct {
	Topic string    // exact topic, empty = all
	From  time.Time // occurred_at >= From
}

// LearnerTopic names one (learner, topic) pair with attempts.
type LearnerTopic struct {
	LearnerID string `db:"learner_id"`
	Topic     string `db:"topic"`
}

// AttemptRepo is the append-only attempt log.
type AttemptRepo interface {
	attempt.Log

	// Get returns one attempt of a learner, or apperr.ErrNotFound.
	Get(ctx context.Context, learnerID, id string) (*attempt.Event, error)

	// List returns a learner's attempts oldest first.
	List(ctx context.Context, learnerID string, opts QueryOpts) ([]attempt.Event, error)

	// LearnerTopics lists every (learner, topic) pair with attempts.
	LearnerTopics(ctx context.Context) ([]LearnerTopic, error)

	// Learners lists every learner with attempts.
	Learners(ctx context.Context) ([]string, error)
}

// ItemStatsRepo persists item statistics.
type ItemStatsRepo interface {
	itemstats.Repo
}

// ReviewRepo persists review cards.
type ReviewRepo interface {
	spacedrep.Repo
}

// SnapshotRepo persists mastery snapshots.
type SnapshotRepo interface {
	// Save stores a snapshot. Saving the same (learner, topic, time) again
	// replaces the earlier one.
	Save(ctx context.Context, snap mastery.Snapshot) error

	// Latest returns the newest snapshot of a topic, or nil if none exist.
	Latest(ctx context.Context, learnerID, topic string) (*mastery.Snapshot, error)

	// History returns a topic's snapshots oldest first.
	History(ctx context.Context, learnerID, topic string) ([]mastery.Snapshot, error)

	// HistoryByTopic returns every snapshot of a learner grouped by topic.
	HistoryByTopic(ctx context.Context, learnerID string) (map[string][]mastery.Snapshot, error)

	// Prune deletes all but the keep most recent snapshots of a topic.
	Prune(ctx context.Context, learnerID, topic string, keep int) error
}

// CatalogItem is an item as published by the document service.
type CatalogItem struct {
	ItemID         string  `db:"item_id" json:"item_id"`
	Topic          string  `db:"topic" json:"topic"`
	DocumentID     string  `db:"document_id" json:"document_id"`
	SeedDifficulty float64 `db:"seed_difficulty" json:"seed_difficulty"`
}

// CatalogRepo persists the item catalog.
type CatalogRepo interface {
	// Upsert inserts or replaces items.
	Upsert(ctx context.Context, items []CatalogItem) error

	// Get returns one item, or apperr.ErrNotFound.
	Get(ctx context.Context, itemID string) (*CatalogItem, error)

	// Topics returns the distinct topics of a document, or of the whole
	// catalog when documentID is empty.
	Topics(ctx context.Context, documentID string) ([]string, error)

	// Items returns the item IDs of a document.
	Items(ctx context.Context, documentID string) ([]string, error)
}
