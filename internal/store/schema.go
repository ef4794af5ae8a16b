package store

import (
	"context"
	"fmt"
)

// Table names.
const (
	tableAttempts  = "attempts"
	tableItemStats = "item_stats"
	tableReviews   = "review_cards"
	tableSnapshots = "mastery_snapshots"
	tableCatalog   = "catalog_items"
	tableSequence  = "global_sequence"
)

// ddl is portable between SQLite and Postgres. Times are unix nanoseconds.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS attempts (
		id TEXT PRIMARY KEY,
		sequence BIGINT NOT NULL UNIQUE,
		learner_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		document_id TEXT NOT NULL DEFAULT '',
		is_correct BOOLEAN NOT NULL,
		time_taken_seconds DOUBLE PRECISION NOT NULL,
		was_skipped BOOLEAN NOT NULL,
		hesitation_count INTEGER NOT NULL,
		answer_changed BOOLEAN NOT NULL,
		marked_tricky BOOLEAN NOT NULL,
		occurred_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS attempts_learner_topic ON attempts (learner_id, topic, occurred_at, sequence)`,
	`CREATE TABLE IF NOT EXISTS item_stats (
		item_id TEXT PRIMARY KEY,
		total_attempts INTEGER NOT NULL,
		correct_attempts INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS review_cards (
		learner_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		state TEXT NOT NULL,
		repetitions INTEGER NOT NULL,
		ease_factor DOUBLE PRECISION NOT NULL,
		interval_days INTEGER NOT NULL,
		due_at BIGINT NOT NULL,
		last_quality INTEGER NOT NULL,
		total_reviews INTEGER NOT NULL,
		successful_reviews INTEGER NOT NULL,
		lapses INTEGER NOT NULL,
		average_quality DOUBLE PRECISION NOT NULL,
		last_reviewed_at BIGINT NOT NULL,
		last_time_taken DOUBLE PRECISION NOT NULL,
		created_at BIGINT NOT NULL,
		version BIGINT NOT NULL,
		PRIMARY KEY (learner_id, item_id)
	)`,
	`CREATE INDEX IF NOT EXISTS review_cards_due ON review_cards (learner_id, due_at)`,
	`CREATE TABLE IF NOT EXISTS mastery_snapshots (
		learner_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		taken_at BIGINT NOT NULL,
		mastery DOUBLE PRECISION NOT NULL,
		sample_count INTEGER NOT NULL,
		PRIMARY KEY (learner_id, topic, taken_at)
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_items (
		item_id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		document_id TEXT NOT NULL DEFAULT '',
		seed_difficulty DOUBLE PRECISION NOT NULL DEFAULT 0.5
	)`,
	`CREATE INDEX IF NOT EXISTS catalog_items_document ON catalog_items (document_id)`,
	`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val BIGINT NOT NULL DEFAULT 1
	)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
