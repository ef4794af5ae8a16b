package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/abhisek/recall/internal/itemstats"
)

type itemStatsRow struct {
	ItemID          string `db:"item_id"`
	TotalAttempts   int    `db:"total_attempts"`
	CorrectAttempts int    `db:"correct_attempts"`
}

// itemStatsRepo implements ItemStatsRepo.
type itemStatsRepo struct {
	db *sqlx.DB
	b  *entsql.DialectBuilder
}

// Increment upserts the counters in one statement. A new row starts from
// the bootstrap prior plus this attempt; an existing row is incremented
// in place so concurrent writers never lose an update.
func (r *itemStatsRepo) Increment(ctx context.Context, itemID string, correct bool) (itemstats.Statistics, error) {
	inc := 0
	if correct {
		inc = 1
	}
	first := itemstats.Apply(itemstats.Statistics{}, itemID, correct)

	query, args := r.b.Insert(tableItemStats).
		Columns("item_id", "total_attempts", "correct_attempts").
		Values(itemID, first.TotalAttempts, first.CorrectAttempts).
		OnConflict(
			entsql.ConflictColumns("item_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.Add("total_attempts", 1)
				u.Add("correct_attempts", inc)
			}),
		).
		Returning("item_id", "total_attempts", "correct_attempts").
		Query()

	var row itemStatsRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return itemstats.Statistics{}, fmt.Errorf("upsert item stats: %w", err)
	}
	return itemstats.Statistics(row), nil
}

func (r *itemStatsRepo) GetMany(ctx context.Context, itemIDs []string) (map[string]itemstats.Statistics, error) {
	out := make(map[string]itemstats.Statistics, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}
	ids := lo.Uniq(itemIDs)

	query, args := r.b.Select("item_id", "total_attempts", "correct_attempts").
		From(r.b.Table(tableItemStats)).
		Where(entsql.In("item_id", lo.ToAnySlice(ids)...)).
		Query()

	var rows []itemStatsRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query item stats: %w", err)
	}
	for _, row := range rows {
		out[row.ItemID] = itemstats.Statistics(row)
	}
	return out, nil
}
