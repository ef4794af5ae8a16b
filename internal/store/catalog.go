package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"

	"github.com/abhisek/recall/internal/apperr"
)

var catalogColumns = []string{"item_id", "topic", "document_id", "seed_difficulty"}

// catalogRepo implements CatalogRepo.
type catalogRepo struct {
	db *sqlx.DB
	b  *entsql.DialectBuilder
}

func (r *catalogRepo) Upsert(ctx context.Context, items []CatalogItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog upsert: %w", err)
	}
	defer tx.Rollback()

	for _, it := range items {
		query, args := r.b.Insert(tableCatalog).
			Columns(catalogColumns...).
			Values(it.ItemID, it.Topic, it.DocumentID, it.SeedDifficulty).
			OnConflict(
				entsql.ConflictColumns("item_id"),
				entsql.ResolveWithNewValues(),
			).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert catalog item %s: %w", it.ItemID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog upsert: %w", err)
	}
	return nil
}

func (r *catalogRepo) Get(ctx context.Context, itemID string) (*CatalogItem, error) {
	query, args := r.b.Select(catalogColumns...).
		From(r.b.Table(tableCatalog)).
		Where(entsql.EQ("item_id", itemID)).
		Query()
	var it CatalogItem
	if err := r.db.GetContext(ctx, &it, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("catalog item %s: %w", itemID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("query catalog item: %w", err)
	}
	return &it, nil
}

func (r *catalogRepo) Topics(ctx context.Context, documentID string) ([]string, error) {
	sel := r.b.Select("topic").
		Distinct().
		From(r.b.Table(tableCatalog)).
		OrderBy("topic")
	if documentID != "" {
		sel = sel.Where(entsql.EQ("document_id", documentID))
	}
	query, args := sel.Query()
	var out []string
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("query catalog topics: %w", err)
	}
	return out, nil
}

func (r *catalogRepo) Items(ctx context.Context, documentID string) ([]string, error) {
	query, args := r.b.Select("item_id").
		From(r.b.Table(tableCatalog)).
		Where(entsql.EQ("document_id", documentID)).
		OrderBy("item_id").
		Query()
	var out []string
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("query catalog items: %w", err)
	}
	return out, nil
}
