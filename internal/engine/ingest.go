package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/recall/internal/apperr"
	"github.com/abhisek/recall/internal/attempt"
	"github.com/abhisek/recall/internal/store"
)

// Ingest validates raw and records it. Answered attempts update item
// statistics; wrong and skipped attempts enroll the item for review.
func (e *Engine) Ingest(ctx context.Context, raw attempt.Raw) (ev *attempt.Event, err error) {
	ctx, span := e.start(ctx, "Ingest", learnerAttr(raw.LearnerID))
	defer func() { endSpan(span, err) }()

	norm, err := e.ingestor.Normalize(raw)
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"learner": raw.LearnerID,
			"item":    raw.ItemID,
		}).WithError(err).Warn("attempt rejected")
		return nil, err
	}

	unlock := e.locks.Lock(itemKey(norm.LearnerID, norm.ItemID))
	defer unlock()

	if err := e.ingestor.Append(ctx, &norm); err != nil {
		return nil, err
	}
	if norm.Answered() {
		if _, err := e.stats.Update(ctx, norm.ItemID, norm.Correct); err != nil {
			return nil, err
		}
	}
	if !norm.Correct {
		_, created, err := e.reviews.Enroll(ctx, norm.LearnerID, norm.ItemID, norm.Topic)
		if err != nil {
			return nil, fmt.Errorf("enroll review: %w", err)
		}
		if created {
			e.log.WithFields(logrus.Fields{
				"learner": norm.LearnerID,
				"item":    norm.ItemID,
			}).Debug("enrolled missed item for review")
		}
	}
	return &norm, nil
}

// IngestBatch records a session's attempts. Rejected attempts are
// reported by index and do not stop the rest. Mastery of every touched
// topic is snapshotted afterwards.
func (e *Engine) IngestBatch(ctx context.Context, raws []attempt.Raw) (attempt.BatchResult, error) {
	return e.ingestBatch(ctx, raws, nil)
}

// IngestJSON decodes a single attempt, an array of attempts or an
// {"events": [...]} envelope and records every valid element.
func (e *Engine) IngestJSON(ctx context.Context, payload []byte) (attempt.BatchResult, error) {
	raws, rejected, err := attempt.DecodeBatch(payload)
	if err != nil {
		return attempt.BatchResult{}, err
	}
	return e.ingestBatch(ctx, raws, rejected)
}

func (e *Engine) ingestBatch(ctx context.Context, raws []attempt.Raw, rejected map[int]error) (res attempt.BatchResult, err error) {
	ctx, span := e.start(ctx, "IngestBatch")
	defer func() { endSpan(span, err) }()

	touched := make(map[store.LearnerTopic]struct{})
	for i, raw := range raws {
		if perr, ok := rejected[i]; ok {
			res.Errors = addBatchError(res.Errors, i, perr)
			continue
		}
		ev, err := e.Ingest(ctx, raw)
		if err != nil {
			var verr *attempt.ValidationError
			if !errors.As(err, &verr) {
				return res, fmt.Errorf("attempt %d: %w", i, err)
			}
			res.Errors = addBatchError(res.Errors, i, err)
			continue
		}
		res.Recorded = append(res.Recorded, ev)
		touched[store.LearnerTopic{LearnerID: ev.LearnerID, Topic: ev.Topic}] = struct{}{}
	}

	keys := lo.Keys(touched)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].LearnerID != keys[j].LearnerID {
			return keys[i].LearnerID < keys[j].LearnerID
		}
		return keys[i].Topic < keys[j].Topic
	})
	for _, k := range keys {
		if _, err := e.snapshotTopic(ctx, k.LearnerID, k.Topic); err != nil && !errors.Is(err, apperr.ErrInsufficientData) {
			return res, err
		}
	}

	if len(res.Errors) > 0 {
		e.log.WithFields(logrus.Fields{
			"recorded": len(res.Recorded),
			"rejected": len(res.Errors),
		}).Info("batch ingested with rejections")
	}
	return res, nil
}

func addBatchError(m map[int]error, i int, err error) map[int]error {
	if m == nil {
		m = make(map[int]error)
	}
	m[i] = err
	return m
}

// UpsertCatalog stores items published by the document service.
func (e *Engine) UpsertCatalog(ctx context.Context, items []store.CatalogItem) (err error) {
	ctx, span := e.start(ctx, "UpsertCatalog")
	defer func() { endSpan(span, err) }()

	for i := range items {
		it := &items[i]
		if it.ItemID == "" {
			return attempt.Invalid(fmt.Sprintf("items[%d].item_id", i), "required")
		}
		if it.Topic == "" {
			return attempt.Invalid(fmt.Sprintf("items[%d].topic", i), "required")
		}
		if it.SeedDifficulty < 0 || it.SeedDifficulty > 1 {
			return attempt.Invalid(fmt.Sprintf("items[%d].seed_difficulty", i), "must be within [0,1]")
		}
	}
	if err := e.repos.Catalog.Upsert(ctx, items); err != nil {
		return fmt.Errorf("upsert catalog: %w", err)
	}
	return nil
}
