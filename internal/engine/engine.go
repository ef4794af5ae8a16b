// Package engine wires the analytics components to persisted state. It
// serializes writes per (learner, item) and runs the per-topic reads
// concurrently.
package engine

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/abhisek/recall/internal/attempt"
	"github.com/abhisek/recall/internal/itemstats"
	"github.com/abhisek/recall/internal/spacedrep"
	"github.com/abhisek/recall/internal/store"
)

const tracerName = "github.com/abhisek/recall/internal/engine"

// DefaultWorkers bounds the per-topic fan-out of a single read.
const DefaultWorkers = 8

// Repos are the persistence dependencies of the engine.
type Repos struct {
	Attempts  store.AttemptRepo
	ItemStats store.ItemStatsRepo
	Reviews   store.ReviewRepo
	Snapshots store.SnapshotRepo
	Catalog   store.CatalogRepo
}

// ReposFrom returns the repos backed by s.
func ReposFrom(s *store.Store) Repos {
	return Repos{
		Attempts:  s.AttemptRepo(),
		ItemStats: s.ItemStatsRepo(),
		Reviews:   s.ReviewRepo(),
		Snapshots: s.SnapshotRepo(),
		Catalog:   s.CatalogRepo(),
	}
}

// Options tune the engine. The zero value is usable.
type Options struct {
	Thresholds attempt.Thresholds
	// SnapshotKeep bounds the snapshots kept per topic. Zero keeps all.
	SnapshotKeep int
	Workers      int
	Logger       logrus.FieldLogger
	Clock        func() time.Time
}

// Engine is the entry point for every read and write operation.
type Engine struct {
	repos    Repos
	ingestor *attempt.Ingestor
	stats    *itemstats.Tracker
	reviews  *spacedrep.Scheduler

	th      attempt.Thresholds
	keep    int
	workers int
	log     logrus.FieldLogger
	now     func() time.Time

	locks  *keyedMutex
	flight singleflight.Group
	tracer trace.Tracer
}

// New creates an engine over repos.
func New(repos Repos, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	return &Engine{
		repos:    repos,
		ingestor: attempt.NewIngestor(repos.Attempts).WithClock(now),
		stats:    itemstats.NewTracker(repos.ItemStats),
		reviews:  spacedrep.NewScheduler(repos.Reviews, log).WithClock(now),
		th:       opts.Thresholds.WithDefaults(),
		keep:     opts.SnapshotKeep,
		workers:  workers,
		log:      log,
		now:      now,
		locks:    newKeyedMutex(),
		tracer:   otel.Tracer(tracerName),
	}
}

// Thresholds returns the heuristics in effect.
func (e *Engine) Thresholds() attempt.Thresholds {
	return e.th
}

// Now returns the engine clock.
func (e *Engine) Now() time.Time {
	return e.now()
}

func (e *Engine) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "engine."+op, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func learnerAttr(learnerID string) attribute.KeyValue {
	return attribute.String("recall.learner", learnerID)
}
