// Package pipeline runs the engine over a batch and records the outcome:
// persistence, events and metrics.
package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"resumerank-engine/internal/domain"
	"resumerank-engine/internal/events"
	"resumerank-engine/internal/metrics"
	"resumerank-engine/internal/rank"
	"resumerank-engine/internal/scheduler"
	"resumerank-engine/internal/store"
)

// Result is one completed run. Run.ID is empty when the service has no DB.
type Result struct {
	Run     store.Run      `json:"run"`
	Ranking domain.Ranking `json:"ranking"`
}

type Service struct {
	DB      *sql.DB
	Hub     *events.Hub
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	engine atomic.Pointer[rank.Engine]
}

func New(engine *rank.Engine, db *sql.DB, hub *events.Hub, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{DB: db, Hub: hub, Metrics: m, Logger: logger}
	s.engine.Store(engine)
	return s
}

// Engine returns the engine used for new runs.
func (s *Service) Engine() *rank.Engine { return s.engine.Load() }

// SetEngine swaps the engine after a config change. Runs already in flight
// finish on the engine they started with.
func (s *Service) SetEngine(e *rank.Engine) { s.engine.Store(e) }

// Rank scores docs and, when a DB is configured, stores the run.
func (s *Service) Rank(ctx context.Context, reqID, source string, docs []domain.Document, overrides map[string]any) (Result, error) {
	start := time.Now()
	label := metricLabel(source)

	ranking, err := s.Engine().Rank(ctx, docs, overrides)
	if err != nil {
		s.Metrics.ObserveRun(label, metrics.StatusFailure, len(docs), time.Since(start).Seconds())
		return Result{}, err
	}

	res := Result{Ranking: ranking}
	if s.DB != nil {
		run, err := store.InsertRun(ctx, s.DB, source, docs, ranking)
		if err != nil {
			s.Metrics.ObserveRun(label, metrics.StatusFailure, len(docs), time.Since(start).Seconds())
			return Result{}, fmt.Errorf("persist run: %w", err)
		}
		res.Run = run
	}
	s.Metrics.ObserveRun(label, metrics.StatusSuccess, len(docs), time.Since(start).Seconds())

	s.Logger.Info("run completed",
		"request_id", reqID,
		"run_id", res.Run.ID,
		"source", source,
		"documents", len(docs),
		"participants", ranking.Stats.Participants,
		"issues", len(ranking.Issues),
		"dur_ms", time.Since(start).Milliseconds(),
	)

	evt := events.RunCompleted{RunID: res.Run.ID, Source: source, Documents: len(docs)}
	if len(ranking.Records) > 0 {
		evt.TopFilename = ranking.Records[0].Filename
		evt.TopScore = ranking.Records[0].FinalScore
	}
	s.Hub.Publish(events.MakeEvent(reqID, events.TypeRunCompleted, 1, evt))

	return res, nil
}

// Rerank scores a stored run's documents again with new weights and stores
// the result as a new run.
func (s *Service) Rerank(ctx context.Context, reqID, runID string, overrides map[string]any) (Result, error) {
	if s.DB == nil {
		return Result{}, fmt.Errorf("rerank %s: no database", runID)
	}
	docs, err := store.RunDocuments(ctx, s.DB, runID)
	if err != nil {
		return Result{}, err
	}
	return s.Rank(ctx, reqID, metrics.SourceRerank+":"+runID, docs, overrides)
}

// Delete removes a stored run and announces it.
func (s *Service) Delete(ctx context.Context, reqID, runID string) (bool, error) {
	if s.DB == nil {
		return false, fmt.Errorf("delete %s: no database", runID)
	}
	ok, err := store.DeleteRun(ctx, s.DB, runID)
	if err != nil || !ok {
		return ok, err
	}
	s.Hub.Publish(events.MakeEvent(reqID, events.TypeRunDeleted, 1, events.RunDeleted{RunID: runID}))
	return true, nil
}

// RetentionTask returns a scheduler task that removes runs older than the
// number of days reported by days(), read on every sweep.
func (s *Service) RetentionTask(days func() int) scheduler.Task {
	return func(ctx context.Context) error {
		d := days()
		n, err := store.CleanupOldRuns(ctx, s.DB, d)
		if err != nil {
			return err
		}
		s.Metrics.AddRetentionDeleted(n)
		if n > 0 {
			s.Logger.Info("retention sweep", "deleted", n, "days", d)
			s.Hub.Publish(events.MakeEvent("", events.TypeRetentionSwept, 1, events.RetentionSwept{Deleted: n, Days: d}))
		}
		return nil
	}
}

// metricLabel drops the run reference from sources like "rerank:<id>" so the
// label set stays bounded.
func metricLabel(source string) string {
	if i := strings.IndexByte(source, ':'); i >= 0 {
		return source[:i]
	}
	return source
}
