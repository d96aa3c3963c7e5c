// Package pipeline orchestrates the full integrity run: load every
// registered dataset, validate it against its descriptor, check declared
// relations, join linked datasets, and roll the results into a sanity
// summary. One dataset failing never stops the others.
package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/DataCheck/internal/config"
	"github.com/JonMunkholm/DataCheck/internal/join"
	"github.com/JonMunkholm/DataCheck/internal/load"
	"github.com/JonMunkholm/DataCheck/internal/logging"
	"github.com/JonMunkholm/DataCheck/internal/sanity"
	"github.com/JonMunkholm/DataCheck/internal/schema"
	"github.com/JonMunkholm/DataCheck/internal/store"
	"github.com/JonMunkholm/DataCheck/internal/table"
	"github.com/JonMunkholm/DataCheck/internal/validate"
)

// RunResult is everything one integrity run produced.
type RunResult struct {
	ID        uuid.UUID
	StartedAt time.Time
	Duration  time.Duration
	Overall   sanity.Status
	Outcomes  []sanity.Outcome
	Statuses  []sanity.DatasetStatus
	Joins     map[string]*join.Result
}

// Service runs integrity checks over the registered datasets and retains
// the latest validated tables for export.
type Service struct {
	cfg   *config.Config
	store *store.Store // nil when persistence is disabled
	guard runGuard

	mu     sync.RWMutex
	latest *RunResult
	tables map[string]*table.Table
	joined map[string]*table.Table
}

// NewService creates a service. st may be nil; runs then skip persistence.
func NewService(cfg *config.Config, st *store.Store) *Service {
	return &Service{cfg: cfg, store: st}
}

// Run executes one integrity run over all registered datasets and
// relations. Only one run may be active at a time; concurrent callers
// receive ErrRunInProgress. Per-dataset failures are recorded in the
// outcomes, not returned: the only errors Run itself returns are the
// guard rejection and context cancellation.
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	if err := s.guard.TryAcquire(); err != nil {
		return nil, err
	}
	defer s.guard.Release()

	runID := uuid.New()
	start := time.Now()
	logger := logging.FromContext(ctx).With("run_id", runID.String())

	regDatasets := Datasets()
	logger.Info("integrity run started", "datasets", len(regDatasets))

	outcomes := make([]sanity.Outcome, len(regDatasets))
	tables := make(map[string]*table.Table, len(regDatasets))
	byDataset := make(map[string]*sanity.Outcome, len(regDatasets))

	for i, ds := range regDatasets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		o := &outcomes[i]
		o.Dataset = ds.Name
		o.Descriptor = ds.Descriptor
		byDataset[ds.Name] = o

		tbl, stats, err := load.Load(ctx, ds.Source, ds.Descriptor)
		if err != nil {
			logger.Error("load failed", "dataset", ds.Name, "error", err)
			o.Err = err
			continue
		}
		o.LoadStats = stats

		report, err := validate.ValidateSchemaParallel(tbl, ds.Descriptor, s.cfg.Data.Workers)
		if err != nil {
			logger.Error("schema validation failed", "dataset", ds.Name, "error", err)
			o.Err = err
			continue
		}
		o.Schema = report
		tables[ds.Name] = tbl

		logger.Info("dataset validated",
			"dataset", ds.Name,
			"rows", tbl.Len(),
			"violations", len(report.Violations),
		)
	}

	joins := make(map[string]*join.Result)
	joined := make(map[string]*table.Table)
	for _, rel := range Relations() {
		parent, child := tables[rel.Parent], tables[rel.Child]
		childOutcome := byDataset[rel.Child]
		if parent == nil || child == nil {
			logger.Warn("relation skipped, side failed earlier", "relation", rel.Name)
			continue
		}

		ref, err := validate.ValidateReferential(parent, rel.ParentKey, child, rel.ChildKey)
		if err != nil {
			logger.Error("referential check failed", "relation", rel.Name, "error", err)
			if childOutcome.Err == nil {
				childOutcome.Err = err
			}
			continue
		}
		childOutcome.Referential = ref

		res, err := join.Join(parent, child, rel.ParentKey, rel.ChildKey, rel.Mode)
		if err != nil {
			logger.Error("join failed", "relation", rel.Name, "error", err)
			if childOutcome.Err == nil {
				childOutcome.Err = err
			}
			continue
		}
		childOutcome.Join = res
		joins[rel.Name] = res
		joined[rel.Name] = res.Table

		logger.Info("relation checked",
			"relation", rel.Name,
			"matched", res.Matched,
			"dangling", ref.Ref.Dangling,
		)
	}

	statuses := sanity.Summarize(outcomes)
	result := &RunResult{
		ID:        runID,
		StartedAt: start,
		Duration:  time.Since(start),
		Overall:   overallStatus(statuses),
		Outcomes:  outcomes,
		Statuses:  statuses,
		Joins:     joins,
	}

	s.mu.Lock()
	s.latest = result
	s.tables = tables
	s.joined = joined
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SaveRun(ctx, toRecord(result, tables)); err != nil {
			logger.Error("failed to persist run", "error", err)
		}
	}

	logger.Info("integrity run completed",
		"overall", result.Overall,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// LatestRun returns the most recent completed run, or nil before the
// first run finishes.
func (s *Service) LatestRun() *RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Table returns the validated table for a dataset from the latest run.
func (s *Service) Table(name string) (*table.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[name]
	return t, ok
}

// Joined returns the combined table for a relation from the latest run.
func (s *Service) Joined(name string) (*table.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.joined[name]
	return t, ok
}

// GuardStatus reports whether a run is currently active.
func (s *Service) GuardStatus() GuardStatus {
	return s.guard.Status()
}

// Store exposes the run-history store, or nil when persistence is disabled.
func (s *Service) Store() *store.Store {
	return s.store
}

// overallStatus is the worst status across all datasets.
func overallStatus(statuses []sanity.DatasetStatus) sanity.Status {
	overall := sanity.StatusOK
	for _, st := range statuses {
		switch st.Status {
		case sanity.StatusFail:
			return sanity.StatusFail
		case sanity.StatusWarn:
			overall = sanity.StatusWarn
		}
	}
	return overall
}

// datasetReport is the JSON payload persisted per dataset.
type datasetReport struct {
	Error       string             `json:"error,omitempty"`
	LoadStats   *load.Stats        `json:"load_stats,omitempty"`
	Violations  []schema.Violation `json:"violations,omitempty"`
	Referential *validate.RefStats `json:"referential,omitempty"`
	Join        *join.Result       `json:"join,omitempty"`
}

// toRecord flattens a run result into the store's record shape.
func toRecord(result *RunResult, tables map[string]*table.Table) store.RunRecord {
	rec := store.RunRecord{
		ID:        result.ID,
		StartedAt: result.StartedAt,
		Duration:  result.Duration,
		Overall:   string(result.Overall),
	}

	for i, o := range result.Outcomes {
		ds := store.DatasetRecord{
			Dataset: o.Dataset,
			Status:  string(result.Statuses[i].Status),
			Detail:  result.Statuses[i].Detail,
		}
		if t := tables[o.Dataset]; t != nil {
			ds.Rows = int64(t.Len())
		}

		payload := datasetReport{
			LoadStats: o.LoadStats,
			Join:      o.Join,
		}
		if o.Err != nil {
			payload.Error = o.Err.Error()
		}
		if o.Schema != nil {
			payload.Violations = o.Schema.Violations
			ds.Violations = int64(len(o.Schema.Violations))
		}
		if o.Referential != nil {
			payload.Referential = o.Referential.Ref
			payload.Violations = append(payload.Violations, o.Referential.Violations...)
			ds.Violations += int64(len(o.Referential.Violations))
		}
		if body, err := json.Marshal(payload); err == nil {
			ds.Report = body
		}

		rec.Datasets = append(rec.Datasets, ds)
	}
	return rec
}
