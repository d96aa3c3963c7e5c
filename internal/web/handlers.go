package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/DataCheck/internal/export"
	"github.com/JonMunkholm/DataCheck/internal/join"
	"github.com/JonMunkholm/DataCheck/internal/load"
	"github.com/JonMunkholm/DataCheck/internal/logging"
	"github.com/JonMunkholm/DataCheck/internal/pipeline"
	"github.com/JonMunkholm/DataCheck/internal/sanity"
	"github.com/JonMunkholm/DataCheck/internal/schema"
	"github.com/JonMunkholm/DataCheck/internal/table"
	"github.com/JonMunkholm/DataCheck/internal/validate"
)

// Sentinel errors for conditions the handlers themselves detect.
// MapError recognizes their messages.
var (
	errNoCompletedRun  = errors.New("no completed run yet")
	errHistoryDisabled = errors.New("run history persistence is disabled")
	errUnknownDataset  = errors.New("unknown dataset")
	errNoJoinedTable   = errors.New("no joined table for that relation")
	errInvalidRunID    = errors.New("invalid run id")
)

// runSummary is the JSON shape for one run in listings and trigger responses.
type runSummary struct {
	ID         string                 `json:"id"`
	StartedAt  time.Time              `json:"started_at"`
	DurationMs int64                  `json:"duration_ms"`
	Overall    sanity.Status          `json:"overall"`
	Datasets   []sanity.DatasetStatus `json:"datasets,omitempty"`
}

func toSummary(result *pipeline.RunResult) runSummary {
	return runSummary{
		ID:         result.ID.String(),
		StartedAt:  result.StartedAt,
		DurationMs: result.Duration.Milliseconds(),
		Overall:    result.Overall,
		Datasets:   result.Statuses,
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTriggerRun starts a synchronous integrity run and returns its
// summary. A second concurrent request receives 409.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Run(r.Context())
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			s.respondError(w, r, err, http.StatusConflict)
			return
		}
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toSummary(result))
}

// handleLatestRun returns the most recent completed run's summary.
func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	result := s.service.LatestRun()
	if result == nil {
		s.respondError(w, r, errNoCompletedRun, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toSummary(result))
}

// handleRunStatus reports whether a run is active and the latest verdict.
func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Guard  pipeline.GuardStatus `json:"guard"`
		Latest *runSummary          `json:"latest,omitempty"`
	}{
		Guard: s.service.GuardStatus(),
	}
	if result := s.service.LatestRun(); result != nil {
		summary := toSummary(result)
		resp.Latest = &summary
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRunHistory lists persisted runs, newest first.
func (s *Server) handleRunHistory(w http.ResponseWriter, r *http.Request) {
	st := s.service.Store()
	if st == nil {
		s.respondError(w, r, errHistoryDisabled, http.StatusNotImplemented)
		return
	}

	limit := parseIntParam(r, "limit", 20)
	runs, err := st.ListRuns(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	summaries := make([]runSummary, 0, len(runs))
	for _, rec := range runs {
		summaries = append(summaries, runSummary{
			ID:         rec.ID.String(),
			StartedAt:  rec.StartedAt,
			DurationMs: rec.Duration.Milliseconds(),
			Overall:    sanity.Status(rec.Overall),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleGetRun returns one persisted run with its per-dataset reports.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	st := s.service.Store()
	if st == nil {
		s.respondError(w, r, errHistoryDisabled, http.StatusNotImplemented)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, errInvalidRunID, http.StatusBadRequest)
		return
	}

	rec, err := st.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.respondError(w, r, err, http.StatusNotFound)
			return
		}
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	type datasetDetail struct {
		Dataset    string          `json:"dataset"`
		Status     string          `json:"status"`
		Detail     string          `json:"detail"`
		Rows       int64           `json:"rows"`
		Violations int64           `json:"violations"`
		Report     json.RawMessage `json:"report,omitempty"`
	}
	resp := struct {
		ID         string          `json:"id"`
		StartedAt  time.Time       `json:"started_at"`
		DurationMs int64           `json:"duration_ms"`
		Overall    string          `json:"overall"`
		Datasets   []datasetDetail `json:"datasets"`
	}{
		ID:         rec.ID.String(),
		StartedAt:  rec.StartedAt,
		DurationMs: rec.Duration.Milliseconds(),
		Overall:    rec.Overall,
	}
	for _, ds := range rec.Datasets {
		resp.Datasets = append(resp.Datasets, datasetDetail{
			Dataset:    ds.Dataset,
			Status:     ds.Status,
			Detail:     ds.Detail,
			Rows:       ds.Rows,
			Violations: ds.Violations,
			Report:     json.RawMessage(ds.Report),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListDatasets lists registered datasets with their declared schemas.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	type datasetInfo struct {
		Name    string   `json:"name"`
		Columns []string `json:"columns"`
		Key     []string `json:"key"`
		Rows    int      `json:"rows,omitempty"`
	}

	datasets := pipeline.Datasets()
	infos := make([]datasetInfo, 0, len(datasets))
	for _, ds := range datasets {
		info := datasetInfo{
			Name:    ds.Name,
			Columns: ds.Descriptor.Columns(),
			Key:     ds.Descriptor.Key(),
		}
		if t, ok := s.service.Table(ds.Name); ok {
			info.Rows = t.Len()
		}
		infos = append(infos, info)
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleDatasetReport returns the full outcome for one dataset from the
// latest run: status, load stats, violations, and relation results.
func (s *Server) handleDatasetReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "dataset")
	if _, ok := pipeline.GetDataset(name); !ok {
		s.respondError(w, r, errUnknownDataset, http.StatusNotFound)
		return
	}

	result := s.service.LatestRun()
	if result == nil {
		s.respondError(w, r, errNoCompletedRun, http.StatusNotFound)
		return
	}

	for i, o := range result.Outcomes {
		if o.Dataset != name {
			continue
		}

		resp := struct {
			Dataset     string             `json:"dataset"`
			Status      sanity.Status      `json:"status"`
			Detail      string             `json:"detail"`
			Error       string             `json:"error,omitempty"`
			LoadStats   *load.Stats        `json:"load_stats,omitempty"`
			Violations  []schema.Violation `json:"violations,omitempty"`
			Referential *validate.RefStats `json:"referential,omitempty"`
			Join        *join.Result       `json:"join,omitempty"`
		}{
			Dataset:   o.Dataset,
			Status:    result.Statuses[i].Status,
			Detail:    result.Statuses[i].Detail,
			LoadStats: o.LoadStats,
			Join:      o.Join,
		}
		if o.Err != nil {
			resp.Error = o.Err.Error()
		}
		if o.Schema != nil {
			resp.Violations = o.Schema.Violations
		}
		if o.Referential != nil {
			resp.Referential = o.Referential.Ref
			resp.Violations = append(resp.Violations, o.Referential.Violations...)
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	s.respondError(w, r, errUnknownDataset, http.StatusNotFound)
}

// handleExportDataset streams the latest validated table as CSV.
func (s *Server) handleExportDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "dataset")
	t, ok := s.service.Table(name)
	if !ok {
		s.respondError(w, r, errUnknownDataset, http.StatusNotFound)
		return
	}
	s.streamCSV(w, r, name, t)
}

// handleExportJoined streams the latest joined table for a relation as CSV.
func (s *Server) handleExportJoined(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "relation")
	t, ok := s.service.Joined(name)
	if !ok {
		s.respondError(w, r, errNoJoinedTable, http.StatusNotFound)
		return
	}
	s.streamCSV(w, r, name, t)
}

// streamCSV writes a table as a CSV attachment. Mid-stream failures can
// only be logged; the status line is already gone.
func (s *Server) streamCSV(w http.ResponseWriter, r *http.Request, name string, t *table.Table) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, name))

	if err := export.WriteCSV(w, t); err != nil {
		logging.FromContext(r.Context()).Error("csv export failed", "table", name, "error", err)
	}
}

// parseIntParam reads an integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return defaultVal
	}
	return v
}
