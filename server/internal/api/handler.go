package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/decisionstack/decisionstack/pkg/engine"
	"github.com/decisionstack/decisionstack/server/internal/alerts"
	"github.com/decisionstack/decisionstack/server/internal/store"
)

// AlertSource lists current alerts.
type AlertSource interface {
	Active() []*alerts.Alert
	Firing() int
}

// Options wires optional collaborators into the handler.
type Options struct {
	// Alerts backs /api/v1/alerts and the alert counts. Nil means no alerting.
	Alerts AlertSource

	// Ingest serves POST /api/v1/reports. Nil answers 405.
	Ingest http.Handler

	// EvaluateLimiter throttles POST /api/v1/evaluate. Nil means unlimited.
	EvaluateLimiter *rate.Limiter

	// MaxBodyBytes bounds POST /api/v1/evaluate bodies.
	MaxBodyBytes int64
}

// Handler is the HTTP handler for all /api/v1/* endpoints and /metrics.
// It reads decision state from the report store and returns JSON responses.
type Handler struct {
	store *store.Store
	opts  Options
	mux   *http.ServeMux
}

// New creates a Handler wired to the given report store and registers all routes.
func New(st *store.Store, opts Options) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 8 << 20
	}
	h := &Handler{store: st, opts: opts, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/reports", h.reports)
	h.mux.HandleFunc("/api/v1/reports/", h.getReport) // subtree, extracts {source}
	h.mux.HandleFunc("/api/v1/evaluate", h.evaluate)
	h.mux.HandleFunc("/api/v1/alerts", h.alerts)
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)
	h.mux.HandleFunc("/metrics", h.metrics)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: source counts by priority and the
// average readiness score.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildHealth(h.store, h.opts.Alerts))
}

// reports serves GET /api/v1/reports (all live reports) and hands
// POST /api/v1/reports to the ingest handler.
func (h *Handler) reports(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet:
		jsonResp(w, http.StatusOK, listReports(h.store))
	case r.Method == http.MethodPost && h.opts.Ingest != nil:
		h.opts.Ingest.ServeHTTP(w, r)
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// getReport returns GET /api/v1/reports/{source}: a single live report.
func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/reports/")
	if id == "" {
		h.reports(w, r)
		return
	}

	e, ok := h.store.Get(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, "source not found")
		return
	}
	jsonResp(w, http.StatusOK, toReportResponse(e))
}

// alerts returns GET /api/v1/alerts: firing alerts plus those resolved in
// the last hour.
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.opts.Alerts == nil {
		jsonResp(w, http.StatusOK, []*alerts.Alert{})
		return
	}
	jsonResp(w, http.StatusOK, h.opts.Alerts.Active())
}

// snapshot returns GET /api/v1/snapshot: health plus every live report.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildSnapshot(h.store, h.opts.Alerts))
}

// --- shared builders --------------------------------------------------------

// BuildHealth summarises the live reports in st. al may be nil.
func BuildHealth(st *store.Store, al AlertSource) HealthResponse {
	entries := st.List()
	resp := HealthResponse{SourceCount: len(entries), State: "unknown"}
	if al != nil {
		resp.AlertCount = al.Firing()
	}
	if len(entries) == 0 {
		return resp
	}

	var total float64
	var top engine.Level
	for _, e := range entries {
		rep := e.Report
		if !rep.OK() {
			resp.ErrorCount++
			continue
		}
		total += float64(rep.Score)
		lvl := engine.Level(rep.Priority)
		switch lvl {
		case engine.High:
			resp.HighCount++
		case engine.Medium:
			resp.MediumCount++
		case engine.Low:
			resp.LowCount++
		}
		if lvl.Rank() > top.Rank() {
			top = lvl
		}
	}

	decided := len(entries) - resp.ErrorCount
	if decided == 0 {
		resp.State = "error"
		return resp
	}
	resp.AverageScore = total / float64(decided)
	if top != "" {
		resp.State = string(top)
	}
	return resp
}

// BuildSnapshot assembles the payload served by /api/v1/snapshot and
// broadcast over the websocket stream. al may be nil.
func BuildSnapshot(st *store.Store, al AlertSource) SnapshotResponse {
	return SnapshotResponse{
		Health:      BuildHealth(st, al),
		Reports:     listReports(st),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func listReports(st *store.Store) []ReportResponse {
	entries := st.List()
	out := make([]ReportResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toReportResponse(e))
	}
	return out
}

// --- helpers ----------------------------------------------------------------

// jsonResp encodes v before writing the status so an encoding failure can
// still become a 500.
func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("api: encode response", "err", err)
		buf.Reset()
		code = http.StatusInternalServerError
		json.NewEncoder(&buf).Encode(errorResponse{Error: "encode response: " + err.Error()}) //nolint:errcheck
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(buf.Bytes()) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// toReportResponse maps a store.Entry to its JSON representation.
func toReportResponse(e store.Entry) ReportResponse {
	return ReportResponse{
		Report:   e.Report,
		Hints:    computeHints(e.Report),
		LastSeen: e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
