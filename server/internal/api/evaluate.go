package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/decisionstack/decisionstack/pkg/dataset"
	"github.com/decisionstack/decisionstack/pkg/engine"
	"github.com/decisionstack/decisionstack/pkg/types"
)

// evaluate serves POST /api/v1/evaluate. The body is a dataset (CSV, JSON,
// YAML or Prometheus text); query parameters select the metric and the
// what-if perturbation:
//
//	metric          numeric column, default the first one
//	format          csv|json|yaml|prometheus, default from Content-Type, then csv
//	name            dataset title
//	drop            scenario drop percent, 0-50, default 10
//	variability     scenario variability percent, 0-50, default 10
//	include_series  echo the evaluated values
//
// Results are returned, never stored.
func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.opts.EvaluateLimiter != nil && !h.opts.EvaluateLimiter.Allow() {
		w.Header().Set("Retry-After", "1")
		jsonErr(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	q := r.URL.Query()
	params, err := scenarioFromQuery(q.Get("drop"), q.Get("variability"))
	if err != nil {
		jsonErr(w, statusForEngineError(err), err.Error())
		return
	}
	format, err := dataset.ParseFormat(q.Get("format"))
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if format == "" {
		format = dataset.FormatFromContentType(r.Header.Get("Content-Type"))
	}
	includeSeries, _ := strconv.ParseBool(q.Get("include_series"))

	name := q.Get("name")
	if name == "" {
		name = "request"
	}

	tbl, err := dataset.Parse(http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes), format, name)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonErr(w, http.StatusRequestEntityTooLarge, "dataset too large")
			return
		}
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := engine.EvaluateDataset(tbl, q.Get("metric"), params)
	if err != nil {
		jsonErr(w, statusForEngineError(err), err.Error())
		return
	}

	rep := types.NewReport(types.Meta{
		SourceID:      "adhoc",
		SourceType:    "request",
		Title:         tbl.Title(),
		IncludeSeries: includeSeries,
	}, res, time.Now())
	jsonResp(w, http.StatusOK, EvaluateResponse{Report: rep, Hints: computeHints(rep)})
}

// scenarioFromQuery parses the drop and variability parameters. Missing
// values take the defaults; out-of-range values are rejected.
func scenarioFromQuery(drop, variability string) (engine.ScenarioParams, error) {
	p := engine.DefaultScenario()
	if drop != "" {
		v, err := strconv.Atoi(drop)
		if err != nil {
			return p, fmt.Errorf("drop: %w", err)
		}
		p.DropPct = v
	}
	if variability != "" {
		v, err := strconv.Atoi(variability)
		if err != nil {
			return p, fmt.Errorf("variability: %w", err)
		}
		p.VariabilityPct = v
	}
	return p, p.Validate()
}

// statusForEngineError maps decision errors to 422: the request parsed but
// cannot be decided on. Anything else is a malformed request.
func statusForEngineError(err error) int {
	switch {
	case errors.Is(err, engine.ErrEmptyDataset),
		errors.Is(err, engine.ErrNoNumericData),
		errors.Is(err, engine.ErrUnknownMetric),
		errors.Is(err, engine.ErrInvalidScenario):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
