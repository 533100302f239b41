package receiver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/decisionstack/decisionstack/pkg/types"
	"github.com/decisionstack/decisionstack/server/internal/store"
)

// Path is the route the receiver is mounted on.
const Path = "/api/v1/reports"

// Evaluator is notified of every accepted report.
type Evaluator interface {
	Evaluate(types.Report)
}

// AcceptedResponse is the 202 body.
type AcceptedResponse struct {
	Accepted int `json:"accepted"`
}

// Receiver validates incoming report batches and stores them.
type Receiver struct {
	store   *store.Store
	alerts  Evaluator
	maxBody int64
}

// New creates a Receiver that writes accepted reports to st and hands them
// to alerts. alerts may be nil. Bodies larger than maxBody bytes are rejected.
func New(st *store.Store, alerts Evaluator, maxBody int64) *Receiver {
	return &Receiver{store: st, alerts: alerts, maxBody: maxBody}
}

func (rc *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var batch types.Batch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, rc.maxBody)).Decode(&batch); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "batch too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid batch: " + err.Error()})
		return
	}
	for i, rep := range batch.Reports {
		if rep.SourceID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": fmt.Sprintf("reports[%d]: source_id is required", i),
			})
			return
		}
	}

	for _, rep := range batch.Reports {
		rc.store.Put(rep)
		if rc.alerts != nil {
			rc.alerts.Evaluate(rep)
		}
		slog.Debug("receiver: report stored",
			"agent_id", batch.AgentID,
			"source_id", rep.SourceID,
			"metric", rep.Metric,
			"priority", rep.Priority,
			"score", rep.Score,
			"err", rep.Error,
		)
	}

	writeJSON(w, http.StatusAccepted, AcceptedResponse{Accepted: len(batch.Reports)})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("receiver: encode response", "err", err)
		http.Error(w, "encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(append(body, '\n')) //nolint:errcheck
}
