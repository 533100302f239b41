package api

import "github.com/decisionstack/decisionstack/pkg/types"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	// State is "unknown" with no live reports, otherwise the highest
	// current priority across sources ("High", "Medium" or "Low"), or
	// "error" when every live report is an error.
	State        string  `json:"state"`
	AverageScore float64 `json:"average_score"`
	SourceCount  int     `json:"source_count"`
	HighCount    int     `json:"high_count"`
	MediumCount  int     `json:"medium_count"`
	LowCount     int     `json:"low_count"`
	ErrorCount   int     `json:"error_count"`
	AlertCount   int     `json:"alert_count"`
}

// ReportResponse is one entry in GET /api/v1/reports or
// GET /api/v1/reports/{source}.
type ReportResponse struct {
	types.Report
	Hints    []DecisionHint `json:"hints"`
	LastSeen string         `json:"last_seen"` // RFC3339
}

// EvaluateResponse is the payload for POST /api/v1/evaluate.
type EvaluateResponse struct {
	types.Report
	Hints []DecisionHint `json:"hints"`
}

// SnapshotResponse is the payload for GET /api/v1/snapshot and the data of
// every websocket broadcast.
type SnapshotResponse struct {
	Health      HealthResponse   `json:"health"`
	Reports     []ReportResponse `json:"reports"`
	GeneratedAt string           `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
