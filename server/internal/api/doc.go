// Package api implements the HTTP REST API for decisionstack-server.
//
// New(store, opts) returns an http.Handler that serves:
//
//	GET  /api/v1/health            source counts by priority, average score, alert count
//	GET  /api/v1/reports           all live reports with hints ([]ReportResponse)
//	POST /api/v1/reports           agent ingest, delegated to Options.Ingest
//	GET  /api/v1/reports/{source}  one report; 404 if unknown or stale
//	POST /api/v1/evaluate          ad-hoc evaluation of a dataset body, not stored
//	GET  /api/v1/alerts            firing and recently resolved alerts
//	GET  /api/v1/snapshot          health + all live reports + generated_at
//	GET  /metrics                  decision gauges in Prometheus text format
//
// JSON endpoints respond with Content-Type: application/json and return 405
// for the wrong method. Hints (hints.go) turn a report's signals into short
// plain-language explanations for dashboards.
package api
