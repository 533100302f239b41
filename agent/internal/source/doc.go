// Package source fetches datasets for the monitor. Each configured source
// yields a *dataset.Table per Fetch.
//
// Implemented sources: local files (file.go), HTTP documents and Prometheus
// exposition endpoints (http.go). Factory: New(config.Source) returns the
// correct Source.
//
// Authentication (mTLS, API key, bearer token, basic) is handled by the shared
// authRoundTripper in client.go. Remote fetches are rate limited per source
// and retried with exponential backoff; 4xx responses other than 429 are not
// retried.
//
// Prometheus sources report Accumulates() == true: every fetch is a single
// row, and the monitor keeps the history needed to form a series.
package source
