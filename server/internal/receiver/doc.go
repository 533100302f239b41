// Package receiver implements the HTTP endpoint that accepts report batches
// from decision agents.
//
// POST /api/v1/reports takes a JSON types.Batch. Every report must carry a
// source_id; a batch containing one without it is rejected whole with 400.
// Accepted reports are written to the store and passed to the alert
// evaluator, and the handler answers 202 with the number accepted.
// Authentication is enforced upstream by the auth middleware.
package receiver
