// Package shipper sends decision reports to decisionstack-server as JSON
// batches (POST /api/v1/reports).
//
// Shipper.Ship() is non-blocking: reports are placed in an in-memory channel
// (capacity buffer_size). When the buffer is full the oldest entry is evicted
// so the latest decisions are always preserved.
//
// Shipper.Run() flushes the buffer every ship_interval. A failed batch is
// retried with exponential backoff (cenkalti/backoff); if retries run out the
// reports are re-queued for the next tick. 4xx responses other than 429 are
// permanent and the batch is discarded.
package shipper
