// Package monitor runs the evaluation loop: every evaluate_interval each
// configured source is fetched, evaluated by the engine and the resulting
// report is handed to a Reporter (the shipper).
//
// Sources that accumulate (Prometheus scrapes) yield one row per fetch; the
// monitor appends those rows to a bounded per-source history table and
// evaluates the history instead. History survives a config reload when the
// source's type and location are unchanged.
//
// Process(sourceID, table, now) is the unit the loop and the tests share;
// now is injectable so tests control the clock.
package monitor
