// Package engine turns an ordered numeric series into a readiness decision.
//
// The evaluation is four pure stages chained in sequence:
//
//	Split      series → baseline + recent windows     (window.go)
//	Calculate  windows → change/variability/trend     (signals.go)
//	Classify   signals → score, priority, confidence,
//	           stability and three reasons            (classify.go)
//	Simulate   signals + perturbation → sim priority  (scenario.go)
//
// Evaluate and EvaluateDataset (engine.go) run the whole chain. Nothing in
// this package keeps state between calls, performs I/O or logs; every call
// returns freshly allocated results and is safe for concurrent use.
//
// Thresholds are strict (>, <) except the Confidence and Stability tiers,
// which use >= as documented next to their rule tables.
package engine
