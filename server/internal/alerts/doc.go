// Package alerts evaluates threshold rules against incoming decision reports
// and notifies Slack, Teams or generic HTTP webhooks when a rule fires or
// resolves.
//
// A rule condition is a single "field op value" expression. Numeric fields
// (score, change_ratio, variability_ratio, trend_consistency, records,
// baseline_mean, recent_mean) compare as floats. Level fields (priority,
// confidence, stability, sim_priority) compare by rank, so
// "priority >= medium" matches Medium and High.
package alerts
