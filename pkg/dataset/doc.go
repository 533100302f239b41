// Package dataset parses tabular inputs into a Table the decision engine can
// read a numeric metric from.
//
// Supported formats: CSV with a header row, JSON (array of objects), YAML
// (sequence of mappings) and Prometheus text exposition (one row, one column
// per metric family). Column order follows the input.
//
// A column is numeric when every non-missing value parses as a finite
// number. Missing values (empty, NA, NaN, null, None, ...) and non-finite
// numbers are dropped by Column, so the engine only ever sees real values.
package dataset
