// Package store holds the latest report per source in memory. Entries expire
// after a TTL without updates; a background loop evicts them. This is a live
// view of what agents last sent, not a decision history.
package store
