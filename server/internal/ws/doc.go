// Package ws streams decision snapshots to dashboards over WebSocket.
//
// The server mounts a Hub at /ws/stream. Each subscriber gets the current
// snapshot on connect and a fresh one every broadcast_interval (default 5s),
// in the same schema as GET /api/v1/snapshot:
//
//	{"event": "snapshot", "data": {"health": {...}, "reports": [...], "generated_at": "..."}}
//
// A dashboard whose queue fills up is disconnected rather than slowing the
// others. Cancelling the context passed to Run disconnects everyone.
package ws
